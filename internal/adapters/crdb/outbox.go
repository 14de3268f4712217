package crdb

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/party-bookings/internal/domain"
)

type OutboxRecord struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Status        string // NEW, PUBLISHED
	DedupeKey     string
}

func NewOutboxRecord(ev domain.BookingEvent) OutboxRecord {
	payload, _ := json.Marshal(ev)
	return OutboxRecord{
		ID:            uuid.New(),
		AggregateType: "booking",
		AggregateID:   ev.BookingID,
		EventType:     ev.Type,
		Payload:       payload,
		DedupeKey:     ev.ID.String(),
	}
}

func (r *Repository) InsertOutbox(ctx context.Context, tx pgx.Tx, record OutboxRecord) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload_json, status, dedupe_key)
		VALUES ($1, $2, $3, $4, $5, 'NEW', $6)
	`, record.ID, record.AggregateType, record.AggregateID, record.EventType, record.Payload, record.DedupeKey)
	return err
}

// ClaimOutbox leases up to limit unpublished records, oldest first, to the
// caller until the lease runs out. Records held by another relay are skipped.
func (r *Repository) ClaimOutbox(ctx context.Context, limit int) ([]OutboxRecord, error) {
	now := time.Now()
	rows, err := r.pool.Query(ctx, `
		UPDATE outbox SET claimed_until = $2
		WHERE id IN (
			SELECT id FROM outbox
			WHERE status = 'NEW' AND (claimed_until IS NULL OR claimed_until < $3)
			ORDER BY created_at ASC LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, aggregate_type, aggregate_id, event_type, payload_json, created_at, published_at, status, dedupe_key
	`, limit, now.Add(r.outboxLease), now)
	if err != nil {
		return nil, errors.Wrap(err, "claim outbox")
	}
	defer rows.Close()

	var records []OutboxRecord
	for rows.Next() {
		var rec OutboxRecord
		err := rows.Scan(&rec.ID, &rec.AggregateType, &rec.AggregateID, &rec.EventType, &rec.Payload, &rec.CreatedAt, &rec.PublishedAt, &rec.Status, &rec.DedupeKey)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "claim outbox")
	}
	// RETURNING has no defined order
	sort.SliceStable(records, func(a, b int) bool { return records[a].CreatedAt.Before(records[b].CreatedAt) })
	return records, nil
}

// ReleaseOutbox drops the lease on records the caller did not publish so the
// next pass can pick them up without waiting for expiry.
func (r *Repository) ReleaseOutbox(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE outbox SET claimed_until = NULL WHERE id = ANY($1::UUID[]) AND status = 'NEW'
	`, keys)
	return errors.Wrap(err, "release outbox")
}

func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE outbox SET status = 'PUBLISHED', published_at = $2, claimed_until = NULL WHERE id = $1
	`, id, publishedAt)
	return err
}
