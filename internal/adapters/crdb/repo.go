package crdb

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/party-bookings/internal/domain"
	"github.com/robertarktes/party-bookings/internal/observability"
)

const (
	SerializationFailureCode = "40001"
	UniqueViolationCode      = "23505"
)

const bookingColumns = `id, "date", "time", kids_count, adults_count, COALESCE(comments, ''), status, created_at`

// OutboxLease is how long a relay owns the outbox records it claimed.
const OutboxLease = time.Minute

type Repository struct {
	pool        *pgxpool.Pool
	outboxLease time.Duration
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, outboxLease: OutboxLease}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	defer func() { observability.DBTxDuration.Observe(time.Since(start).Seconds()) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return mapPgError(err)
	}

	return mapPgError(tx.Commit(ctx))
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case SerializationFailureCode:
			return errors.Mark(err, domain.ErrSerializationFailure)
		case UniqueViolationCode:
			return errors.Mark(err, domain.ErrConflict)
		}
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (domain.Booking, error) {
	var (
		b      domain.Booking
		status string
	)
	if err := row.Scan(&b.ID, &b.Date, &b.Time, &b.KidsCount, &b.AdultsCount, &b.Comments, &status, &b.CreatedAt); err != nil {
		return domain.Booking{}, err
	}
	st, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Booking{}, errors.Wrapf(err, "booking %s", b.ID)
	}
	b.Status = st
	return b, nil
}

func (r *Repository) queryBookings(ctx context.Context, sql string, args ...any) ([]domain.Booking, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query bookings")
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *Repository) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	return r.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC`)
}

func (r *Repository) ListBookingsByDate(ctx context.Context, date string) ([]domain.Booking, error) {
	return r.queryBookings(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE "date" = $1 ORDER BY created_at DESC
	`, date)
}

func (r *Repository) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, err
}

func (r *Repository) InsertBooking(ctx context.Context, nb domain.NewBooking) (domain.Booking, error) {
	var b domain.Booking
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		b, err = scanBooking(tx.QueryRow(ctx, `
			INSERT INTO bookings ("date", "time", kids_count, adults_count, comments, status)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
			RETURNING `+bookingColumns,
			nb.Date, nb.Time, nb.KidsCount, nb.AdultsCount, nb.Comments, domain.StatusPending.String()))
		if err != nil {
			return err
		}
		return r.InsertOutbox(ctx, tx, NewOutboxRecord(domain.NewBookingEvent(domain.EventBookingCreated, b)))
	})
	if err != nil {
		return domain.Booking{}, errors.Wrap(err, "insert booking")
	}
	return b, nil
}

// UpdateBookingStatus does not report a missing id; the update is simply a no-op.
func (r *Repository) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		b, err := scanBooking(tx.QueryRow(ctx, `
			UPDATE bookings SET status = $2 WHERE id = $1
			RETURNING `+bookingColumns, id, status.String()))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		return r.InsertOutbox(ctx, tx, NewOutboxRecord(domain.NewBookingEvent(domain.EventBookingStatusChanged, b)))
	})
	return errors.Wrapf(err, "update booking %s status", id)
}

func (r *Repository) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		b, err := scanBooking(tx.QueryRow(ctx, `
			DELETE FROM bookings WHERE id = $1
			RETURNING `+bookingColumns, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		return r.InsertOutbox(ctx, tx, NewOutboxRecord(domain.NewBookingEvent(domain.EventBookingDeleted, b)))
	})
	return errors.Wrapf(err, "delete booking %s", id)
}
