// Package outbox relays booking events written next to booking rows to the
// message broker.
package outbox

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/party-bookings/internal/adapters/crdb"
	"github.com/robertarktes/party-bookings/internal/observability"
)

const defaultBatch = 50

// Source hands out outbox records under a lease, so several relays can run
// against the same table without publishing a record twice.
type Source interface {
	ClaimOutbox(ctx context.Context, limit int) ([]crdb.OutboxRecord, error)
	ReleaseOutbox(ctx context.Context, ids []uuid.UUID) error
	MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error
}

type Sink interface {
	Publish(ctx context.Context, key string, msg amqp.Publishing) error
}

type Publisher struct {
	source   Source
	sink     Sink
	retry    RetryPolicy
	interval time.Duration
	batch    int
	logger   observability.Logger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func NewPublisher(source Source, sink Sink, interval time.Duration, retry RetryPolicy, logger observability.Logger) *Publisher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Publisher{
		source:   source,
		sink:     sink,
		retry:    retry,
		interval: interval,
		batch:    defaultBatch,
		logger:   logger,
		now:      time.Now,
		sleep:    sleep,
	}
}

// Run relays pending events every interval until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.RunOnce(ctx)
			if err != nil && ctx.Err() == nil {
				p.logger.WithError(err).Error("outbox pass failed")
			}
			if n > 0 {
				p.logger.WithField("published", n).Debug("outbox pass")
			}
		}
	}
}

// RunOnce publishes one batch in creation order. A record that still fails
// after all retries ends the pass so later events are not sent ahead of it.
func (p *Publisher) RunOnce(ctx context.Context) (int, error) {
	records, err := p.source.ClaimOutbox(ctx, p.batch)
	if err != nil {
		return 0, errors.Wrap(err, "claim outbox")
	}

	published := 0
	for i, rec := range records {
		if err := p.publish(ctx, rec); err != nil {
			p.release(ctx, records[i:])
			return published, errors.Wrapf(err, "publish %s %s", rec.EventType, rec.ID)
		}
		now := p.now()
		if err := p.source.MarkPublished(ctx, rec.ID, now); err != nil {
			p.release(ctx, records[i+1:])
			return published, errors.Wrapf(err, "mark %s published", rec.ID)
		}
		if !rec.CreatedAt.IsZero() {
			observability.OutboxLag.Set(now.Sub(rec.CreatedAt).Seconds())
		}
		published++
	}
	return published, nil
}

// release hands unsent records back early; on failure the lease expires instead.
func (p *Publisher) release(ctx context.Context, records []crdb.OutboxRecord) {
	if len(records) == 0 {
		return
	}
	ids := make([]uuid.UUID, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	if err := p.source.ReleaseOutbox(context.WithoutCancel(ctx), ids); err != nil {
		p.logger.WithError(err).Warn("release outbox claims")
	}
}

func (p *Publisher) publish(ctx context.Context, rec crdb.OutboxRecord) error {
	msg := amqp.Publishing{
		MessageId:    rec.DedupeKey,
		Type:         rec.EventType,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    rec.CreatedAt,
		Body:         rec.Payload,
	}

	var err error
	for attempt := 0; attempt <= p.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			observability.RabbitPublishRetries.Inc()
			p.logger.WithField("event_id", rec.ID).WithField("attempt", attempt).WithError(err).Warn("retrying publish")
			if serr := p.sleep(ctx, p.retry.NextDelay(attempt)); serr != nil {
				return serr
			}
		}
		if err = p.sink.Publish(ctx, rec.EventType, msg); err == nil {
			return nil
		}
	}
	return err
}
