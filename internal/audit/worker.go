// Package audit stores every booking event received from the broker.
package audit

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/party-bookings/internal/domain"
	"github.com/robertarktes/party-bookings/internal/observability"
)

type Sink interface {
	LogEvent(ctx context.Context, ev domain.BookingEvent) error
}

type Worker struct {
	sink   Sink
	logger observability.Logger
}

func NewWorker(sink Sink, logger observability.Logger) *Worker {
	return &Worker{sink: sink, logger: logger}
}

// Run handles deliveries until ctx is done or the channel closes.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				w.logger.Warn("delivery channel closed")
				return
			}
			w.Handle(ctx, d)
		}
	}
}

// Handle acks stored and undecodable events and requeues events that could
// not be stored.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) {
	log := w.logger.WithField("message_id", d.MessageId).WithField("routing_key", d.RoutingKey)

	var ev domain.BookingEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		log.WithError(err).Error("dropping undecodable event")
		_ = d.Nack(false, false)
		return
	}
	if err := w.sink.LogEvent(ctx, ev); err != nil {
		log.WithError(err).Warn("audit write failed, requeueing")
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}
