package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/party-bookings/internal/domain"
	"github.com/robertarktes/party-bookings/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

type AuditLog struct {
	ID         string    `bson:"_id"`
	Action     string    `bson:"action"`
	BookingID  string    `bson:"booking_id"`
	Timestamp  time.Time `bson:"timestamp"`
	RecordedAt time.Time `bson:"recorded_at"`
	Data       bson.M    `bson:"data"`
}

// LogEvent stores one booking event. The event id is the document id, so a
// redelivered event is recorded once.
func (a *AuditLogger) LogEvent(ctx context.Context, ev domain.BookingEvent) error {
	data := bson.M{
		"date": ev.Date,
		"time": ev.Time,
	}
	if ev.Status.Valid() {
		data["status"] = ev.Status.String()
	}
	log := AuditLog{
		ID:         ev.ID.String(),
		Action:     ev.Type,
		BookingID:  ev.BookingID.String(),
		Timestamp:  ev.OccurredAt,
		RecordedAt: time.Now().UTC(),
		Data:       data,
	}
	_, err := a.coll.InsertOne(ctx, log)
	if mongo.IsDuplicateKeyError(err) {
		a.logger.WithField("event_id", log.ID).Debug("audit event already recorded")
		return nil
	}
	if err != nil {
		a.logger.WithError(err).Error("failed to insert audit log")
		return errors.Wrap(err, "insert audit log")
	}
	return nil
}

// History returns the recorded events of a booking, oldest first.
func (a *AuditLogger) History(ctx context.Context, bookingID uuid.UUID) ([]AuditLog, error) {
	cur, err := a.coll.Find(ctx,
		bson.M{"booking_id": bookingID.String()},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "find audit logs")
	}
	var logs []AuditLog
	if err := cur.All(ctx, &logs); err != nil {
		return nil, errors.Wrap(err, "decode audit logs")
	}
	return logs, nil
}
