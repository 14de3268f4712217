package mongo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/party-bookings/internal/domain"
	"github.com/robertarktes/party-bookings/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ContentRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewContentRepository(db *mongo.Database, logger observability.Logger) *ContentRepository {
	return &ContentRepository{
		coll:   db.Collection("site_content"),
		logger: logger,
	}
}

// ContentDoc keeps the value as the JSON text it was written with, so keys
// such as "$numberLong" and large integers come back untouched.
type ContentDoc struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (c *ContentRepository) GetContent(ctx context.Context, key string) (domain.Content, bool, error) {
	var doc ContentDoc
	err := c.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		c.logger.WithField("key", key).Debug("content not found")
		return domain.Content{}, false, nil
	}
	if err != nil {
		c.logger.WithField("key", key).WithError(err).Error("failed to get content")
		return domain.Content{}, false, errors.Wrapf(err, "get content %q", key)
	}
	if !json.Valid([]byte(doc.Value)) {
		return domain.Content{}, false, errors.Newf("stored content %q is not valid JSON", key)
	}
	return domain.Content{Key: doc.Key, Value: json.RawMessage(doc.Value), UpdatedAt: doc.UpdatedAt}, true, nil
}

func (c *ContentRepository) UpsertContent(ctx context.Context, key string, value json.RawMessage) (domain.Content, error) {
	if !json.Valid(value) {
		return domain.Content{}, errors.Wrapf(domain.ErrInvalidInput, "content %q is not valid JSON", key)
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	_, err := c.coll.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": string(value), "updated_at": now}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		c.logger.WithField("key", key).WithError(err).Error("failed to upsert content")
		return domain.Content{}, errors.Wrapf(err, "upsert content %q", key)
	}
	return domain.Content{Key: key, Value: value, UpdatedAt: now}, nil
}
