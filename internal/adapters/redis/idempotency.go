package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

const (
	idempPrefix     = "idemp:"
	idempLockPrefix = "idemp-lock:"
)

type Idempotency struct {
	client *redis.Client
}

func NewIdempotency(client *redis.Client) *Idempotency {
	return &Idempotency{client: client}
}

// IdempRecord is a stored response keyed by Idempotency-Key. Fingerprint
// identifies the request body that produced it.
type IdempRecord struct {
	Status      int    `json:"status"`
	Body        []byte `json:"body"`
	Fingerprint string `json:"fingerprint"`
}

func (i *Idempotency) Get(ctx context.Context, key string) (*IdempRecord, error) {
	val, err := i.client.Get(ctx, idempPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get idempotency record")
	}
	var rec IdempRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, errors.Wrap(err, "decode idempotency record")
	}
	return &rec, nil
}

func (i *Idempotency) Set(ctx context.Context, key string, rec IdempRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encode idempotency record")
	}
	return errors.Wrap(i.client.Set(ctx, idempPrefix+key, data, ttl).Err(), "set idempotency record")
}

// Claim marks key as in flight. It reports false when another request with
// the same key holds the claim.
func (i *Idempotency) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := i.client.SetNX(ctx, idempLockPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "claim idempotency key")
	}
	return ok, nil
}

func (i *Idempotency) Release(ctx context.Context, key string) error {
	return errors.Wrap(i.client.Del(ctx, idempLockPrefix+key).Err(), "release idempotency key")
}
