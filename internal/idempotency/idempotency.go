// Package idempotency replays stored responses for repeated POST requests
// carrying the same Idempotency-Key.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/cockroachdb/errors"
	redisadapter "github.com/robertarktes/party-bookings/internal/adapters/redis"
)

const claimTTL = 30 * time.Second

var (
	// ErrKeyReused means the key was already used with a different request.
	ErrKeyReused = errors.New("idempotency key reused with a different request")
	// ErrInFlight means another request with the same key is being processed.
	ErrInFlight = errors.New("request with this idempotency key is in progress")
)

type Store interface {
	Get(ctx context.Context, key string) (*redisadapter.IdempRecord, error)
	Set(ctx context.Context, key string, rec redisadapter.IdempRecord, ttl time.Duration) error
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type Idempotency struct {
	store Store
	ttl   time.Duration
}

func NewIdempotency(store Store, ttl time.Duration) *Idempotency {
	return &Idempotency{store: store, ttl: ttl}
}

type Response struct {
	Status      int
	Body        []byte
	Fingerprint string
}

// Fingerprint identifies a request by method, path and body.
func Fingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Lookup returns the stored response for key, or nil when there is none.
func (i *Idempotency) Lookup(ctx context.Context, key, fingerprint string) (*Response, error) {
	rec, err := i.store.Get(ctx, key)
	if err != nil || rec == nil {
		return nil, err
	}
	if rec.Fingerprint != fingerprint {
		return nil, ErrKeyReused
	}
	return &Response{Status: rec.Status, Body: rec.Body, Fingerprint: rec.Fingerprint}, nil
}

// Begin claims key for the current request. The returned func drops the
// claim and must be called once the response is saved or abandoned.
func (i *Idempotency) Begin(ctx context.Context, key string) (func(context.Context), error) {
	ok, err := i.store.Claim(ctx, key, claimTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInFlight
	}
	return func(ctx context.Context) {
		_ = i.store.Release(ctx, key)
	}, nil
}

func (i *Idempotency) Save(ctx context.Context, key string, resp Response) error {
	return i.store.Set(ctx, key, redisadapter.IdempRecord{
		Status:      resp.Status,
		Body:        resp.Body,
		Fingerprint: resp.Fingerprint,
	}, i.ttl)
}
