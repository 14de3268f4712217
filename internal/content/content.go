// Package content keeps the site content blocks in memory. The blocks are
// fetched once at startup and handed to whoever renders them.
package content

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/party-bookings/internal/domain"
	"github.com/robertarktes/party-bookings/internal/observability"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	store  domain.ContentStore
	logger observability.Logger

	mu     sync.RWMutex
	values map[string]json.RawMessage
}

func NewService(store domain.ContentStore, logger observability.Logger) *Service {
	return &Service{store: store, logger: logger, values: make(map[string]json.RawMessage)}
}

// Load fetches every known key in parallel. A key that is absent or fails to
// load keeps its built-in default; fetch failures are only logged.
func (s *Service) Load(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, key := range Keys {
		key := key
		g.Go(func() error {
			c, ok, err := s.store.GetContent(ctx, key)
			switch {
			case err != nil:
				s.logger.WithField("key", key).WithError(err).Warn("content fetch failed, using default")
			case !ok:
				s.logger.WithField("key", key).Debug("content absent, using default")
			default:
				s.set(key, c.Value)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) set(key string, v json.RawMessage) {
	s.mu.Lock()
	s.values[key] = v
	s.mu.Unlock()
}

// Get returns the loaded value for key, falling back to the default.
func (s *Service) Get(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if ok {
		return v, true
	}
	return Default(key)
}

// All returns every known key plus any extra key written since startup.
func (s *Service) All() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(Keys))
	for _, key := range Keys {
		if v, ok := Default(key); ok {
			out[key] = v
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Upsert writes through to the store and refreshes the in-memory copy.
func (s *Service) Upsert(ctx context.Context, key string, value json.RawMessage) (domain.Content, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.Content{}, errors.Wrap(domain.ErrInvalidInput, "content key is required")
	}
	if !json.Valid(value) {
		return domain.Content{}, errors.Wrapf(domain.ErrInvalidInput, "content %q is not valid JSON", key)
	}
	c, err := s.store.UpsertContent(ctx, key, value)
	if err != nil {
		s.logger.WithField("key", key).WithError(err).Error("content upsert failed")
		return domain.Content{}, err
	}
	s.set(key, c.Value)
	s.logger.WithField("key", key).Info("content updated")
	return c, nil
}

// Seed writes the default value of every known key that is missing from the
// store. Existing values are left alone.
func (s *Service) Seed(ctx context.Context) error {
	for _, key := range Keys {
		_, ok, err := s.store.GetContent(ctx, key)
		if err != nil {
			return errors.Wrapf(err, "seed %s", key)
		}
		if ok {
			continue
		}
		def, _ := Default(key)
		if _, err := s.store.UpsertContent(ctx, key, def); err != nil {
			return errors.Wrapf(err, "seed %s", key)
		}
		s.logger.WithField("key", key).Info("content seeded")
	}
	return nil
}
