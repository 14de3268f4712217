package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/party-bookings/internal/domain"
)

type bookingRow struct {
	booking domain.Booking
	seq     uint64
}

// Store keeps bookings and site content in process memory. It is used for
// local runs (STORE=memory) and tests.
type Store struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*bookingRow
	content  map[string]domain.Content
	events   []domain.BookingEvent
	seq      uint64
}

func NewStore() *Store {
	return &Store{
		bookings: make(map[uuid.UUID]*bookingRow),
		content:  make(map[string]domain.Content),
	}
}

func (s *Store) sorted(keep func(domain.Booking) bool) []domain.Booking {
	rows := make([]*bookingRow, 0, len(s.bookings))
	for _, row := range s.bookings {
		if keep(row.booking) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].booking.CreatedAt.Equal(rows[j].booking.CreatedAt) {
			return rows[i].booking.CreatedAt.After(rows[j].booking.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	out := make([]domain.Booking, len(rows))
	for i, row := range rows {
		out[i] = row.booking
	}
	return out
}

func (s *Store) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(domain.Booking) bool { return true }), nil
}

func (s *Store) ListBookingsByDate(ctx context.Context, date string) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(b domain.Booking) bool { return b.Date == date }), nil
}

func (s *Store) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, errors.Wrapf(domain.ErrNotFound, "booking %s", id)
	}
	return row.booking, nil
}

func (s *Store) InsertBooking(ctx context.Context, nb domain.NewBooking) (domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return domain.Booking{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	b := domain.Booking{
		ID:          uuid.New(),
		Date:        nb.Date,
		Time:        nb.Time,
		KidsCount:   nb.KidsCount,
		AdultsCount: nb.AdultsCount,
		Comments:    nb.Comments,
		Status:      domain.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	s.bookings[b.ID] = &bookingRow{booking: b, seq: s.seq}
	s.events = append(s.events, domain.NewBookingEvent(domain.EventBookingCreated, b))
	return b, nil
}

func (s *Store) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.bookings[id]
	if !ok {
		return nil
	}
	row.booking.Status = status
	s.events = append(s.events, domain.NewBookingEvent(domain.EventBookingStatusChanged, row.booking))
	return nil
}

func (s *Store) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.bookings[id]
	if !ok {
		return nil
	}
	delete(s.bookings, id)
	s.events = append(s.events, domain.NewBookingEvent(domain.EventBookingDeleted, row.booking))
	return nil
}

// Events returns the booking events recorded so far.
func (s *Store) Events() []domain.BookingEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.BookingEvent(nil), s.events...)
}

func (s *Store) GetContent(ctx context.Context, key string) (domain.Content, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.content[key]
	return c, ok, nil
}

func (s *Store) UpsertContent(ctx context.Context, key string, value json.RawMessage) (domain.Content, error) {
	if !json.Valid(value) {
		return domain.Content{}, errors.Wrapf(domain.ErrInvalidInput, "content %q is not valid JSON", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := domain.Content{
		Key:       key,
		Value:     append(json.RawMessage(nil), value...),
		UpdatedAt: time.Now().UTC(),
	}
	s.content[key] = c
	return c, nil
}
