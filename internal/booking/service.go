// Package booking implements the booking lifecycle: creation in pending state,
// free transitions between pending, confirmed and cancelled, and deletion.
package booking

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/party-bookings/internal/domain"
	"github.com/robertarktes/party-bookings/internal/observability"
)

// SlotLocker serializes creation per (date, slot). A nil release func means
// the lock is held elsewhere.
type SlotLocker interface {
	AcquireSlot(ctx context.Context, date, slot string, ttl time.Duration) (func(context.Context), error)
}

type Options struct {
	Slots []string
	// Exclusive rejects a booking whose slot is already held by an active
	// booking. Without it two bookers may both win the same slot.
	Exclusive bool
	Locker    SlotLocker
	LockTTL   time.Duration
}

type Service struct {
	store     domain.BookingStore
	validator *requestValidator
	opts      Options
	logger    observability.Logger
}

func NewService(store domain.BookingStore, opts Options, logger observability.Logger) (*Service, error) {
	if len(opts.Slots) == 0 {
		opts.Slots = domain.DefaultSlots
	}
	if opts.Exclusive && opts.Locker == nil {
		return nil, errors.New("exclusive booking policy needs a slot locker")
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Second
	}
	v, err := newRequestValidator(opts.Slots)
	if err != nil {
		return nil, err
	}
	return &Service{store: store, validator: v, opts: opts, logger: logger}, nil
}

func (s *Service) policy() string {
	if s.opts.Exclusive {
		return "exclusive"
	}
	return "shared"
}

func (s *Service) Create(ctx context.Context, nb domain.NewBooking) (domain.Booking, error) {
	nb.Date = strings.TrimSpace(nb.Date)
	nb.Comments = strings.TrimSpace(nb.Comments)
	if err := s.validator.check(nb); err != nil {
		return domain.Booking{}, err
	}

	log := s.logger.WithField("date", nb.Date).WithField("time", nb.Time)

	if s.opts.Exclusive {
		release, err := s.opts.Locker.AcquireSlot(ctx, nb.Date, nb.Time, s.opts.LockTTL)
		if err != nil {
			return domain.Booking{}, errors.Wrap(err, "acquire slot lock")
		}
		if release == nil {
			observability.BookingConflicts.Inc()
			return domain.Booking{}, errors.Wrapf(domain.ErrConflict, "slot %s %s is being booked", nb.Date, nb.Time)
		}
		defer release(context.WithoutCancel(ctx))

		existing, err := s.store.ListBookingsByDate(ctx, nb.Date)
		if err != nil {
			return domain.Booking{}, errors.Wrap(err, "check slot occupancy")
		}
		if domain.ContainsSlot(domain.OccupiedSlots(existing, nb.Date, s.opts.Slots), nb.Time) {
			observability.BookingConflicts.Inc()
			return domain.Booking{}, errors.Wrapf(domain.ErrConflict, "slot %s %s is taken", nb.Date, nb.Time)
		}
	}

	b, err := s.store.InsertBooking(ctx, nb)
	if err != nil {
		log.WithError(err).Error("booking insert failed")
		return domain.Booking{}, err
	}
	observability.BookingsCreated.WithLabelValues(s.policy()).Inc()
	log.WithField("booking_id", b.ID).Info("booking created")
	return b, nil
}

// ChangeStatus moves a booking to any status. Transitions are not restricted
// and a missing id is not reported.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	if !status.Valid() {
		return errors.Wrapf(domain.ErrInvalidInput, "invalid status %d", uint8(status))
	}
	if s.opts.Exclusive && status.Occupies() {
		s.warnIfSlotRetaken(ctx, id)
	}
	if err := s.store.UpdateBookingStatus(ctx, id, status); err != nil {
		s.logger.WithField("booking_id", id).WithError(err).Error("status change failed")
		return err
	}
	observability.StatusChanges.WithLabelValues(status.String()).Inc()
	s.logger.WithField("booking_id", id).WithField("status", status.String()).Info("booking status changed")
	return nil
}

func (s *Service) warnIfSlotRetaken(ctx context.Context, id uuid.UUID) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil || b.Status.Occupies() {
		return
	}
	others, err := s.store.ListBookingsByDate(ctx, b.Date)
	if err != nil {
		return
	}
	for _, o := range others {
		if o.ID != id && o.Time == b.Time && o.Status.Occupies() {
			s.logger.WithField("booking_id", id).WithField("held_by", o.ID).
				Warn("reopened booking shares its slot with an active booking")
			return
		}
	}
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteBooking(ctx, id); err != nil {
		s.logger.WithField("booking_id", id).WithError(err).Error("booking delete failed")
		return err
	}
	s.logger.WithField("booking_id", id).Info("booking deleted")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

// Filter narrows the admin listing. A zero Status keeps every status; Query
// matches a substring of the date or, case-insensitively, of the comments.
type Filter struct {
	Status domain.Status
	Query  string
}

func (f Filter) match(b domain.Booking) bool {
	if f.Status != domain.StatusUnknown && b.Status != f.Status {
		return false
	}
	q := strings.TrimSpace(f.Query)
	if q == "" {
		return true
	}
	return strings.Contains(b.Date, q) || strings.Contains(strings.ToLower(b.Comments), strings.ToLower(q))
}

// List returns bookings newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]domain.Booking, error) {
	all, err := s.store.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0, len(all))
	for _, b := range all {
		if f.match(b) {
			out = append(out, b)
		}
	}
	return out, nil
}
