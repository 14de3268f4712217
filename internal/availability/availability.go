// Package availability answers which slots of a date are already held.
package availability

import (
	"context"

	"github.com/robertarktes/party-bookings/internal/domain"
	"github.com/robertarktes/party-bookings/internal/observability"
)

type BookingLister interface {
	ListBookingsByDate(ctx context.Context, date string) ([]domain.Booking, error)
}

// Availability is the answer for one date. Degraded is set when bookings could
// not be fetched; Occupied is then empty and must not be read as "all free".
type Availability struct {
	Date     string   `json:"date"`
	Occupied []string `json:"occupied"`
	Free     []string `json:"free"`
	Degraded bool     `json:"degraded"`
}

type Service struct {
	store  BookingLister
	slots  []string
	logger observability.Logger
}

func NewService(store BookingLister, slots []string, logger observability.Logger) *Service {
	return &Service{store: store, slots: append([]string(nil), slots...), logger: logger}
}

func (s *Service) Slots() []string {
	return append([]string(nil), s.slots...)
}

func (s *Service) OccupiedSlots(ctx context.Context, date string) (Availability, error) {
	if err := domain.CheckDate(date); err != nil {
		return Availability{}, err
	}

	bookings, err := s.store.ListBookingsByDate(ctx, date)
	if err != nil {
		s.logger.WithField("date", date).WithError(err).Warn("availability: fetching bookings failed")
		observability.AvailabilityDegraded.Inc()
		return Availability{Date: date, Occupied: []string{}, Free: s.Slots(), Degraded: true}, nil
	}

	occupied := domain.OccupiedSlots(bookings, date, s.slots)
	return Availability{
		Date:     date,
		Occupied: occupied,
		Free:     domain.FreeSlots(s.slots, occupied),
	}, nil
}
