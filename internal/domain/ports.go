package domain

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// BookingStore is the bookings half of the persistence gateway.
type BookingStore interface {
	ListBookings(ctx context.Context) ([]Booking, error)
	ListBookingsByDate(ctx context.Context, date string) ([]Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (Booking, error)
	InsertBooking(ctx context.Context, nb NewBooking) (Booking, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status Status) error
	DeleteBooking(ctx context.Context, id uuid.UUID) error
}

// ContentStore is the site content half of the persistence gateway. A missing
// key is reported through the bool, never as an error.
type ContentStore interface {
	GetContent(ctx context.Context, key string) (Content, bool, error)
	UpsertContent(ctx context.Context, key string, value json.RawMessage) (Content, error)
}
