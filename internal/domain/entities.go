package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	MinGuests = 1
	MaxGuests = 100
)

type Booking struct {
	ID          uuid.UUID `json:"id"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	KidsCount   int       `json:"kidsCount"`
	AdultsCount int       `json:"adultsCount"`
	Comments    string    `json:"comments,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewBooking carries the caller-supplied fields of a booking. ID, status and
// creation time are assigned by the store.
type NewBooking struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"required,slot"`
	KidsCount   int    `json:"kidsCount" validate:"min=1,max=100"`
	AdultsCount int    `json:"adultsCount" validate:"min=1,max=100"`
	Comments    string `json:"comments" validate:"max=1000"`
}

// Content is one editable block of site copy. Value is opaque to the booking core.
type Content struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
	EventBookingDeleted       = "booking.deleted"
)

type BookingEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	BookingID  uuid.UUID `json:"booking_id"`
	Date       string    `json:"date,omitempty"`
	Time       string    `json:"time,omitempty"`
	Status     Status    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b Booking) BookingEvent {
	return BookingEvent{
		ID:         uuid.New(),
		Type:       eventType,
		BookingID:  b.ID,
		Date:       b.Date,
		Time:       b.Time,
		Status:     b.Status,
		OccurredAt: time.Now().UTC(),
	}
}
