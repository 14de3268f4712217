package domain

import (
	"strings"

	"github.com/cockroachdb/errors"
)

type Status uint8

const (
	StatusUnknown Status = iota
	StatusPending
	StatusConfirmed
	StatusCancelled
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusCancelled}

var statusNames = map[Status]string{
	StatusPending:   "pending",
	StatusConfirmed: "confirmed",
	StatusCancelled: "cancelled",
}

// Rows written by the first version of the site used the Spanish values.
var legacyStatusNames = map[string]Status{
	"pendiente":  StatusPending,
	"confirmado": StatusConfirmed,
	"cancelado":  StatusCancelled,
	"canceled":   StatusCancelled,
}

var statusLabels = map[Status]string{
	StatusPending:   "Pendiente",
	StatusConfirmed: "Confirmado",
	StatusCancelled: "Cancelado",
}

func ParseStatus(s string) (Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	if st, ok := legacyStatusNames[s]; ok {
		return st, nil
	}
	return StatusUnknown, errors.Wrapf(ErrInvalidInput, "unknown booking status %q", s)
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Label is the customer-facing name of the status.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return s.String()
}

// Occupies reports whether a booking in this status holds its slot.
func (s Status) Occupies() bool {
	return s != StatusCancelled
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.Wrapf(ErrInvalidInput, "cannot encode booking status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	st, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}
