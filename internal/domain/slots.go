package domain

import (
	"time"

	"github.com/cockroachdb/errors"
)

const DateLayout = "2006-01-02"

var DefaultSlots = []string{
	"10:00 - 13:00",
	"14:00 - 17:00",
	"18:00 - 21:00",
}

func ValidDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}

func CheckDate(date string) error {
	if !ValidDate(date) {
		return errors.Wrapf(ErrInvalidInput, "date %q is not in YYYY-MM-DD form", date)
	}
	return nil
}

// OccupiedSlots returns the times held on date by bookings that are not
// cancelled. The result follows the order of slots; times outside slots are
// appended in the order they were found.
func OccupiedSlots(bookings []Booking, date string, slots []string) []string {
	taken := make(map[string]bool)
	var extra []string
	for _, b := range bookings {
		if b.Date != date || !b.Status.Occupies() {
			continue
		}
		if taken[b.Time] {
			continue
		}
		taken[b.Time] = true
		if !ContainsSlot(slots, b.Time) {
			extra = append(extra, b.Time)
		}
	}

	occupied := make([]string, 0, len(taken))
	for _, s := range slots {
		if taken[s] {
			occupied = append(occupied, s)
		}
	}
	return append(occupied, extra...)
}

// FreeSlots returns the slots not present in occupied.
func FreeSlots(slots, occupied []string) []string {
	free := make([]string, 0, len(slots))
	for _, s := range slots {
		if !ContainsSlot(occupied, s) {
			free = append(free, s)
		}
	}
	return free
}

func ContainsSlot(slots []string, slot string) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}
