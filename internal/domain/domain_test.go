package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/party-bookings/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func booking(date, slot string, status domain.Status) domain.Booking {
	return domain.Booking{ID: uuid.New(), Date: date, Time: slot, KidsCount: 1, AdultsCount: 1, Status: status}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]domain.Status{
		"pending":    domain.StatusPending,
		"CONFIRMED":  domain.StatusConfirmed,
		" cancelled": domain.StatusCancelled,
		"pendiente":  domain.StatusPending,
		"confirmado": domain.StatusConfirmed,
		"cancelado":  domain.StatusCancelled,
	}
	for in, want := range cases {
		got, err := domain.ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := domain.ParseStatus("archived")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestStatusJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		S domain.Status `json:"s"`
	}{domain.StatusConfirmed})
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":"confirmed"}`, string(data))

	var out struct {
		S domain.Status `json:"s"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"s":"cancelado"}`), &out))
	assert.Equal(t, domain.StatusCancelled, out.S)

	assert.Error(t, json.Unmarshal([]byte(`{"s":"done"}`), &out))
	_, err = json.Marshal(struct{ S domain.Status }{domain.StatusUnknown})
	assert.Error(t, err)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Pendiente", domain.StatusPending.Label())
	assert.Equal(t, "Confirmado", domain.StatusConfirmed.Label())
	assert.Equal(t, "Cancelado", domain.StatusCancelled.Label())
}

func TestOccupiedSlots(t *testing.T) {
	slots := domain.DefaultSlots
	bookings := []domain.Booking{
		booking("2025-12-01", slots[2], domain.StatusPending),
		booking("2025-12-01", slots[0], domain.StatusConfirmed),
		booking("2025-12-01", slots[1], domain.StatusCancelled),
		booking("2025-12-02", slots[1], domain.StatusPending),
		booking("2025-12-01", slots[0], domain.StatusPending),
	}

	t.Run("excludes cancelled and other dates", func(t *testing.T) {
		got := domain.OccupiedSlots(bookings, "2025-12-01", slots)
		assert.Equal(t, []string{slots[0], slots[2]}, got)
		assert.NotContains(t, got, slots[1])
	})

	t.Run("every active booking occupies its slot", func(t *testing.T) {
		for _, b := range bookings {
			got := domain.OccupiedSlots(bookings, b.Date, slots)
			if b.Status == domain.StatusCancelled {
				continue
			}
			assert.Contains(t, got, b.Time)
		}
	})

	t.Run("same input same answer", func(t *testing.T) {
		first := domain.OccupiedSlots(bookings, "2025-12-01", slots)
		second := domain.OccupiedSlots(bookings, "2025-12-01", slots)
		assert.Equal(t, first, second)
	})

	t.Run("unknown times are still reported", func(t *testing.T) {
		odd := append(bookings, booking("2025-12-01", "09:00 - 10:00", domain.StatusPending))
		got := domain.OccupiedSlots(odd, "2025-12-01", slots)
		assert.Equal(t, []string{slots[0], slots[2], "09:00 - 10:00"}, got)
	})

	t.Run("free slots", func(t *testing.T) {
		occupied := domain.OccupiedSlots(bookings, "2025-12-01", slots)
		assert.Equal(t, []string{slots[1]}, domain.FreeSlots(slots, occupied))
	})
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "lunes, 1 de diciembre de 2025", domain.FormatDate("2025-12-01"))
	assert.Equal(t, "sábado, 14 de febrero de 2026", domain.FormatDate("2026-02-14"))
	assert.Equal(t, "mañana", domain.FormatDate("mañana"))
}

func TestCheckDate(t *testing.T) {
	assert.NoError(t, domain.CheckDate("2025-12-01"))
	assert.True(t, errors.Is(domain.CheckDate("01/12/2025"), domain.ErrInvalidInput))
	assert.True(t, errors.Is(domain.CheckDate("2025-13-01"), domain.ErrInvalidInput))
}
