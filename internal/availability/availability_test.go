package availability_test

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/party-bookings/internal/adapters/memory"
	"github.com/robertarktes/party-bookings/internal/availability"
	"github.com/robertarktes/party-bookings/internal/domain"
	"github.com/robertarktes/party-bookings/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLister struct{}

func (failingLister) ListBookingsByDate(context.Context, string) ([]domain.Booking, error) {
	return nil, errors.New("connection refused")
}

func seed(t *testing.T, store *memory.Store, date, slot string, status domain.Status) domain.Booking {
	t.Helper()
	ctx := context.Background()
	b, err := store.InsertBooking(ctx, domain.NewBooking{Date: date, Time: slot, KidsCount: 1, AdultsCount: 1})
	require.NoError(t, err)
	if status != domain.StatusPending {
		require.NoError(t, store.UpdateBookingStatus(ctx, b.ID, status))
		b.Status = status
	}
	return b
}

func TestOccupiedSlots(t *testing.T) {
	store := memory.NewStore()
	slots := domain.DefaultSlots
	svc := availability.NewService(store, slots, observability.NewNopLogger())
	ctx := context.Background()

	pending := seed(t, store, "2025-12-01", slots[0], domain.StatusPending)
	confirmed := seed(t, store, "2025-12-01", slots[2], domain.StatusConfirmed)
	cancelled := seed(t, store, "2025-12-01", slots[1], domain.StatusCancelled)
	seed(t, store, "2025-12-02", slots[1], domain.StatusPending)

	got, err := svc.OccupiedSlots(ctx, "2025-12-01")
	require.NoError(t, err)
	assert.False(t, got.Degraded)
	assert.Contains(t, got.Occupied, pending.Time)
	assert.Contains(t, got.Occupied, confirmed.Time)
	assert.NotContains(t, got.Occupied, cancelled.Time)
	assert.Equal(t, []string{slots[1]}, got.Free)

	again, err := svc.OccupiedSlots(ctx, "2025-12-01")
	require.NoError(t, err)
	assert.Equal(t, got, again)

	empty, err := svc.OccupiedSlots(ctx, "2025-12-03")
	require.NoError(t, err)
	assert.Empty(t, empty.Occupied)
	assert.Equal(t, slots, empty.Free)
}

func TestOccupiedSlotsReopenedBooking(t *testing.T) {
	store := memory.NewStore()
	svc := availability.NewService(store, domain.DefaultSlots, observability.NewNopLogger())
	ctx := context.Background()

	b := seed(t, store, "2025-12-01", domain.DefaultSlots[0], domain.StatusCancelled)
	got, err := svc.OccupiedSlots(ctx, b.Date)
	require.NoError(t, err)
	assert.Empty(t, got.Occupied)

	require.NoError(t, store.UpdateBookingStatus(ctx, b.ID, domain.StatusPending))
	got, err = svc.OccupiedSlots(ctx, b.Date)
	require.NoError(t, err)
	assert.Equal(t, []string{b.Time}, got.Occupied)
}

func TestOccupiedSlotsDegraded(t *testing.T) {
	svc := availability.NewService(failingLister{}, domain.DefaultSlots, observability.NewNopLogger())

	got, err := svc.OccupiedSlots(context.Background(), "2025-12-01")
	require.NoError(t, err)
	assert.True(t, got.Degraded)
	assert.Empty(t, got.Occupied)
}

func TestOccupiedSlotsInvalidDate(t *testing.T) {
	svc := availability.NewService(memory.NewStore(), domain.DefaultSlots, observability.NewNopLogger())

	_, err := svc.OccupiedSlots(context.Background(), "tomorrow")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
