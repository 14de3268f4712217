package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robertarktes/party-bookings/internal/adapters/memory"
	redisadapter "github.com/robertarktes/party-bookings/internal/adapters/redis"
	"github.com/robertarktes/party-bookings/internal/availability"
	"github.com/robertarktes/party-bookings/internal/booking"
	"github.com/robertarktes/party-bookings/internal/bookingform"
	"github.com/robertarktes/party-bookings/internal/client"
	"github.com/robertarktes/party-bookings/internal/config"
	"github.com/robertarktes/party-bookings/internal/content"
	"github.com/robertarktes/party-bookings/internal/domain"
	apihttp "github.com/robertarktes/party-bookings/internal/http"
	"github.com/robertarktes/party-bookings/internal/idempotency"
	"github.com/robertarktes/party-bookings/internal/observability"
	"github.com/robertarktes/party-bookings/internal/rateLimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const token = "client-test-admin-token"

func newAPI(t *testing.T) string {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	cfg := &config.Config{
		TimeSlots:      domain.DefaultSlots,
		WhatsAppNumber: "5491122334455",
		AdminToken:     token,
		IdempotencyTTL: time.Hour,
		RateLimit:      100,
	}
	logger := observability.NewNopLogger()
	store := memory.NewStore()
	bookings, err := booking.NewService(store, booking.Options{Slots: cfg.TimeSlots}, logger)
	require.NoError(t, err)
	h := apihttp.NewHandlers(cfg, bookings,
		availability.NewService(store, cfg.TimeSlots, logger),
		content.NewService(store, logger), logger)
	cache := redisadapter.NewCache(rc)
	router := apihttp.SetupRouter(h, logger, rateLimit.NewRateLimiter(cache),
		idempotency.NewIdempotency(redisadapter.NewIdempotency(rc), time.Hour))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestBookingFlow(t *testing.T) {
	ctx := context.Background()
	c := client.New(newAPI(t), client.WithAdminToken(token))

	slots, err := c.Slots(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSlots, slots)

	created, err := c.CreateBooking(ctx, domain.NewBooking{Date: "2025-12-01", Time: "14:00 - 17:00", KidsCount: 10, AdultsCount: 5, Comments: "piñata"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, created.Booking.Status)
	assert.Contains(t, created.WhatsAppLink, "Comentarios")

	a, err := c.OccupiedSlots(ctx, "2025-12-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"14:00 - 17:00"}, a.Occupied)

	require.NoError(t, c.ChangeStatus(ctx, created.Booking.ID, domain.StatusCancelled))
	got, err := c.GetBooking(ctx, created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Equal(t, "Cancelado", got.StatusLabel)

	a, err = c.OccupiedSlots(ctx, "2025-12-01")
	require.NoError(t, err)
	assert.Empty(t, a.Occupied)

	list, degraded, err := c.ListBookings(ctx, "cancelled", "")
	require.NoError(t, err)
	assert.False(t, degraded)
	require.Len(t, list, 1)

	require.NoError(t, c.Delete(ctx, created.Booking.ID))
	_, err = c.GetBooking(ctx, created.Booking.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestErrors(t *testing.T) {
	ctx := context.Background()
	url := newAPI(t)

	_, err := client.New(url).Create(ctx, domain.NewBooking{Date: "2025-12-01", Time: "nope", KidsCount: 1, AdultsCount: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, _, err = client.New(url, client.WithAdminToken("wrong")).ListBookings(ctx, "", "")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	err = client.New(url).ChangeStatus(ctx, uuid.New(), domain.StatusConfirmed)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestContent(t *testing.T) {
	ctx := context.Background()
	c := client.New(newAPI(t), client.WithAdminToken(token))

	all, err := c.Content(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(content.Keys))

	_, err = c.PutContent(ctx, "gallery", json.RawMessage(`["a.jpg","b.jpg"]`))
	require.NoError(t, err)

	v, err := c.GetContent(ctx, "gallery")
	require.NoError(t, err)
	assert.JSONEq(t, `["a.jpg","b.jpg"]`, string(v))
}

// The form runs unchanged against the remote API.
func TestFormOverHTTP(t *testing.T) {
	ctx := context.Background()
	c := client.New(newAPI(t))
	form := bookingform.New(c, c, bookingform.Options{Phone: "5491122334455"}, observability.NewNopLogger())

	require.NoError(t, form.SetDate(ctx, "2025-12-01"))
	require.NoError(t, form.SelectTime("18:00 - 21:00"))
	b, err := form.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "18:00 - 21:00", b.Time)
	assert.Equal(t, bookingform.Succeeded, form.State())

	form.Modify()
	require.NoError(t, form.SetDate(ctx, "2025-12-01"))
	assert.Equal(t, []string{"18:00 - 21:00"}, form.Occupied())
	assert.ErrorIs(t, form.SelectTime("18:00 - 21:00"), bookingform.ErrSlotOccupied)
}
