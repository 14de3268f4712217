package http

import (
	"bytes"
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
	"github.com/robertarktes/party-bookings/internal/config"
	"github.com/robertarktes/party-bookings/internal/content"
	"github.com/robertarktes/party-bookings/internal/domain"
	"github.com/robertarktes/party-bookings/internal/idempotency"
	"github.com/robertarktes/party-bookings/internal/observability"
	"github.com/robertarktes/party-bookings/internal/rateLimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminToken = "s3cret-admin-token"

type testServer struct {
	handler  http.Handler
	store    *memory.Store
	handlers *Handlers
	redis    *miniredis.Miniredis
}

func newTestServer(t *testing.T, mutate func(*config.Config)) testServer {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{
		Store:          config.StoreMemory,
		BookingPolicy:  config.PolicyShared,
		TimeSlots:      domain.DefaultSlots,
		WhatsAppNumber: "5491122334455",
		AdminToken:     adminToken,
		IdempotencyTTL: time.Hour,
		RateLimit:      100,
		SlotLockTTL:    5 * time.Second,
	}
	if mutate != nil {
		mutate(cfg)
	}

	logger := observability.NewNopLogger()
	cache := redisadapter.NewCache(client)
	store := memory.NewStore()
	bookings, err := booking.NewService(store, booking.Options{
		Slots:     cfg.TimeSlots,
		Exclusive: cfg.Exclusive(),
		Locker:    cache,
		LockTTL:   cfg.SlotLockTTL,
	}, logger)
	require.NoError(t, err)

	h := NewHandlers(cfg, bookings,
		availability.NewService(store, cfg.TimeSlots, logger),
		content.NewService(store, logger),
		logger)
	router := SetupRouter(h, logger,
		rateLimit.NewRateLimiter(cache),
		idempotency.NewIdempotency(redisadapter.NewIdempotency(client), cfg.IdempotencyTTL))
	return testServer{handler: router, store: store, handlers: h, redis: s}
}

func (s testServer) do(t *testing.T, method, path string, body interface{}, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func idemKey() map[string]string {
	return map[string]string{"Idempotency-Key": uuid.NewString()}
}

func admin() map[string]string {
	return map[string]string{"Authorization": "Bearer " + adminToken}
}

var partyRequest = domain.NewBooking{Date: "2025-12-01", Time: "10:00 - 13:00", KidsCount: 3, AdultsCount: 2}

func TestCreateBooking(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/v1/bookings", partyRequest, idemKey())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp CreateBookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.StatusPending, resp.Booking.Status)
	assert.Equal(t, "10:00 - 13:00", resp.Booking.Time)
	assert.Contains(t, resp.WhatsAppLink, "https://wa.me/5491122334455?text=Hola!%20Quiero%20confirmar")
	assert.NotContains(t, resp.WhatsAppLink, "Comentarios")

	rec = srv.do(t, http.MethodGet, "/v1/availability?date=2025-12-01", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var avail availability.Availability
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &avail))
	assert.Equal(t, []string{"10:00 - 13:00"}, avail.Occupied)
	assert.Equal(t, []string{"14:00 - 17:00", "18:00 - 21:00"}, avail.Free)
	assert.False(t, avail.Degraded)
}

func TestCreateBookingWithoutRedis(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.redis.Close()

	rec := srv.do(t, http.MethodPost, "/v1/bookings", partyRequest, idemKey())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	list, err := srv.store.ListBookings(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateBookingValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/v1/bookings", domain.NewBooking{Date: "2025-12-01", KidsCount: 1, AdultsCount: 1}, idemKey())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPost, "/v1/bookings", `{"date":`, idemKey())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPost, "/v1/bookings", partyRequest, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPost, "/v1/bookings", partyRequest, map[string]string{"Idempotency-Key": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/v1/availability?date=tomorrow", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingIdempotent(t *testing.T) {
	srv := newTestServer(t, nil)
	key := idemKey()

	first := srv.do(t, http.MethodPost, "/v1/bookings", partyRequest, key)
	require.Equal(t, http.StatusCreated, first.Code)

	second := srv.do(t, http.MethodPost, "/v1/bookings", partyRequest, key)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	all, err := srv.store.ListBookings(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	other := partyRequest
	other.KidsCount = 9
	rec := srv.do(t, http.MethodPost, "/v1/bookings", other, key)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDoubleBookingPolicies(t *testing.T) {
	t.Run("shared", func(t *testing.T) {
		srv := newTestServer(t, nil)
		assert.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/v1/bookings", partyRequest, idemKey()).Code)
		assert.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/v1/bookings", partyRequest, idemKey()).Code)
	})
	t.Run("exclusive", func(t *testing.T) {
		srv := newTestServer(t, func(c *config.Config) { c.BookingPolicy = config.PolicyExclusive })
		assert.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/v1/bookings", partyRequest, idemKey()).Code)
		assert.Equal(t, http.StatusConflict, srv.do(t, http.MethodPost, "/v1/bookings", partyRequest, idemKey()).Code)
	})
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.RateLimit = 2 })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/v1/bookings", partyRequest, idemKey()).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, srv.do(t, http.MethodPost, "/v1/bookings", partyRequest, idemKey()).Code)

	// reads are not limited
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/v1/slots", nil, nil).Code)
}

func TestAdminBookings(t *testing.T) {
	srv := newTestServer(t, nil)
	ctx := context.Background()

	b, err := srv.store.InsertBooking(ctx, domain.NewBooking{Date: "2025-12-01", Time: "14:00 - 17:00", KidsCount: 10, AdultsCount: 5, Comments: "piñata"})
	require.NoError(t, err)
	_, err = srv.store.InsertBooking(ctx, domain.NewBooking{Date: "2025-12-20", Time: "10:00 - 13:00", KidsCount: 1, AdultsCount: 1})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/v1/admin/bookings", nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/v1/admin/bookings", nil, map[string]string{"Authorization": "Bearer nope"}).Code)

	rec := srv.do(t, http.MethodGet, "/v1/admin/bookings?q=PI%C3%91ATA", nil, admin())
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListBookingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Bookings, 1)
	assert.Equal(t, b.ID, list.Bookings[0].ID)
	assert.Equal(t, "Pendiente", list.Bookings[0].StatusLabel)
	assert.Equal(t, "lunes, 1 de diciembre de 2025", list.Bookings[0].DateLabel)

	rec = srv.do(t, http.MethodPatch, "/v1/admin/bookings/"+b.ID.String()+"/status", StatusRequest{Status: "confirmed"}, admin())
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = srv.do(t, http.MethodPatch, "/v1/admin/bookings/"+b.ID.String()+"/status", StatusRequest{Status: "archived"}, admin())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/v1/admin/bookings?status=confirmed", nil, admin())
	require.Equal(t, http.StatusOK, rec.Code)
	list = ListBookingsResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Bookings, 1)
	assert.Equal(t, "Confirmado", list.Bookings[0].StatusLabel)

	rec = srv.do(t, http.MethodGet, "/v1/admin/bookings?status=all", nil, admin())
	list = ListBookingsResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Bookings, 2)

	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodGet, "/v1/admin/bookings?status=archived", nil, admin()).Code)

	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/v1/admin/bookings/"+b.ID.String(), nil, admin()).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/v1/admin/bookings/"+b.ID.String(), nil, admin()).Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodGet, "/v1/admin/bookings/not-a-uuid", nil, admin()).Code)
}

func TestAdminDisabledWithoutToken(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.AdminToken = "" })
	rec := srv.do(t, http.MethodGet, "/v1/admin/bookings", nil, map[string]string{"Authorization": "Bearer "})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestContent(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/v1/content", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	for _, key := range content.Keys {
		assert.Contains(t, all, key)
	}

	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodPut, "/v1/admin/content/hero", `{"title":"x"}`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPut, "/v1/admin/content/hero", `{"title":`, admin()).Code)

	rec = srv.do(t, http.MethodPut, "/v1/admin/content/hero", `{"title":"Nuevo"}`, admin())
	require.Equal(t, http.StatusOK, rec.Code)
	var c domain.Content
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, "hero", c.Key)

	rec = srv.do(t, http.MethodGet, "/v1/content/hero", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"title":"Nuevo"}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/v1/content/unknown", nil, nil).Code)
}

func TestReadyz(t *testing.T) {
	srv := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/v1/readyz", nil, nil).Code)

	srv.handlers.AddCheck("crdb", func(ctx context.Context) error { return errors.New("down") })
	rec := srv.do(t, http.MethodGet, "/v1/readyz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "crdb")

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/v1/healthz", nil, nil).Code)
}
