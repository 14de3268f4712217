package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/robertarktes/party-bookings/internal/availability"
	"github.com/robertarktes/party-bookings/internal/booking"
	"github.com/robertarktes/party-bookings/internal/config"
	"github.com/robertarktes/party-bookings/internal/confirmation"
	"github.com/robertarktes/party-bookings/internal/content"
	"github.com/robertarktes/party-bookings/internal/domain"
	"github.com/robertarktes/party-bookings/internal/observability"
)

const maxBodyBytes = 1 << 20

// Check reports whether a dependency is usable; used by /v1/readyz.
type Check func(ctx context.Context) error

type Handlers struct {
	cfg      *config.Config
	bookings *booking.Service
	avail    *availability.Service
	content  *content.Service
	logger   observability.Logger
	checks   map[string]Check
}

func NewHandlers(cfg *config.Config, bookings *booking.Service, avail *availability.Service, content *content.Service, logger observability.Logger) *Handlers {
	return &Handlers{
		cfg:      cfg,
		bookings: bookings,
		avail:    avail,
		content:  content,
		logger:   logger,
		checks:   make(map[string]Check),
	}
}

// AddCheck registers a readiness check under name.
func (h *Handlers) AddCheck(name string, c Check) {
	h.checks[name] = c
}

// BookingView is the admin representation of a booking.
type BookingView struct {
	domain.Booking
	StatusLabel string `json:"statusLabel"`
	DateLabel   string `json:"dateLabel"`
}

func newBookingView(b domain.Booking) BookingView {
	return BookingView{Booking: b, StatusLabel: b.Status.Label(), DateLabel: domain.FormatDate(b.Date)}
}

type CreateBookingResponse struct {
	Booking      domain.Booking `json:"booking"`
	WhatsAppLink string         `json:"whatsappLink"`
}

type ListBookingsResponse struct {
	Bookings []BookingView `json:"bookings"`
	Degraded bool          `json:"degraded"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrapf(domain.ErrInvalidInput, "malformed body: %v", err)
	}
	return nil
}

func bookingID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errors.Wrap(domain.ErrInvalidInput, "invalid id")
	}
	return id, nil
}

func (h *Handlers) Slots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"slots": h.avail.Slots()})
}

func (h *Handlers) Availability(w http.ResponseWriter, r *http.Request) {
	a, err := h.avail.OccupiedSlots(r.Context(), strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.NewBooking
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.bookings.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateBookingResponse{
		Booking:      b,
		WhatsAppLink: confirmation.Link(b, h.cfg.WhatsAppNumber),
	})
}

// ListBookings serves the admin listing. A failed fetch is answered with an
// empty, degraded list.
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	var f booking.Filter
	if s := strings.TrimSpace(r.URL.Query().Get("status")); s != "" && s != "all" {
		st, err := domain.ParseStatus(s)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		f.Status = st
	}
	f.Query = r.URL.Query().Get("q")

	resp := ListBookingsResponse{Bookings: []BookingView{}}
	list, err := h.bookings.List(r.Context(), f)
	if err != nil {
		loggerFrom(r.Context(), h.logger).WithError(err).Warn("booking list fetch failed")
		resp.Degraded = true
	}
	for _, b := range list {
		resp.Bookings = append(resp.Bookings, newBookingView(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := bookingID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.bookings.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookingView(b))
}

func (h *Handlers) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := bookingID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req StatusRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	st, err := domain.ParseStatus(req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.bookings.ChangeStatus(r.Context(), id, st); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := bookingID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.bookings.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListContent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.content.All())
}

func (h *Handlers) GetContent(w http.ResponseWriter, r *http.Request) {
	v, ok := h.content.Get(chi.URLParam(r, "key"))
	if !ok {
		h.writeError(w, r, domain.ErrNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(v)
}

func (h *Handlers) PutContent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, r, errors.Wrapf(domain.ErrInvalidInput, "read body: %v", err))
		return
	}
	c, err := h.content.Upsert(r.Context(), chi.URLParam(r, "key"), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			loggerFrom(r.Context(), h.logger).WithField("check", name).WithError(err).Warn("readiness check failed")
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, failed)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
