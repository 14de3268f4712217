package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/party-bookings/internal/idempotency"
	"github.com/robertarktes/party-bookings/internal/observability"
	"github.com/robertarktes/party-bookings/internal/rateLimit"
)

func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter, idemp *idempotency.Idempotency) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(MetricsMiddleware)
	r.Use(TracingMiddleware)
	r.Use(LimitBodyMiddleware)

	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/v1/slots", h.Slots)
	r.Get("/v1/availability", h.Availability)
	r.Get("/v1/content", h.ListContent)
	r.Get("/v1/content/{key}", h.GetContent)
	r.With(
		RateLimitMiddleware(rl, h.cfg.RateLimit, logger),
		IdempotencyMiddleware(idemp, logger),
	).Post("/v1/bookings", h.CreateBooking)

	r.Route("/v1/admin", func(r chi.Router) {
		r.Use(AdminMiddleware(h.cfg.AdminToken))
		r.Get("/bookings", h.ListBookings)
		r.Get("/bookings/{id}", h.GetBooking)
		r.Patch("/bookings/{id}/status", h.ChangeStatus)
		r.Delete("/bookings/{id}", h.DeleteBooking)
		r.Put("/content/{key}", h.PutContent)
	})

	return r
}
