package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pb_requests_total",
			Help: "Total number of requests",
		},
		[]string{"route", "code", "method"},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pb_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pb_outbox_lag_seconds",
			Help: "Age of the oldest event published in the last outbox pass",
		},
	)

	RabbitPublishRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pb_rabbit_publish_retries_total",
			Help: "Total rabbit publish retries",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pb_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)

	BookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pb_bookings_created_total",
			Help: "Bookings created, by double-booking policy",
		},
		[]string{"policy"},
	)

	BookingConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pb_booking_conflicts_total",
			Help: "Bookings rejected because the slot was already taken",
		},
	)

	StatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pb_status_changes_total",
			Help: "Booking status changes, by target status",
		},
		[]string{"to"},
	)

	AvailabilityDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pb_availability_degraded_total",
			Help: "Availability queries answered without booking data",
		},
	)
)
