package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestay_bookings_created_total",
		Help: "Bookings created, by entry path (direct or reconciled).",
	}, []string{"path"})

	BookingsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homestay_bookings_confirmed_total",
		Help: "PENDING bookings explicitly confirmed.",
	})

	BookingsCancelled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestay_bookings_cancelled_total",
		Help: "Bookings cancelled, by reason (guest, expired).",
	}, []string{"reason"})

	BookingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestay_bookings_rejected_total",
		Help: "Booking requests rejected, by cause (unavailable, invalid_input, listing_not_found).",
	}, []string{"cause"})

	WebhookDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homestay_payment_webhook_duplicates_total",
		Help: "payment.succeeded deliveries suppressed by the idempotency key.",
	})

	BookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homestay_booking_conflicts_total",
		Help: "Reconciled bookings flagged for host review due to a date overlap.",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "homestay_http_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
