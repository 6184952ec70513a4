package worker

import (
	"context"
	"log/slog"
	"time"

	"homestay/internal/models"
	"homestay/internal/service"
)

const sweepInterval = 30 * time.Second

// ExpirationJob cancels direct-path PENDING bookings that were never
// confirmed within the TTL, freeing the dates for other guests.
type ExpirationJob struct {
	bookings  service.BookingStore
	ledger    *service.BookingLedger
	publisher service.EventPublisher
	ttl       time.Duration
	ticker    *time.Ticker
	done      chan bool
}

func NewExpirationJob(bookings service.BookingStore, ledger *service.BookingLedger, publisher service.EventPublisher, ttl time.Duration) *ExpirationJob {
	return &ExpirationJob{
		bookings:  bookings,
		ledger:    ledger,
		publisher: publisher,
		ttl:       ttl,
		done:      make(chan bool),
	}
}

// Start begins the background sweep.
func (j *ExpirationJob) Start(ctx context.Context) {
	slog.Info("Starting booking expiration job", "check_interval", sweepInterval.String(), "ttl", j.ttl.String())

	j.ticker = time.NewTicker(sweepInterval)

	go j.sweep(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.sweep(ctx)
			case <-j.done:
				slog.Info("Booking expiration job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job
func (j *ExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *ExpirationJob) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-j.ttl)

	expired, err := j.bookings.ListExpiredPending(ctx, cutoff)
	if err != nil {
		slog.Error("Failed to list expired bookings", "error", err)
		return
	}

	if len(expired) == 0 {
		slog.Debug("No expired bookings found")
		return
	}

	slog.Info("Found expired bookings to cancel", "count", len(expired))

	for _, booking := range expired {
		if err := j.expire(ctx, &booking); err != nil {
			slog.Error("Failed to expire booking",
				"error", err,
				"booking_id", booking.ID,
				"listing_id", booking.ListingID,
				"created_at", booking.CreatedAt)
		} else {
			slog.Info("Expired booking",
				"booking_id", booking.ID,
				"listing_id", booking.ListingID,
				"elapsed_time", time.Since(booking.CreatedAt).String())
		}
	}
}

func (j *ExpirationJob) expire(ctx context.Context, booking *models.Booking) error {
	// The ledger re-checks the status under the row lock, so a booking
	// confirmed between the sweep query and this call survives.
	expired, err := j.ledger.ExpirePending(ctx, booking.ID)
	if err != nil {
		return err
	}
	if !expired {
		slog.Debug("Booking no longer pending, skipping expiration", "booking_id", booking.ID)
		return nil
	}

	event := models.BookingExpiredEvent{
		BookingID: booking.ID,
		ListingID: booking.ListingID,
		Reason:    "pending booking TTL exceeded",
		Timestamp: time.Now(),
	}
	if err := j.publisher.Publish(models.EventBookingExpired, event); err != nil {
		slog.Error("Failed to publish booking expired event",
			"error", err,
			"booking_id", booking.ID,
			"event_type", models.EventBookingExpired)
		// Expiration itself succeeded; event delivery is best-effort.
	}

	return nil
}
