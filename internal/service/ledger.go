package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "homestay/internal/errors"
	"homestay/internal/logger"
	"homestay/internal/metrics"
	"homestay/internal/models"
	"homestay/internal/pricing"
)

// BookingLedger owns booking rows and the PENDING -> CONFIRMED /
// CANCELLED state machine. CANCELLED is absorbing. Authorization is the
// caller's job; the ledger assumes the actor may act on the booking.
type BookingLedger struct {
	bookings     BookingStore
	availability *AvailabilityChecker
	publisher    EventPublisher
}

func NewBookingLedger(bookings BookingStore, availability *AvailabilityChecker, publisher EventPublisher) *BookingLedger {
	return &BookingLedger{
		bookings:     bookings,
		availability: availability,
		publisher:    publisher,
	}
}

// BookingParams carries everything needed to materialize a booking on
// the payment-first path. TotalPrice is the amount the guest was
// actually charged and is never recomputed.
type BookingParams struct {
	ListingID   string
	GuestUserID int64
	CheckIn     time.Time
	CheckOut    time.Time
	GuestCount  int
	TotalPrice  int64
}

// Create inserts a PENDING booking for the direct (no-prepay) path. The
// availability check and the insert run in one transaction; the
// exclusion constraint turns a lost race into ErrDateRangeUnavailable.
func (l *BookingLedger) Create(ctx context.Context, listing *models.Listing, guestUserID int64, checkIn, checkOut time.Time, guestCount int) (*models.Booking, error) {
	if guestCount < 1 {
		return nil, apperrors.ErrInvalidInput
	}

	quote, err := pricing.ComputeTotal(listing.NightlyPrice, checkIn, checkOut, 0)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidRange) {
			return nil, apperrors.ErrInvalidInput
		}
		return nil, fmt.Errorf("failed to price booking: %w", err)
	}

	booking := &models.Booking{
		ID:          uuid.New().String(),
		ListingID:   listing.ID,
		GuestUserID: guestUserID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		GuestCount:  guestCount,
		TotalPrice:  quote.Total,
		Status:      models.BookingPending,
	}

	err = l.bookings.WithTx(ctx, func(txCtx context.Context) error {
		if err := l.availability.AssertAvailable(txCtx, listing.ID, checkIn, checkOut); err != nil {
			return err
		}
		return l.bookings.Insert(txCtx, booking)
	})
	if err != nil {
		return nil, err
	}

	metrics.BookingsCreated.WithLabelValues("direct").Inc()
	l.publish(ctx, models.EventBookingCreated, models.BookingCreatedEvent{
		BookingID:   booking.ID,
		ListingID:   booking.ListingID,
		GuestUserID: booking.GuestUserID,
		TotalPrice:  booking.TotalPrice,
		Status:      string(booking.Status),
		Timestamp:   time.Now(),
	})

	return booking, nil
}

// CreateConfirmed inserts a CONFIRMED booking for the payment-first
// path. The overlap check still runs, but a conflict does not reject
// the booking: the guest already paid, so the row is flagged
// needs_review (exempt from the exclusion constraint) for the host to
// resolve.
func (l *BookingLedger) CreateConfirmed(ctx context.Context, params BookingParams, providerPaymentID string) (*models.Booking, error) {
	if params.GuestCount < 1 || !params.CheckOut.After(params.CheckIn) {
		return nil, apperrors.ErrInvalidInput
	}

	booking := &models.Booking{
		ID:                uuid.New().String(),
		ListingID:         params.ListingID,
		GuestUserID:       params.GuestUserID,
		CheckIn:           params.CheckIn,
		CheckOut:          params.CheckOut,
		GuestCount:        params.GuestCount,
		TotalPrice:        params.TotalPrice,
		Status:            models.BookingConfirmed,
		ProviderPaymentID: &providerPaymentID,
	}

	err := l.bookings.WithTx(ctx, func(txCtx context.Context) error {
		available, err := l.availability.IsAvailable(txCtx, params.ListingID, params.CheckIn, params.CheckOut)
		if err != nil {
			return err
		}
		booking.NeedsReview = !available
		return l.bookings.Insert(txCtx, booking)
	})
	if errors.Is(err, apperrors.ErrDateRangeUnavailable) && !booking.NeedsReview {
		// A direct booking won the race between our check and the
		// insert, and the constraint violation aborted that
		// transaction. Keep the paid booking: retry in a fresh
		// transaction with the conflict flagged, since flagged rows
		// are exempt from the exclusion constraint.
		booking.NeedsReview = true
		booking.ID = uuid.New().String()
		err = l.bookings.WithTx(ctx, func(txCtx context.Context) error {
			return l.bookings.Insert(txCtx, booking)
		})
	}
	if err != nil {
		return nil, err
	}

	metrics.BookingsCreated.WithLabelValues("reconciled").Inc()
	if booking.NeedsReview {
		metrics.BookingConflicts.Inc()
	}
	l.publish(ctx, models.EventBookingCreated, models.BookingCreatedEvent{
		BookingID:   booking.ID,
		ListingID:   booking.ListingID,
		GuestUserID: booking.GuestUserID,
		TotalPrice:  booking.TotalPrice,
		Status:      string(booking.Status),
		Timestamp:   time.Now(),
	})

	return booking, nil
}

// Confirm moves a PENDING booking to CONFIRMED. Confirming an already
// CONFIRMED booking is a no-op success; confirming a CANCELLED one
// fails, CANCELLED is terminal.
func (l *BookingLedger) Confirm(ctx context.Context, bookingID string) (*models.Booking, error) {
	var booking *models.Booking
	transitioned := false

	err := l.bookings.WithTx(ctx, func(txCtx context.Context) error {
		b, err := l.bookings.GetForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return apperrors.ErrBookingNotFound
		}

		switch b.Status {
		case models.BookingCancelled:
			return apperrors.ErrInvalidTransition
		case models.BookingConfirmed:
			booking = b
			return nil
		}

		if err := l.bookings.UpdateStatus(txCtx, b.ID, models.BookingConfirmed); err != nil {
			return err
		}
		b.Status = models.BookingConfirmed
		booking = b
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transitioned {
		metrics.BookingsConfirmed.Inc()
		l.publish(ctx, models.EventBookingConfirmed, models.BookingConfirmedEvent{
			BookingID: booking.ID,
			ListingID: booking.ListingID,
			Timestamp: time.Now(),
		})
	}

	return booking, nil
}

// Cancel moves a PENDING or CONFIRMED booking to CANCELLED. Cancelling
// an already CANCELLED booking is a no-op success; only a missing
// booking is an error.
func (l *BookingLedger) Cancel(ctx context.Context, bookingID, reason string) (*models.Booking, error) {
	var booking *models.Booking
	transitioned := false

	err := l.bookings.WithTx(ctx, func(txCtx context.Context) error {
		b, err := l.bookings.GetForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return apperrors.ErrInvalidTransition
		}

		if b.Status == models.BookingCancelled {
			booking = b
			return nil
		}

		if err := l.bookings.UpdateStatus(txCtx, b.ID, models.BookingCancelled); err != nil {
			return err
		}
		b.Status = models.BookingCancelled
		booking = b
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transitioned {
		metrics.BookingsCancelled.WithLabelValues(reason).Inc()
		l.publish(ctx, models.EventBookingCancelled, models.BookingCancelledEvent{
			BookingID: booking.ID,
			ListingID: booking.ListingID,
			Reason:    reason,
			Timestamp: time.Now(),
		})
	}

	return booking, nil
}

// ExpirePending cancels a booking only while it is still PENDING. The
// status is re-read under the row lock, so a booking that got confirmed
// after being selected for expiration is left untouched.
func (l *BookingLedger) ExpirePending(ctx context.Context, bookingID string) (bool, error) {
	var booking *models.Booking

	err := l.bookings.WithTx(ctx, func(txCtx context.Context) error {
		b, err := l.bookings.GetForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}
		if b == nil || b.Status != models.BookingPending {
			return nil
		}

		if err := l.bookings.UpdateStatus(txCtx, b.ID, models.BookingCancelled); err != nil {
			return err
		}
		b.Status = models.BookingCancelled
		booking = b
		return nil
	})
	if err != nil {
		return false, err
	}
	if booking == nil {
		return false, nil
	}

	metrics.BookingsCancelled.WithLabelValues("expired").Inc()
	l.publish(ctx, models.EventBookingCancelled, models.BookingCancelledEvent{
		BookingID: booking.ID,
		ListingID: booking.ListingID,
		Reason:    "expired",
		Timestamp: time.Now(),
	})

	return true, nil
}

// publish sends a lifecycle event; delivery is best-effort and never
// fails the operation.
func (l *BookingLedger) publish(ctx context.Context, subject string, data interface{}) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Error("Failed to publish booking event",
			"error", err,
			"event_type", subject)
	}
}
