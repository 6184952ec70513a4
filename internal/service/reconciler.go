package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	apperrors "homestay/internal/errors"
	"homestay/internal/logger"
	"homestay/internal/metrics"
	"homestay/internal/models"
)

// PaymentReconciler turns asynchronous payment-provider events into
// bookings, exactly once per payment. The provider delivers webhooks
// at least once and possibly concurrently; the UNIQUE constraint on
// provider_payment_id is the serialization point, not any in-memory
// state.
type PaymentReconciler struct {
	bookings  BookingStore
	ledger    *BookingLedger
	publisher EventPublisher
}

func NewPaymentReconciler(bookings BookingStore, ledger *BookingLedger, publisher EventPublisher) *PaymentReconciler {
	return &PaymentReconciler{
		bookings:  bookings,
		ledger:    ledger,
		publisher: publisher,
	}
}

// Metadata keys attached to the payment intent at checkout time and
// echoed back by the provider on success.
const (
	metaListingID   = "listing_id"
	metaGuestUserID = "guest_user_id"
	metaCheckIn     = "check_in"
	metaCheckOut    = "check_out"
	metaGuestCount  = "guest_count"
	metaTotalPrice  = "total_price"
)

// HandlePaymentSucceeded materializes a CONFIRMED booking from the
// payment intent metadata. The total price is trusted from the
// metadata: it is what the guest was charged, fixed at intent creation.
// Re-delivery of the same providerPaymentID returns the existing
// booking unchanged.
func (r *PaymentReconciler) HandlePaymentSucceeded(ctx context.Context, providerPaymentID string, metadata map[string]string) (*models.Booking, error) {
	if providerPaymentID == "" {
		return nil, apperrors.ErrInvalidWebhookPayload
	}

	existing, err := r.bookings.GetByProviderPaymentID(ctx, providerPaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up payment reference: %w", err)
	}
	if existing != nil {
		metrics.WebhookDuplicates.Inc()
		logger.WithContext(ctx).Info("Duplicate payment webhook suppressed",
			"provider_payment_id", providerPaymentID,
			"booking_id", existing.ID)
		return existing, nil
	}

	params, err := parseBookingMetadata(metadata)
	if err != nil {
		return nil, err
	}

	booking, err := r.ledger.CreateConfirmed(ctx, params, providerPaymentID)
	if errors.Is(err, apperrors.ErrDuplicatePayment) {
		// A concurrent delivery of the same webhook won the insert.
		metrics.WebhookDuplicates.Inc()
		existing, lookupErr := r.bookings.GetByProviderPaymentID(ctx, providerPaymentID)
		if lookupErr != nil {
			return nil, fmt.Errorf("failed to re-read reconciled booking: %w", lookupErr)
		}
		if existing == nil {
			return nil, err
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}

	if booking.NeedsReview {
		logger.WithContext(ctx).Warn("Reconciled booking overlaps an existing one, flagged for host review",
			"booking_id", booking.ID,
			"listing_id", booking.ListingID,
			"provider_payment_id", providerPaymentID)
		r.publish(ctx, models.EventBookingConflict, models.BookingConflictEvent{
			BookingID:         booking.ID,
			ListingID:         booking.ListingID,
			ProviderPaymentID: providerPaymentID,
			Timestamp:         time.Now(),
		})
	}

	return booking, nil
}

// HandlePaymentFailed records the failure; no booking is touched
// because none exists yet on the payment-first path.
func (r *PaymentReconciler) HandlePaymentFailed(ctx context.Context, providerPaymentID, reason string) error {
	if providerPaymentID == "" {
		return apperrors.ErrInvalidWebhookPayload
	}

	logger.WithContext(ctx).Info("Payment failed",
		"provider_payment_id", providerPaymentID,
		"reason", reason)

	r.publish(ctx, models.EventPaymentFailed, models.PaymentFailedEvent{
		ProviderPaymentID: providerPaymentID,
		Reason:            reason,
		Timestamp:         time.Now(),
	})
	return nil
}

func parseBookingMetadata(metadata map[string]string) (BookingParams, error) {
	if metadata == nil {
		return BookingParams{}, apperrors.ErrInvalidWebhookPayload
	}

	listingID := metadata[metaListingID]
	if listingID == "" {
		return BookingParams{}, apperrors.ErrInvalidWebhookPayload
	}

	guestUserID, err := strconv.ParseInt(metadata[metaGuestUserID], 10, 64)
	if err != nil {
		return BookingParams{}, apperrors.ErrInvalidWebhookPayload
	}

	checkIn, err := time.Parse(models.DateLayout, metadata[metaCheckIn])
	if err != nil {
		return BookingParams{}, apperrors.ErrInvalidWebhookPayload
	}
	checkOut, err := time.Parse(models.DateLayout, metadata[metaCheckOut])
	if err != nil {
		return BookingParams{}, apperrors.ErrInvalidWebhookPayload
	}
	if !checkOut.After(checkIn) {
		return BookingParams{}, apperrors.ErrInvalidWebhookPayload
	}

	guestCount, err := strconv.Atoi(metadata[metaGuestCount])
	if err != nil || guestCount < 1 {
		return BookingParams{}, apperrors.ErrInvalidWebhookPayload
	}

	totalPrice, err := strconv.ParseInt(metadata[metaTotalPrice], 10, 64)
	if err != nil || totalPrice < 0 {
		return BookingParams{}, apperrors.ErrInvalidWebhookPayload
	}

	return BookingParams{
		ListingID:   listingID,
		GuestUserID: guestUserID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		GuestCount:  guestCount,
		TotalPrice:  totalPrice,
	}, nil
}

func (r *PaymentReconciler) publish(ctx context.Context, subject string, data interface{}) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Error("Failed to publish payment event",
			"error", err,
			"event_type", subject)
	}
}
