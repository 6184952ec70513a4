package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	apperrors "homestay/internal/errors"
	"homestay/internal/logger"
	"homestay/internal/models"
	"homestay/internal/pricing"
)

// ReservationService orchestrates the two booking entry paths: the
// direct request (PENDING booking now, payment later or never) and the
// payment-first checkout (payment intent now, CONFIRMED booking when
// the provider reports success).
type ReservationService struct {
	listings  ListingStore
	bookings  BookingStore
	ledger    *BookingLedger
	payments  PaymentProvider
	publisher EventPublisher
	feeRate   float64
	currency  string
}

func NewReservationService(listings ListingStore, bookings BookingStore, ledger *BookingLedger, payments PaymentProvider, publisher EventPublisher, opts Options) *ReservationService {
	return &ReservationService{
		listings:  listings,
		bookings:  bookings,
		ledger:    ledger,
		payments:  payments,
		publisher: publisher,
		feeRate:   opts.ServiceFeeRate,
		currency:  opts.Currency,
	}
}

// RequestBooking is the direct (no-prepay) path: validate the window,
// price the stay at the listing's current nightly rate, insert a
// PENDING booking atomically with the availability check.
func (s *ReservationService) RequestBooking(ctx context.Context, guestUserID int64, req *models.CreateBookingRequest) (*models.Booking, error) {
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	listing, err := s.getActiveListing(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}

	return s.ledger.Create(ctx, listing, guestUserID, checkIn, checkOut, req.GuestCount)
}

// BeginPaidCheckout prices the stay (with the marketplace service fee)
// and creates a provider payment intent carrying the booking parameters
// as metadata. No booking row exists until the success webhook arrives.
func (s *ReservationService) BeginPaidCheckout(ctx context.Context, guestUserID int64, req *models.CreateIntentRequest) (*models.CreateIntentResponse, error) {
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	if req.GuestCount < 1 {
		return nil, apperrors.ErrInvalidInput
	}

	listing, err := s.getActiveListing(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}

	quote, err := pricing.ComputeTotal(listing.NightlyPrice, checkIn, checkOut, s.feeRate)
	if err != nil {
		return nil, apperrors.ErrInvalidInput
	}

	metadata := map[string]string{
		metaListingID:   listing.ID,
		metaGuestUserID: strconv.FormatInt(guestUserID, 10),
		metaCheckIn:     checkIn.Format(models.DateLayout),
		metaCheckOut:    checkOut.Format(models.DateLayout),
		metaGuestCount:  strconv.Itoa(req.GuestCount),
		metaTotalPrice:  strconv.FormatInt(quote.Total, 10),
	}

	intent, err := s.payments.CreateIntent(ctx, quote.Total, s.currency, metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	if s.publisher != nil {
		event := models.PaymentIntentCreatedEvent{
			ProviderPaymentID: intent.ProviderPaymentID,
			ListingID:         listing.ID,
			GuestUserID:       guestUserID,
			TotalPrice:        quote.Total,
			Timestamp:         time.Now(),
		}
		if err := s.publisher.Publish(models.EventPaymentIntentCreated, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish payment intent event",
				"error", err,
				"event_type", models.EventPaymentIntentCreated)
		}
	}

	return &models.CreateIntentResponse{
		ProviderPaymentID: intent.ProviderPaymentID,
		ClientSecret:      intent.ClientSecret,
		TotalPrice:        quote.Total,
	}, nil
}

// CancelBooking cancels on behalf of a guest. Only the guest who owns
// the booking may cancel through this path; host and admin overrides
// live with their own collaborators.
func (s *ReservationService) CancelBooking(ctx context.Context, bookingID string, actorUserID int64) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return apperrors.ErrInvalidTransition
	}
	if booking.GuestUserID != actorUserID {
		return apperrors.ErrForbidden
	}

	if _, err = s.ledger.Cancel(ctx, bookingID, "guest"); err != nil {
		return err
	}

	// Void the provider intent for prepaid bookings; the refund itself
	// settles on the provider side. Skipped on idempotent re-cancels.
	if booking.ProviderPaymentID != nil && booking.Status != models.BookingCancelled {
		if err := s.payments.CancelPayment(ctx, *booking.ProviderPaymentID, "guest_cancelled"); err != nil {
			logger.WithContext(ctx).Error("Failed to void payment intent",
				"error", err,
				"booking_id", bookingID,
				"provider_payment_id", *booking.ProviderPaymentID)
		}
	}

	return nil
}

// ConfirmBooking is the explicit confirmation of a direct-path PENDING
// booking (host acceptance). Authorization is checked by the caller.
func (s *ReservationService) ConfirmBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	return s.ledger.Confirm(ctx, bookingID)
}

func (s *ReservationService) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, apperrors.ErrBookingNotFound
	}
	return booking, nil
}

func (s *ReservationService) ListBookings(ctx context.Context, guestUserID int64) (models.ListBookingsResponse, error) {
	bookings, err := s.bookings.ListByGuest(ctx, guestUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	result := make(models.ListBookingsResponse, len(bookings))
	for i, booking := range bookings {
		result[i] = models.ListBookingsResponseItem{
			ID:         booking.ID,
			ListingID:  booking.ListingID,
			CheckIn:    booking.CheckIn.Format(models.DateLayout),
			CheckOut:   booking.CheckOut.Format(models.DateLayout),
			TotalPrice: booking.TotalPrice,
			Status:     string(booking.Status),
		}
	}
	return result, nil
}

func (s *ReservationService) GetListing(ctx context.Context, listingID string) (*models.Listing, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if listing == nil {
		return nil, apperrors.ErrListingNotFound
	}
	return listing, nil
}

func (s *ReservationService) getActiveListing(ctx context.Context, listingID string) (*models.Listing, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if listing == nil || !listing.Active {
		return nil, apperrors.ErrListingNotFound
	}
	return listing, nil
}

// parseStay parses and normalizes the calendar dates of a stay.
func parseStay(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := time.Parse(models.DateLayout, checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.ErrInvalidInput
	}
	out, err := time.Parse(models.DateLayout, checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.ErrInvalidInput
	}
	if !out.After(in) {
		return time.Time{}, time.Time{}, apperrors.ErrInvalidInput
	}
	return in, out, nil
}
