package models

import "time"

// NATS Event Types
const (
	EventBookingCreated       = "booking.created"
	EventBookingConfirmed     = "booking.confirmed"
	EventBookingCancelled     = "booking.cancelled"
	EventBookingExpired       = "booking.expired"
	EventBookingConflict      = "booking.conflict"
	EventPaymentIntentCreated = "payment.intent.created"
	EventPaymentFailed        = "payment.failed"
)

// BookingCreatedEvent represents a booking creation event
type BookingCreatedEvent struct {
	BookingID   string    `json:"booking_id"`
	ListingID   string    `json:"listing_id"`
	GuestUserID int64     `json:"guest_user_id"`
	TotalPrice  int64     `json:"total_price"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// BookingConfirmedEvent represents a booking confirmation event
type BookingConfirmedEvent struct {
	BookingID string    `json:"booking_id"`
	ListingID string    `json:"listing_id"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCancelledEvent represents a booking cancellation event
type BookingCancelledEvent struct {
	BookingID string    `json:"booking_id"`
	ListingID string    `json:"listing_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingExpiredEvent represents an auto-cancelled stale PENDING booking
type BookingExpiredEvent struct {
	BookingID string    `json:"booking_id"`
	ListingID string    `json:"listing_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingConflictEvent is published when a reconciled payment produced a
// booking that overlaps an existing one and was flagged for host review
type BookingConflictEvent struct {
	BookingID         string    `json:"booking_id"`
	ListingID         string    `json:"listing_id"`
	ProviderPaymentID string    `json:"provider_payment_id"`
	Timestamp         time.Time `json:"timestamp"`
}

// PaymentIntentCreatedEvent represents the start of a pay-to-book checkout
type PaymentIntentCreatedEvent struct {
	ProviderPaymentID string    `json:"provider_payment_id"`
	ListingID         string    `json:"listing_id"`
	GuestUserID       int64     `json:"guest_user_id"`
	TotalPrice        int64     `json:"total_price"`
	Timestamp         time.Time `json:"timestamp"`
}

// PaymentFailedEvent represents a failed payment reported by the provider
type PaymentFailedEvent struct {
	ProviderPaymentID string    `json:"provider_payment_id"`
	Reason            string    `json:"reason"`
	Timestamp         time.Time `json:"timestamp"`
}
