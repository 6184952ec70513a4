package models

import (
	"time"
)

// DateLayout is the wire format for check-in/check-out calendar dates.
const DateLayout = "2006-01-02"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// User represents a user in the system
type User struct {
	UserID       int64     `json:"user_id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	Surname      string    `json:"surname" db:"surname"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
	IsActive     bool      `json:"is_active" db:"is_active"`
}

// Listing represents a rentable property. It is owned by the listings
// collaborator; the reservation core reads it and never writes it.
type Listing struct {
	ID           string    `json:"id" db:"id"`
	HostID       int64     `json:"host_id" db:"host_id"`
	Title        string    `json:"title" db:"title"`
	NightlyPrice int64     `json:"nightly_price" db:"nightly_price"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Booking is the central reservation entity. TotalPrice is fixed at
// creation time and never recomputed; [CheckIn, CheckOut) is a
// half-open interval, so a checkout on day N does not conflict with a
// check-in on day N.
type Booking struct {
	ID                string        `json:"id" db:"id"`
	ListingID         string        `json:"listing_id" db:"listing_id"`
	GuestUserID       int64         `json:"guest_user_id" db:"guest_user_id"`
	CheckIn           time.Time     `json:"check_in" db:"check_in"`
	CheckOut          time.Time     `json:"check_out" db:"check_out"`
	GuestCount        int           `json:"guest_count" db:"guest_count"`
	TotalPrice        int64         `json:"total_price" db:"total_price"`
	Status            BookingStatus `json:"status" db:"status"`
	ProviderPaymentID *string       `json:"provider_payment_id,omitempty" db:"provider_payment_id"`
	NeedsReview       bool          `json:"needs_review" db:"needs_review"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}
