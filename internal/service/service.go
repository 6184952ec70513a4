package service

import (
	"context"
	"time"

	"homestay/internal/external"
	"homestay/internal/models"
	"homestay/internal/repository"
)

// BookingStore is the persistence surface the reservation core needs
// from its booking repository. Calls made inside WithTx share one
// database transaction.
type BookingStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Insert(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetForUpdate(ctx context.Context, id string) (*models.Booking, error)
	GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*models.Booking, error)
	FindOverlapping(ctx context.Context, listingID string, checkIn, checkOut time.Time) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error
	ListByGuest(ctx context.Context, guestUserID int64) ([]models.Booking, error)
	ListExpiredPending(ctx context.Context, cutoff time.Time) ([]models.Booking, error)
}

// ListingStore is the read-only listings collaborator interface.
type ListingStore interface {
	GetByID(ctx context.Context, id string) (*models.Listing, error)
}

// EventPublisher publishes lifecycle events; failures are logged, never
// returned to callers.
type EventPublisher interface {
	Publish(subject string, data interface{}) error
}

// PaymentProvider creates and voids payment intents at the external
// gateway.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (external.PaymentIntentResult, error)
	CancelPayment(ctx context.Context, paymentID, reason string) error
}

type Services struct {
	Availability *AvailabilityChecker
	Ledger       *BookingLedger
	Reconciler   *PaymentReconciler
	Reservations *ReservationService
}

type Options struct {
	ServiceFeeRate float64
	Currency       string
}

func NewServices(repos *repository.Repositories, publisher EventPublisher, paymentClient *external.PaymentClient, opts Options) *Services {
	availability := NewAvailabilityChecker(repos.Bookings)
	ledger := NewBookingLedger(repos.Bookings, availability, publisher)
	reconciler := NewPaymentReconciler(repos.Bookings, ledger, publisher)
	reservations := NewReservationService(repos.Listings, repos.Bookings, ledger, paymentClient, publisher, opts)

	return &Services{
		Availability: availability,
		Ledger:       ledger,
		Reconciler:   reconciler,
		Reservations: reservations,
	}
}
