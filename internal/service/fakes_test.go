package service

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "homestay/internal/errors"
	"homestay/internal/external"
	"homestay/internal/models"
)

// fakeBookingStore is an in-memory BookingStore that enforces the same
// constraints the database does: unique provider payment ids and no
// overlapping live bookings (except rows flagged needs_review).
type fakeBookingStore struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking

	insertErr error
	findErr   error
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[string]*models.Booking)}
}

func (s *fakeBookingStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *fakeBookingStore) Insert(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertErr != nil {
		return s.insertErr
	}

	for _, existing := range s.bookings {
		if booking.ProviderPaymentID != nil && existing.ProviderPaymentID != nil &&
			*booking.ProviderPaymentID == *existing.ProviderPaymentID {
			return apperrors.ErrDuplicatePayment
		}
	}

	if !booking.NeedsReview {
		for _, existing := range s.bookings {
			if existing.ListingID != booking.ListingID ||
				existing.Status == models.BookingCancelled ||
				existing.NeedsReview {
				continue
			}
			if existing.CheckIn.Before(booking.CheckOut) && existing.CheckOut.After(booking.CheckIn) {
				return apperrors.ErrDateRangeUnavailable
			}
		}
	}

	now := time.Now()
	stored := *booking
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.bookings[booking.ID] = &stored
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (s *fakeBookingStore) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	copy := *booking
	return &copy, nil
}

func (s *fakeBookingStore) GetForUpdate(ctx context.Context, id string) (*models.Booking, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeBookingStore) GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, booking := range s.bookings {
		if booking.ProviderPaymentID != nil && *booking.ProviderPaymentID == providerPaymentID {
			copy := *booking
			return &copy, nil
		}
	}
	return nil, nil
}

func (s *fakeBookingStore) FindOverlapping(ctx context.Context, listingID string, checkIn, checkOut time.Time) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findErr != nil {
		return nil, s.findErr
	}

	var result []models.Booking
	for _, booking := range s.bookings {
		if booking.ListingID != listingID || booking.Status == models.BookingCancelled {
			continue
		}
		if booking.CheckIn.Before(checkOut) && booking.CheckOut.After(checkIn) {
			result = append(result, *booking)
		}
	}
	return result, nil
}

func (s *fakeBookingStore) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[id]
	if !ok {
		return apperrors.ErrBookingNotFound
	}
	booking.Status = status
	booking.UpdatedAt = time.Now()
	return nil
}

func (s *fakeBookingStore) ListByGuest(ctx context.Context, guestUserID int64) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Booking
	for _, booking := range s.bookings {
		if booking.GuestUserID == guestUserID {
			result = append(result, *booking)
		}
	}
	return result, nil
}

func (s *fakeBookingStore) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Booking
	for _, booking := range s.bookings {
		if booking.Status == models.BookingPending &&
			booking.ProviderPaymentID == nil &&
			booking.CreatedAt.Before(cutoff) {
			result = append(result, *booking)
		}
	}
	return result, nil
}

func (s *fakeBookingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

type fakeListingStore struct {
	listings map[string]*models.Listing
}

func newFakeListingStore(listings ...*models.Listing) *fakeListingStore {
	store := &fakeListingStore{listings: make(map[string]*models.Listing)}
	for _, listing := range listings {
		store.listings[listing.ID] = listing
	}
	return store
}

func (s *fakeListingStore) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	listing, ok := s.listings[id]
	if !ok {
		return nil, nil
	}
	copy := *listing
	return &copy, nil
}

// fakePublisher records published events per subject.
type fakePublisher struct {
	mu     sync.Mutex
	events map[string][]interface{}
	err    error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{events: make(map[string][]interface{})}
}

func (p *fakePublisher) Publish(subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events[subject] = append(p.events[subject], data)
	return nil
}

func (p *fakePublisher) published(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events[subject])
}

type fakePayments struct {
	lastAmount       int64
	lastCurrency     string
	lastMetadata     map[string]string
	cancelledID      string
	cancelReason     string
	result           external.PaymentIntentResult
	err              error
	cancelPaymentErr error
}

func (p *fakePayments) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (external.PaymentIntentResult, error) {
	p.lastAmount = amount
	p.lastCurrency = currency
	p.lastMetadata = metadata
	if p.err != nil {
		return external.PaymentIntentResult{}, p.err
	}
	return p.result, nil
}

func (p *fakePayments) CancelPayment(ctx context.Context, paymentID, reason string) error {
	p.cancelledID = paymentID
	p.cancelReason = reason
	return p.cancelPaymentErr
}

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(models.DateLayout, value)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return parsed
}

func testListing() *models.Listing {
	return &models.Listing{
		ID:           "11111111-1111-1111-1111-111111111111",
		HostID:       7,
		Title:        "Cabin by the lake",
		NightlyPrice: 10000,
		Active:       true,
	}
}
