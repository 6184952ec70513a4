package service

import (
	"context"
	"fmt"
	"time"

	apperrors "homestay/internal/errors"
)

// AvailabilityChecker answers whether a date range is free on a
// listing. The check alone is advisory: under concurrency the bookings
// exclusion constraint is what actually closes the check-then-insert
// race, so callers must run the check and the insert in one
// transaction and treat a constraint rejection as unavailability.
type AvailabilityChecker struct {
	bookings BookingStore
}

func NewAvailabilityChecker(bookings BookingStore) *AvailabilityChecker {
	return &AvailabilityChecker{bookings: bookings}
}

// Overlaps reports whether two half-open date ranges [aIn, aOut) and
// [bIn, bOut) share at least one night.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && aOut.After(bIn)
}

func (c *AvailabilityChecker) IsAvailable(ctx context.Context, listingID string, checkIn, checkOut time.Time) (bool, error) {
	existing, err := c.bookings.FindOverlapping(ctx, listingID, checkIn, checkOut)
	if err != nil {
		return false, fmt.Errorf("failed to check availability: %w", err)
	}
	return len(existing) == 0, nil
}

func (c *AvailabilityChecker) AssertAvailable(ctx context.Context, listingID string, checkIn, checkOut time.Time) error {
	available, err := c.IsAvailable(ctx, listingID, checkIn, checkOut)
	if err != nil {
		return err
	}
	if !available {
		return apperrors.ErrDateRangeUnavailable
	}
	return nil
}
