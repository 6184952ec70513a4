// Package pricing computes booking totals. It is pure: no I/O, no
// clock, same inputs always produce the same quote.
package pricing

import (
	"math"
	"time"

	apperrors "homestay/internal/errors"
)

// Quote is the price breakdown for a stay. All amounts are in the
// smallest currency unit.
type Quote struct {
	Nights   int   `json:"nights"`
	Subtotal int64 `json:"subtotal"`
	Fee      int64 `json:"fee"`
	Total    int64 `json:"total"`
}

// ComputeTotal prices a stay of [checkIn, checkOut) at nightlyPrice per
// night plus an optional service fee. The fee is rounded half-up to the
// nearest currency unit. Returns ErrInvalidRange when the stay is
// shorter than one night.
func ComputeTotal(nightlyPrice int64, checkIn, checkOut time.Time, feeRate float64) (Quote, error) {
	nights := Nights(checkIn, checkOut)
	if nights < 1 {
		return Quote{}, apperrors.ErrInvalidRange
	}

	subtotal := int64(nights) * nightlyPrice
	fee := int64(math.Floor(float64(subtotal)*feeRate + 0.5))

	return Quote{
		Nights:   nights,
		Subtotal: subtotal,
		Fee:      fee,
		Total:    subtotal + fee,
	}, nil
}

// Nights returns the number of whole days between two calendar dates.
func Nights(checkIn, checkOut time.Time) int {
	return int(toDay(checkOut).Sub(toDay(checkIn)) / (24 * time.Hour))
}

func toDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
