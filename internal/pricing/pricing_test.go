package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "homestay/internal/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeTotal(t *testing.T) {
	t.Run("three nights no fee", func(t *testing.T) {
		quote, err := ComputeTotal(100, date(2024, 7, 1), date(2024, 7, 4), 0)
		require.NoError(t, err)
		assert.Equal(t, 3, quote.Nights)
		assert.Equal(t, int64(300), quote.Subtotal)
		assert.Equal(t, int64(0), quote.Fee)
		assert.Equal(t, int64(300), quote.Total)
	})

	t.Run("service fee rounds half-up", func(t *testing.T) {
		// 3 nights * 125 = 375; 375 * 0.1 = 37.5 -> 38
		quote, err := ComputeTotal(125, date(2024, 7, 1), date(2024, 7, 4), 0.1)
		require.NoError(t, err)
		assert.Equal(t, int64(38), quote.Fee)
		assert.Equal(t, int64(413), quote.Total)
	})

	t.Run("fee below half rounds down", func(t *testing.T) {
		// 1 night * 107 = 107; 107 * 0.003 = 0.321 -> 0
		quote, err := ComputeTotal(107, date(2024, 7, 1), date(2024, 7, 2), 0.003)
		require.NoError(t, err)
		assert.Equal(t, int64(0), quote.Fee)
		assert.Equal(t, int64(107), quote.Total)
	})

	t.Run("total always subtotal plus fee", func(t *testing.T) {
		rates := []float64{0, 0.05, 0.12, 0.33}
		for _, rate := range rates {
			quote, err := ComputeTotal(9999, date(2024, 1, 10), date(2024, 1, 25), rate)
			require.NoError(t, err)
			assert.Equal(t, quote.Subtotal+quote.Fee, quote.Total)
			assert.GreaterOrEqual(t, quote.Nights, 1)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		first, err := ComputeTotal(4200, date(2025, 3, 1), date(2025, 3, 8), 0.12)
		require.NoError(t, err)
		second, err := ComputeTotal(4200, date(2025, 3, 1), date(2025, 3, 8), 0.12)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("zero nights rejected", func(t *testing.T) {
		_, err := ComputeTotal(100, date(2024, 7, 1), date(2024, 7, 1), 0)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRange)
	})

	t.Run("reversed dates rejected", func(t *testing.T) {
		_, err := ComputeTotal(100, date(2024, 7, 4), date(2024, 7, 1), 0)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRange)
	})
}

func TestNights(t *testing.T) {
	assert.Equal(t, 1, Nights(date(2024, 6, 10), date(2024, 6, 11)))
	assert.Equal(t, 31, Nights(date(2024, 1, 1), date(2024, 2, 1)))
	// Time-of-day noise must not change the night count.
	in := time.Date(2024, 6, 10, 23, 30, 0, 0, time.UTC)
	out := time.Date(2024, 6, 12, 0, 15, 0, 0, time.UTC)
	assert.Equal(t, 2, Nights(in, out))
}
