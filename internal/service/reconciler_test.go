package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "homestay/internal/errors"
	"homestay/internal/models"
)

func newTestReconciler() (*PaymentReconciler, *fakeBookingStore, *fakePublisher) {
	store := newFakeBookingStore()
	publisher := newFakePublisher()
	ledger := NewBookingLedger(store, NewAvailabilityChecker(store), publisher)
	return NewPaymentReconciler(store, ledger, publisher), store, publisher
}

func validMetadata() map[string]string {
	return map[string]string{
		"listing_id":    "11111111-1111-1111-1111-111111111111",
		"guest_user_id": "42",
		"check_in":      "2026-09-01",
		"check_out":     "2026-09-04",
		"guest_count":   "2",
		"total_price":   "33600",
	}
}

func TestHandlePaymentSucceeded(t *testing.T) {
	ctx := context.Background()

	t.Run("creates confirmed booking from metadata", func(t *testing.T) {
		reconciler, store, _ := newTestReconciler()

		booking, err := reconciler.HandlePaymentSucceeded(ctx, "pay_1", validMetadata())
		require.NoError(t, err)

		assert.Equal(t, models.BookingConfirmed, booking.Status)
		assert.False(t, booking.NeedsReview)
		assert.Equal(t, int64(42), booking.GuestUserID)
		// Цена доверяется метаданным, не пересчитывается по листингу
		assert.Equal(t, int64(33600), booking.TotalPrice)
		assert.Equal(t, 1, store.count())
	})

	t.Run("redelivery returns the same booking", func(t *testing.T) {
		reconciler, store, _ := newTestReconciler()

		first, err := reconciler.HandlePaymentSucceeded(ctx, "pay_2", validMetadata())
		require.NoError(t, err)

		second, err := reconciler.HandlePaymentSucceeded(ctx, "pay_2", validMetadata())
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, store.count())
	})

	t.Run("empty provider payment id", func(t *testing.T) {
		reconciler, _, _ := newTestReconciler()

		_, err := reconciler.HandlePaymentSucceeded(ctx, "", validMetadata())
		assert.ErrorIs(t, err, apperrors.ErrInvalidWebhookPayload)
	})

	t.Run("malformed metadata", func(t *testing.T) {
		reconciler, store, _ := newTestReconciler()

		mutations := map[string]func(m map[string]string){
			"nil metadata":        nil,
			"missing listing":     func(m map[string]string) { delete(m, "listing_id") },
			"bad guest id":        func(m map[string]string) { m["guest_user_id"] = "abc" },
			"bad check in":        func(m map[string]string) { m["check_in"] = "01.09.2026" },
			"reversed dates":      func(m map[string]string) { m["check_in"], m["check_out"] = m["check_out"], m["check_in"] },
			"zero guests":         func(m map[string]string) { m["guest_count"] = "0" },
			"negative price":      func(m map[string]string) { m["total_price"] = "-1" },
			"non numeric price":   func(m map[string]string) { m["total_price"] = "lots" },
			"missing guest count": func(m map[string]string) { delete(m, "guest_count") },
		}

		for name, mutate := range mutations {
			t.Run(name, func(t *testing.T) {
				var metadata map[string]string
				if mutate != nil {
					metadata = validMetadata()
					mutate(metadata)
				}

				_, err := reconciler.HandlePaymentSucceeded(ctx, "pay_"+name, metadata)
				assert.ErrorIs(t, err, apperrors.ErrInvalidWebhookPayload)
			})
		}

		assert.Equal(t, 0, store.count())
	})

	t.Run("conflicting paid booking is flagged and reported", func(t *testing.T) {
		reconciler, store, publisher := newTestReconciler()
		ledger := NewBookingLedger(store, NewAvailabilityChecker(store), publisher)

		_, err := ledger.Create(ctx, testListing(), 1, date(t, "2026-09-01"), date(t, "2026-09-04"), 1)
		require.NoError(t, err)

		booking, err := reconciler.HandlePaymentSucceeded(ctx, "pay_conflict", validMetadata())
		require.NoError(t, err)

		assert.Equal(t, models.BookingConfirmed, booking.Status)
		assert.True(t, booking.NeedsReview)
		assert.Equal(t, 1, publisher.published(models.EventBookingConflict))
		assert.Equal(t, 2, store.count())
	})
}

func TestHandlePaymentFailed(t *testing.T) {
	ctx := context.Background()

	t.Run("records failure without touching bookings", func(t *testing.T) {
		reconciler, store, publisher := newTestReconciler()

		err := reconciler.HandlePaymentFailed(ctx, "pay_failed", "card_declined")
		require.NoError(t, err)

		assert.Equal(t, 0, store.count())
		assert.Equal(t, 1, publisher.published(models.EventPaymentFailed))
	})

	t.Run("empty provider payment id", func(t *testing.T) {
		reconciler, _, _ := newTestReconciler()

		err := reconciler.HandlePaymentFailed(ctx, "", "card_declined")
		assert.ErrorIs(t, err, apperrors.ErrInvalidWebhookPayload)
	})
}
