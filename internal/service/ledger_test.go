package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "homestay/internal/errors"
	"homestay/internal/models"
)

// abortingStore мимикрирует транзакционное поведение Postgres: после
// ошибки внутри транзакции каждый следующий оператор в ней тоже падает,
// пока транзакция не завершится.
type abortingStore struct {
	*fakeBookingStore
	hideFromOverlap bool
}

type abortedTxKey struct{}

type abortedTx struct{ failed bool }

func (s *abortingStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(context.WithValue(ctx, abortedTxKey{}, &abortedTx{}))
}

func (s *abortingStore) Insert(ctx context.Context, booking *models.Booking) error {
	state, _ := ctx.Value(abortedTxKey{}).(*abortedTx)
	if state != nil && state.failed {
		return errors.New("pq: current transaction is aborted, commands ignored until end of transaction block")
	}
	err := s.fakeBookingStore.Insert(ctx, booking)
	if err != nil && state != nil {
		state.failed = true
	}
	return err
}

func (s *abortingStore) FindOverlapping(ctx context.Context, listingID string, checkIn, checkOut time.Time) ([]models.Booking, error) {
	if s.hideFromOverlap {
		return nil, nil
	}
	return s.fakeBookingStore.FindOverlapping(ctx, listingID, checkIn, checkOut)
}

func newTestLedger() (*BookingLedger, *fakeBookingStore, *fakePublisher) {
	store := newFakeBookingStore()
	publisher := newFakePublisher()
	ledger := NewBookingLedger(store, NewAvailabilityChecker(store), publisher)
	return ledger, store, publisher
}

func TestLedgerCreate(t *testing.T) {
	ctx := context.Background()
	listing := testListing()

	t.Run("creates pending booking at nightly rate", func(t *testing.T) {
		ledger, store, publisher := newTestLedger()

		booking, err := ledger.Create(ctx, listing, 42, date(t, "2026-04-01"), date(t, "2026-04-04"), 2)
		require.NoError(t, err)

		assert.Equal(t, models.BookingPending, booking.Status)
		assert.Equal(t, int64(30000), booking.TotalPrice) // 3 ночи по 10000
		assert.Equal(t, int64(42), booking.GuestUserID)
		assert.Nil(t, booking.ProviderPaymentID)
		assert.Equal(t, 1, store.count())
		assert.Equal(t, 1, publisher.published(models.EventBookingCreated))
	})

	t.Run("rejects zero guests", func(t *testing.T) {
		ledger, store, _ := newTestLedger()

		_, err := ledger.Create(ctx, listing, 42, date(t, "2026-04-01"), date(t, "2026-04-04"), 0)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Equal(t, 0, store.count())
	})

	t.Run("rejects reversed range", func(t *testing.T) {
		ledger, _, _ := newTestLedger()

		_, err := ledger.Create(ctx, listing, 42, date(t, "2026-04-04"), date(t, "2026-04-01"), 1)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("rejects occupied range", func(t *testing.T) {
		ledger, store, publisher := newTestLedger()

		_, err := ledger.Create(ctx, listing, 1, date(t, "2026-04-01"), date(t, "2026-04-05"), 1)
		require.NoError(t, err)

		_, err = ledger.Create(ctx, listing, 2, date(t, "2026-04-03"), date(t, "2026-04-07"), 1)
		assert.ErrorIs(t, err, apperrors.ErrDateRangeUnavailable)
		assert.Equal(t, 1, store.count())
		assert.Equal(t, 1, publisher.published(models.EventBookingCreated))
	})
}

func TestLedgerCreateConfirmed(t *testing.T) {
	ctx := context.Background()
	listing := testListing()

	params := func(t *testing.T) BookingParams {
		return BookingParams{
			ListingID:   listing.ID,
			GuestUserID: 42,
			CheckIn:     date(t, "2026-05-01"),
			CheckOut:    date(t, "2026-05-04"),
			GuestCount:  2,
			TotalPrice:  33600,
		}
	}

	t.Run("free dates produce clean confirmed booking", func(t *testing.T) {
		ledger, _, _ := newTestLedger()

		booking, err := ledger.CreateConfirmed(ctx, params(t), "pay_123")
		require.NoError(t, err)

		assert.Equal(t, models.BookingConfirmed, booking.Status)
		assert.False(t, booking.NeedsReview)
		require.NotNil(t, booking.ProviderPaymentID)
		assert.Equal(t, "pay_123", *booking.ProviderPaymentID)
		// Цена берется из параметров, не пересчитывается
		assert.Equal(t, int64(33600), booking.TotalPrice)
	})

	t.Run("occupied dates flag the booking for review", func(t *testing.T) {
		ledger, store, _ := newTestLedger()

		_, err := ledger.Create(ctx, listing, 1, date(t, "2026-05-01"), date(t, "2026-05-04"), 1)
		require.NoError(t, err)

		booking, err := ledger.CreateConfirmed(ctx, params(t), "pay_456")
		require.NoError(t, err)

		assert.Equal(t, models.BookingConfirmed, booking.Status)
		assert.True(t, booking.NeedsReview)
		assert.Equal(t, 2, store.count())
	})

	t.Run("lost insert race retries in a fresh transaction", func(t *testing.T) {
		// Прямая бронь закоммитилась между проверкой доступности и
		// вставкой: проверка ее не видит, вставка упирается в
		// ограничение и обрывает транзакцию
		store := &abortingStore{fakeBookingStore: newFakeBookingStore(), hideFromOverlap: true}
		ledger := NewBookingLedger(store, NewAvailabilityChecker(store), newFakePublisher())

		_, err := ledger.Create(ctx, listing, 1, date(t, "2026-05-01"), date(t, "2026-05-04"), 1)
		require.NoError(t, err)

		booking, err := ledger.CreateConfirmed(ctx, params(t), "pay_race")
		require.NoError(t, err)

		assert.Equal(t, models.BookingConfirmed, booking.Status)
		assert.True(t, booking.NeedsReview)
		assert.Equal(t, 2, store.count())
	})

	t.Run("duplicate provider payment id rejected", func(t *testing.T) {
		ledger, store, _ := newTestLedger()

		_, err := ledger.CreateConfirmed(ctx, params(t), "pay_dup")
		require.NoError(t, err)

		later := params(t)
		later.CheckIn = date(t, "2026-06-01")
		later.CheckOut = date(t, "2026-06-04")
		_, err = ledger.CreateConfirmed(ctx, later, "pay_dup")
		assert.ErrorIs(t, err, apperrors.ErrDuplicatePayment)
		assert.Equal(t, 1, store.count())
	})

	t.Run("rejects invalid params", func(t *testing.T) {
		ledger, _, _ := newTestLedger()

		bad := params(t)
		bad.GuestCount = 0
		_, err := ledger.CreateConfirmed(ctx, bad, "pay_bad1")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		bad = params(t)
		bad.CheckOut = bad.CheckIn
		_, err = ledger.CreateConfirmed(ctx, bad, "pay_bad2")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestLedgerConfirm(t *testing.T) {
	ctx := context.Background()
	listing := testListing()

	t.Run("pending becomes confirmed", func(t *testing.T) {
		ledger, _, publisher := newTestLedger()

		created, err := ledger.Create(ctx, listing, 1, date(t, "2026-07-01"), date(t, "2026-07-03"), 1)
		require.NoError(t, err)

		confirmed, err := ledger.Confirm(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingConfirmed, confirmed.Status)
		assert.Equal(t, 1, publisher.published(models.EventBookingConfirmed))
	})

	t.Run("confirm is idempotent", func(t *testing.T) {
		ledger, _, publisher := newTestLedger()

		created, err := ledger.Create(ctx, listing, 1, date(t, "2026-07-01"), date(t, "2026-07-03"), 1)
		require.NoError(t, err)

		_, err = ledger.Confirm(ctx, created.ID)
		require.NoError(t, err)

		again, err := ledger.Confirm(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingConfirmed, again.Status)
		// Событие не дублируется
		assert.Equal(t, 1, publisher.published(models.EventBookingConfirmed))
	})

	t.Run("cancelled stays cancelled", func(t *testing.T) {
		ledger, _, _ := newTestLedger()

		created, err := ledger.Create(ctx, listing, 1, date(t, "2026-07-01"), date(t, "2026-07-03"), 1)
		require.NoError(t, err)

		_, err = ledger.Cancel(ctx, created.ID, "guest")
		require.NoError(t, err)

		_, err = ledger.Confirm(ctx, created.ID)
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	})

	t.Run("missing booking", func(t *testing.T) {
		ledger, _, _ := newTestLedger()

		_, err := ledger.Confirm(ctx, "no-such-booking")
		assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)
	})
}

func TestLedgerExpirePending(t *testing.T) {
	ctx := context.Background()
	listing := testListing()

	t.Run("pending booking is cancelled", func(t *testing.T) {
		ledger, store, publisher := newTestLedger()

		created, err := ledger.Create(ctx, listing, 1, date(t, "2026-09-01"), date(t, "2026-09-03"), 1)
		require.NoError(t, err)

		expired, err := ledger.ExpirePending(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, expired)

		got, err := store.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingCancelled, got.Status)
		assert.Equal(t, 1, publisher.published(models.EventBookingCancelled))
	})

	t.Run("confirmed booking is left alone", func(t *testing.T) {
		ledger, store, publisher := newTestLedger()

		created, err := ledger.Create(ctx, listing, 1, date(t, "2026-09-01"), date(t, "2026-09-03"), 1)
		require.NoError(t, err)
		_, err = ledger.Confirm(ctx, created.ID)
		require.NoError(t, err)

		expired, err := ledger.ExpirePending(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, expired)

		got, err := store.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingConfirmed, got.Status)
		assert.Equal(t, 0, publisher.published(models.EventBookingCancelled))
	})

	t.Run("missing booking is a no-op", func(t *testing.T) {
		ledger, _, _ := newTestLedger()

		expired, err := ledger.ExpirePending(ctx, "no-such-booking")
		require.NoError(t, err)
		assert.False(t, expired)
	})
}

func TestLedgerCancel(t *testing.T) {
	ctx := context.Background()
	listing := testListing()

	t.Run("pending becomes cancelled", func(t *testing.T) {
		ledger, _, publisher := newTestLedger()

		created, err := ledger.Create(ctx, listing, 1, date(t, "2026-08-01"), date(t, "2026-08-03"), 1)
		require.NoError(t, err)

		cancelled, err := ledger.Cancel(ctx, created.ID, "guest")
		require.NoError(t, err)
		assert.Equal(t, models.BookingCancelled, cancelled.Status)
		assert.Equal(t, 1, publisher.published(models.EventBookingCancelled))
	})

	t.Run("confirmed becomes cancelled", func(t *testing.T) {
		ledger, _, _ := newTestLedger()

		created, err := ledger.Create(ctx, listing, 1, date(t, "2026-08-01"), date(t, "2026-08-03"), 1)
		require.NoError(t, err)
		_, err = ledger.Confirm(ctx, created.ID)
		require.NoError(t, err)

		cancelled, err := ledger.Cancel(ctx, created.ID, "guest")
		require.NoError(t, err)
		assert.Equal(t, models.BookingCancelled, cancelled.Status)
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		ledger, _, publisher := newTestLedger()

		created, err := ledger.Create(ctx, listing, 1, date(t, "2026-08-01"), date(t, "2026-08-03"), 1)
		require.NoError(t, err)

		_, err = ledger.Cancel(ctx, created.ID, "guest")
		require.NoError(t, err)

		again, err := ledger.Cancel(ctx, created.ID, "guest")
		require.NoError(t, err)
		assert.Equal(t, models.BookingCancelled, again.Status)
		assert.Equal(t, 1, publisher.published(models.EventBookingCancelled))
	})

	t.Run("missing booking is an invalid transition", func(t *testing.T) {
		ledger, _, _ := newTestLedger()

		_, err := ledger.Cancel(ctx, "no-such-booking", "guest")
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	})

	t.Run("cancellation frees the dates", func(t *testing.T) {
		ledger, _, _ := newTestLedger()

		created, err := ledger.Create(ctx, listing, 1, date(t, "2026-08-01"), date(t, "2026-08-05"), 1)
		require.NoError(t, err)

		_, err = ledger.Cancel(ctx, created.ID, "guest")
		require.NoError(t, err)

		_, err = ledger.Create(ctx, listing, 2, date(t, "2026-08-01"), date(t, "2026-08-05"), 1)
		assert.NoError(t, err)
	})
}
