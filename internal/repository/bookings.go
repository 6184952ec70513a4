package repository

import (
	"context"
	"database/sql"
	"time"

	"homestay/internal/database"
	"homestay/internal/models"
)

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.DB
}

// WithTx runs fn inside a single database transaction. Repository calls
// made with the returned context join that transaction.
func (r *BookingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, fn)
}

const bookingColumns = `id, listing_id, guest_user_id, check_in, check_out, guest_count,
	       total_price, status, provider_payment_id, needs_review, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }, b *models.Booking) error {
	return row.Scan(
		&b.ID,
		&b.ListingID,
		&b.GuestUserID,
		&b.CheckIn,
		&b.CheckOut,
		&b.GuestCount,
		&b.TotalPrice,
		&b.Status,
		&b.ProviderPaymentID,
		&b.NeedsReview,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
}

func (r *BookingRepository) Insert(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (id, listing_id, guest_user_id, check_in, check_out,
		                      guest_count, total_price, status, provider_payment_id, needs_review)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.q(ctx).QueryRowContext(ctx, query,
		booking.ID,
		booking.ListingID,
		booking.GuestUserID,
		booking.CheckIn,
		booking.CheckOut,
		booking.GuestCount,
		booking.TotalPrice,
		booking.Status,
		booking.ProviderPaymentID,
		booking.NeedsReview,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return mapInsertError(err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	err := scanBooking(r.q(ctx).QueryRowContext(ctx, query, id), booking)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapInsertError(err)
	}
	return booking, nil
}

// GetForUpdate locks the booking row for the rest of the surrounding
// transaction. Only meaningful inside WithTx.
func (r *BookingRepository) GetForUpdate(ctx context.Context, id string) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	err := scanBooking(r.q(ctx).QueryRowContext(ctx, query, id), booking)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapInsertError(err)
	}
	return booking, nil
}

// GetByProviderPaymentID retrieves a booking by the payment provider's
// payment id (the webhook idempotency key).
func (r *BookingRepository) GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE provider_payment_id = $1`

	err := scanBooking(r.q(ctx).QueryRowContext(ctx, query, providerPaymentID), booking)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// FindOverlapping returns live (PENDING or CONFIRMED) bookings of a
// listing whose [check_in, check_out) ranges intersect the requested
// half-open range.
func (r *BookingRepository) FindOverlapping(ctx context.Context, listingID string, checkIn, checkOut time.Time) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE listing_id = $1
		  AND status IN ('PENDING', 'CONFIRMED')
		  AND check_in < $3
		  AND check_out > $2
		ORDER BY check_in`

	rows, err := r.q(ctx).QueryContext(ctx, query, listingID, checkIn, checkOut)
	if err != nil {
		return nil, mapInsertError(err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var booking models.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.q(ctx).ExecContext(ctx, query, status, id)
	return err
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestUserID int64) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE guest_user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.q(ctx).QueryContext(ctx, query, guestUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var booking models.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// ListExpiredPending retrieves direct-path PENDING bookings created
// before the cutoff. Payment-first bookings are never PENDING, so the
// provider_payment_id filter only guards against future reuse.
func (r *BookingRepository) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'PENDING'
		  AND provider_payment_id IS NULL
		  AND created_at < $1
		ORDER BY created_at ASC`

	rows, err := r.q(ctx).QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var booking models.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}
