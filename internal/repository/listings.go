package repository

import (
	"context"
	"database/sql"

	"homestay/internal/database"
	"homestay/internal/models"
)

// ListingRepository is a read-only view over the listings collaborator's
// table. The reservation core never writes listings.
type ListingRepository struct {
	db *database.DB
}

func NewListingRepository(db *database.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.DB
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	listing := &models.Listing{}
	query := `
		SELECT id, host_id, title, nightly_price, active, created_at, updated_at
		FROM listings
		WHERE id = $1`

	err := r.q(ctx).QueryRowContext(ctx, query, id).Scan(
		&listing.ID,
		&listing.HostID,
		&listing.Title,
		&listing.NightlyPrice,
		&listing.Active,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapInsertError(err)
	}
	return listing, nil
}
