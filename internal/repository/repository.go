package repository

import (
	"homestay/internal/database"
)

type Repositories struct {
	Listings *ListingRepository
	Bookings *BookingRepository
	Users    *UserRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Listings: NewListingRepository(db),
		Bookings: NewBookingRepository(db),
		Users:    NewUserRepository(db),
	}
}
