package repository

import (
	"motorent/internal/database"
)

type Repositories struct {
	Bookings *BookingRepository
	Vehicles *VehicleRepository
	Users    *UserRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Bookings: NewBookingRepository(db),
		Vehicles: NewVehicleRepository(db),
		Users:    NewUserRepository(db),
	}
}
