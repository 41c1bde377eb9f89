package models

import (
	"time"
)

// BookingStatus is the closed lifecycle enumeration for a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// priorStatuses maps a target status to the statuses a booking may hold
// before transitioning into it. Terminal states (completed, cancelled)
// never appear as a prior of anything.
var priorStatuses = map[BookingStatus][]BookingStatus{
	StatusConfirmed: {StatusPending},
	StatusCancelled: {StatusPending},
	StatusCompleted: {StatusConfirmed},
}

// PriorStatuses returns the statuses from which target is reachable.
// An empty slice means target is never a transition destination.
func PriorStatuses(target BookingStatus) []BookingStatus {
	return priorStatuses[target]
}

// CanTransition reports whether from -> to is a legal transition.
// Re-applying the current status is allowed and treated as a no-op
// by the store, so from == to is legal for any known status.
func CanTransition(from, to BookingStatus) bool {
	if from == to {
		return true
	}
	for _, prior := range priorStatuses[to] {
		if prior == from {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is one of the known booking statuses.
func ValidStatus(s BookingStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// RateMode determines how a rental charge is computed.
type RateMode string

const (
	RateDaily  RateMode = "daily"
	RateHourly RateMode = "hourly"
)

// ValidRateMode reports whether m is a known rate mode.
func ValidRateMode(m RateMode) bool {
	return m == RateDaily || m == RateHourly
}

// User represents a user in the system
type User struct {
	UserID       int64      `json:"user_id" db:"user_id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FirstName    string     `json:"first_name" db:"first_name"`
	Surname      string     `json:"surname" db:"surname"`
	IsAdmin      bool       `json:"is_admin" db:"is_admin"`
	RegisteredAt time.Time  `json:"registered_at" db:"registered_at"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLoggedIn time.Time  `json:"last_logged_in" db:"last_logged_in"`
	Birthday     *time.Time `json:"birthday,omitempty" db:"birthday"`
}

// Vehicle represents a rentable vehicle in the catalog.
// PricePerDay is in currency minor units (cents).
type Vehicle struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Model       string    `json:"model" db:"model"`
	Year        int       `json:"year" db:"year"`
	PricePerDay int64     `json:"price_per_day" db:"price_per_day"`
	ImageURL    *string   `json:"image_url" db:"image_url"`
	Available   bool      `json:"available" db:"available"`
	Description *string   `json:"description" db:"description"`
	Features    []string  `json:"features" db:"features"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Booking represents a rental agreement with a lifecycle status.
// TotalPrice is in currency minor units (cents).
type Booking struct {
	ID         int64         `json:"id" db:"id"`
	UserID     int64         `json:"user_id" db:"user_id"`
	VehicleID  string        `json:"vehicle_id" db:"vehicle_id"`
	StartDate  time.Time     `json:"start_date" db:"start_date"`
	EndDate    time.Time     `json:"end_date" db:"end_date"`
	RentType   RateMode      `json:"rent_type" db:"rent_type"`
	TotalPrice int64         `json:"total_price" db:"total_price"`
	Status     BookingStatus `json:"status" db:"status"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

// BookingSummary is a booking joined with vehicle and user summaries,
// used by the admin listing.
type BookingSummary struct {
	Booking
	VehicleName  string `json:"vehicle_name" db:"vehicle_name"`
	VehicleModel string `json:"vehicle_model" db:"vehicle_model"`
	UserEmail    string `json:"user_email" db:"user_email"`
	UserName     string `json:"user_name" db:"user_name"`
}
