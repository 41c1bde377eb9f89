package models

import "time"

// NATS Event Types
const (
	EventBookingCreated    = "booking.created"
	EventPaymentLinkIssued = "payment.link_issued"
	EventBookingConfirmed  = "booking.confirmed"
	EventBookingCancelled  = "booking.cancelled"
	EventBookingCompleted  = "booking.completed"
	EventBookingExpired    = "booking.expired"
)

// BookingCreatedEvent represents a booking creation event
type BookingCreatedEvent struct {
	BookingID  int64     `json:"booking_id"`
	VehicleID  string    `json:"vehicle_id"`
	UserID     int64     `json:"user_id"`
	TotalPrice int64     `json:"total_price"`
	Timestamp  time.Time `json:"timestamp"`
}

// PaymentLinkIssuedEvent represents a payment link issuance event
type PaymentLinkIssuedEvent struct {
	BookingID  int64     `json:"booking_id"`
	LinkID     string    `json:"link_id"`
	TotalPrice int64     `json:"total_price"`
	Timestamp  time.Time `json:"timestamp"`
}

// BookingConfirmedEvent represents a webhook-confirmed payment
type BookingConfirmedEvent struct {
	BookingID int64     `json:"booking_id"`
	ChargeID  string    `json:"charge_id"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCancelledEvent represents a booking cancellation event
type BookingCancelledEvent struct {
	BookingID int64     `json:"booking_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCompletedEvent represents an admin marking a rental finished
type BookingCompletedEvent struct {
	BookingID int64     `json:"booking_id"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingExpiredEvent represents a stale pending booking swept by the
// expiration job
type BookingExpiredEvent struct {
	BookingID int64     `json:"booking_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
