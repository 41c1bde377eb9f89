package consumers

import (
	"context"
	"encoding/json"
	"log/slog"

	"motorent/internal/models"
	"motorent/internal/repository"

	"github.com/nats-io/stan.go"
)

// Handlers consume domain events for side effects only: audit logging and
// downstream notifications. Booking state is owned by the API and the
// expiration job; consumers never write it.
type Handlers struct {
	repos *repository.Repositories
}

func NewHandlers(repos *repository.Repositories) *Handlers {
	return &Handlers{repos: repos}
}

func (h *Handlers) HandleBookingCreated(m *stan.Msg) {
	var event models.BookingCreatedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking created event", "error", err)
		return
	}

	slog.Info("Booking created",
		"booking_id", event.BookingID,
		"vehicle_id", event.VehicleID,
		"user_id", event.UserID,
		"total_price", event.TotalPrice)

	// Hook point for confirmation emails and analytics.

	m.Ack()
}

func (h *Handlers) HandlePaymentLinkIssued(m *stan.Msg) {
	var event models.PaymentLinkIssuedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal payment link issued event", "error", err)
		return
	}

	slog.Info("Payment link issued",
		"booking_id", event.BookingID,
		"link_id", event.LinkID,
		"total_price", event.TotalPrice)

	m.Ack()
}

func (h *Handlers) HandleBookingConfirmed(m *stan.Msg) {
	var event models.BookingConfirmedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking confirmed event", "error", err)
		return
	}

	logger := slog.With("booking_id", event.BookingID, "charge_id", event.ChargeID)
	logger.Info("Booking confirmed")

	// Enrich the audit record; the status itself was already written by
	// the webhook before this event was published.
	booking, err := h.repos.Bookings.GetByID(context.Background(), event.BookingID)
	if err != nil {
		logger.Error("Failed to load confirmed booking", "error", err)
		return
	}
	if booking != nil {
		logger.Info("Confirmed booking details",
			"vehicle_id", booking.VehicleID,
			"user_id", booking.UserID,
			"total_price", booking.TotalPrice)
	}

	m.Ack()
}

func (h *Handlers) HandleBookingCancelled(m *stan.Msg) {
	var event models.BookingCancelledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking cancelled event", "error", err)
		return
	}

	slog.Info("Booking cancelled", "booking_id", event.BookingID, "reason", event.Reason)

	m.Ack()
}

func (h *Handlers) HandleBookingCompleted(m *stan.Msg) {
	var event models.BookingCompletedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking completed event", "error", err)
		return
	}

	slog.Info("Booking completed", "booking_id", event.BookingID)

	m.Ack()
}

func (h *Handlers) HandleBookingExpired(m *stan.Msg) {
	var event models.BookingExpiredEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking expired event", "error", err)
		return
	}

	slog.Warn("Booking expired unpaid", "booking_id", event.BookingID, "reason", event.Reason)

	m.Ack()
}
