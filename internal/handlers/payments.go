package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "motorent/internal/errors"
	"motorent/internal/external"
	"motorent/internal/middleware"
	"motorent/internal/models"

	"github.com/gin-gonic/gin"
)

// Payments handlers

// InitiatePayment - PATCH /api/bookings/initiatePayment
// Инициировать платеж для бронирования
func (h *Handlers) InitiatePayment(c *gin.Context) {
	var req models.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	paymentURL, err := h.services.Bookings.InitiatePayment(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Failed to initiate payment", "error", err, "booking_id", req.BookingID)
		respondError(c, err, "Failed to initiate payment")
		return
	}

	c.JSON(http.StatusOK, models.InitiatePaymentResponse{PaymentURL: paymentURL})
}

// OnPaymentUpdate - POST /api/payments/webhook
// Принимать асинхронные уведомления от платежного шлюза.
//
// The endpoint always acknowledges deliveries it consciously ignores with
// 200 so the processor stops retrying; it answers 500 only when a retry
// might succeed later.
func (h *Handlers) OnPaymentUpdate(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		middleware.RecordWebhookEvent("bad_payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	header := c.GetHeader(external.SignatureHeader)
	if err := external.VerifySignature(payload, header, h.webhookSecret, external.DefaultSignatureTolerance); err != nil {
		slog.Warn("Webhook signature verification failed", "error", err)
		middleware.RecordWebhookEvent("bad_signature")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	var event models.ChargeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		middleware.RecordWebhookEvent("bad_payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event payload"})
		return
	}

	charge := event.Data.Object
	if event.Type != models.ChargeEventUpdated || !charge.Actionable() {
		slog.Info("Ignoring payment event",
			"event_id", event.ID,
			"event_type", event.Type,
			"charge_status", charge.Status,
			"paid", charge.Paid)
		middleware.RecordWebhookEvent("ignored")
		c.JSON(http.StatusOK, models.WebhookAckResponse{Received: true})
		return
	}

	rawBookingID, ok := charge.Metadata["booking_id"]
	if !ok || rawBookingID == "" {
		slog.Error("Payment event has no booking correlation", "event_id", event.ID, "charge_id", charge.ID)
		middleware.RecordWebhookEvent("missing_correlation")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing booking_id metadata"})
		return
	}

	bookingID, err := strconv.ParseInt(rawBookingID, 10, 64)
	if err != nil {
		slog.Error("Payment event has garbled booking correlation",
			"event_id", event.ID,
			"charge_id", charge.ID,
			"booking_id", rawBookingID)
		middleware.RecordWebhookEvent("missing_correlation")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking_id metadata"})
		return
	}

	err = h.services.Bookings.ConfirmFromPayment(c.Request.Context(), bookingID, charge.ID)
	switch {
	case err == nil:
		slog.Info("Booking confirmed from payment", "booking_id", bookingID, "charge_id", charge.ID)
		middleware.RecordBookingTransition(string(models.StatusConfirmed))
		middleware.RecordWebhookEvent("confirmed")
		c.JSON(http.StatusOK, models.WebhookAckResponse{Received: true})

	case errors.Is(err, apperrors.ErrInvalidTransition):
		// Payment landed after the booking left pending (e.g. swept or
		// cancelled). Ack the delivery so the processor stops retrying;
		// reconciliation is an operator concern.
		slog.Warn("Payment received for non-pending booking",
			"error", err,
			"booking_id", bookingID,
			"charge_id", charge.ID)
		middleware.RecordWebhookEvent("stale")
		c.JSON(http.StatusOK, models.WebhookAckResponse{Received: true, Message: "booking is not pending"})

	case errors.Is(err, apperrors.ErrNotFound):
		slog.Error("Payment event references unknown booking", "booking_id", bookingID, "charge_id", charge.ID)
		middleware.RecordWebhookEvent("not_found")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "booking not found"})

	default:
		slog.Error("Failed to confirm booking from payment", "error", err, "booking_id", bookingID)
		middleware.RecordWebhookEvent("error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update booking"})
	}
}
