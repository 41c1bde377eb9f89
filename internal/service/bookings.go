package service

import (
	"context"
	"fmt"
	"time"

	apperrors "motorent/internal/errors"
	"motorent/internal/external"
	"motorent/internal/logger"
	"motorent/internal/models"
	"motorent/internal/pricing"
)

type BookingService struct {
	bookingStore BookingStore
	vehicleStore VehicleStore
	linkIssuer   LinkIssuer
	publisher    Publisher
}

func NewBookingService(bookingStore BookingStore, vehicleStore VehicleStore, linkIssuer LinkIssuer, publisher Publisher) *BookingService {
	return &BookingService{
		bookingStore: bookingStore,
		vehicleStore: vehicleStore,
		linkIssuer:   linkIssuer,
		publisher:    publisher,
	}
}

// Create validates the request, recomputes the rental price server-side and
// persists the booking in pending state. Client-supplied total_price is only
// ever checked against the computed value, never trusted.
func (s *BookingService) Create(ctx context.Context, userID int64, req *models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start_date: %v", apperrors.ErrValidation, err)
	}
	end, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end_date: %v", apperrors.ErrValidation, err)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end_date must be after start_date", apperrors.ErrValidation)
	}

	mode := models.RateMode(req.RentType)
	if !models.ValidRateMode(mode) {
		return nil, fmt.Errorf("%w: unknown rent_type %q", apperrors.ErrValidation, req.RentType)
	}

	vehicle, err := s.vehicleStore.GetByID(ctx, req.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	if vehicle == nil {
		return nil, fmt.Errorf("%w: vehicle not found", apperrors.ErrValidation)
	}
	if !vehicle.Available {
		return nil, fmt.Errorf("%w: vehicle is not available", apperrors.ErrValidation)
	}

	total := pricing.Total(start, end, mode, vehicle.PricePerDay)
	if total <= 0 {
		return nil, fmt.Errorf("%w: rental period is too short to price", apperrors.ErrValidation)
	}
	if req.TotalPrice != nil && *req.TotalPrice != total {
		return nil, fmt.Errorf("%w: total_price mismatch: expected %d", apperrors.ErrValidation, total)
	}

	booking := &models.Booking{
		UserID:     userID,
		VehicleID:  vehicle.ID,
		StartDate:  start,
		EndDate:    end,
		RentType:   mode,
		TotalPrice: total,
		Status:     models.StatusPending,
	}

	if err := s.bookingStore.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.publish(ctx, models.EventBookingCreated, models.BookingCreatedEvent{
		BookingID:  booking.ID,
		VehicleID:  booking.VehicleID,
		UserID:     booking.UserID,
		TotalPrice: booking.TotalPrice,
		Timestamp:  time.Now(),
	}, booking.ID)

	return &models.CreateBookingResponse{
		ID:         booking.ID,
		TotalPrice: booking.TotalPrice,
		Status:     booking.Status,
	}, nil
}

func (s *BookingService) List(ctx context.Context, userID int64) ([]models.ListBookingsResponseItem, error) {
	bookings, err := s.bookingStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}

	result := make([]models.ListBookingsResponseItem, len(bookings))
	for i, booking := range bookings {
		result[i] = models.ListBookingsResponseItem{
			ID:         booking.ID,
			VehicleID:  booking.VehicleID,
			StartDate:  booking.StartDate.Format(time.RFC3339),
			EndDate:    booking.EndDate.Format(time.RFC3339),
			TotalPrice: booking.TotalPrice,
			Status:     booking.Status,
		}
	}

	return result, nil
}

func (s *BookingService) ListAll(ctx context.Context) ([]models.BookingSummary, error) {
	bookings, err := s.bookingStore.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	return bookings, nil
}

// InitiatePayment issues a hosted checkout link for a pending booking and
// returns its URL. The booking record itself is not modified: confirmation
// only ever arrives through the payment webhook.
func (s *BookingService) InitiatePayment(ctx context.Context, req *models.InitiatePaymentRequest) (string, error) {
	booking, err := s.bookingStore.GetByID(ctx, req.BookingID)
	if err != nil {
		return "", fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return "", fmt.Errorf("%w: booking %d", apperrors.ErrNotFound, req.BookingID)
	}
	if booking.Status != models.StatusPending {
		return "", fmt.Errorf("%w: cannot initiate payment for %s booking", apperrors.ErrInvalidTransition, booking.Status)
	}

	link, err := s.linkIssuer.CreatePaymentLink(ctx, external.LinkRequest{
		BookingID:  booking.ID,
		VehicleID:  booking.VehicleID,
		StartDate:  booking.StartDate,
		EndDate:    booking.EndDate,
		TotalPrice: booking.TotalPrice,
		RentType:   booking.RentType,
		Hours:      pricing.WholeHours(booking.StartDate, booking.EndDate),
		Days:       pricing.WholeDays(booking.StartDate, booking.EndDate),
	})
	if err != nil {
		return "", err
	}

	s.publish(ctx, models.EventPaymentLinkIssued, models.PaymentLinkIssuedEvent{
		BookingID:  booking.ID,
		LinkID:     link.ID,
		TotalPrice: booking.TotalPrice,
		Timestamp:  time.Now(),
	}, booking.ID)

	return link.URL, nil
}

// ConfirmFromPayment marks a booking paid in response to a verified
// processor event. The conditional update in the store makes redelivered
// events a no-op.
func (s *BookingService) ConfirmFromPayment(ctx context.Context, bookingID int64, chargeID string) error {
	if err := s.bookingStore.UpdateStatus(ctx, bookingID, models.StatusConfirmed); err != nil {
		return err
	}

	s.publish(ctx, models.EventBookingConfirmed, models.BookingConfirmedEvent{
		BookingID: bookingID,
		ChargeID:  chargeID,
		Timestamp: time.Now(),
	}, bookingID)

	return nil
}

// UpdateStatus applies an operator-driven transition. Pending is never a
// valid target: bookings are born pending and only move forward.
func (s *BookingService) UpdateStatus(ctx context.Context, req *models.UpdateBookingStatusRequest) error {
	status := models.BookingStatus(req.Status)
	switch status {
	case models.StatusConfirmed, models.StatusCancelled, models.StatusCompleted:
	default:
		return fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, req.Status)
	}

	if err := s.bookingStore.UpdateStatus(ctx, req.BookingID, status); err != nil {
		return err
	}

	now := time.Now()
	switch status {
	case models.StatusConfirmed:
		s.publish(ctx, models.EventBookingConfirmed, models.BookingConfirmedEvent{
			BookingID: req.BookingID,
			Timestamp: now,
		}, req.BookingID)
	case models.StatusCancelled:
		s.publish(ctx, models.EventBookingCancelled, models.BookingCancelledEvent{
			BookingID: req.BookingID,
			Reason:    "cancelled by operator",
			Timestamp: now,
		}, req.BookingID)
	case models.StatusCompleted:
		s.publish(ctx, models.EventBookingCompleted, models.BookingCompletedEvent{
			BookingID: req.BookingID,
			Timestamp: now,
		}, req.BookingID)
	}

	return nil
}

// ExpireStale cancels pending bookings created before the cutoff. Returns
// the number of bookings swept. Bookings that were confirmed between the
// listing and the update are skipped by the store's transition check.
func (s *BookingService) ExpireStale(ctx context.Context, before time.Time) (int, error) {
	stale, err := s.bookingStore.ListExpired(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired bookings: %w", err)
	}

	swept := 0
	for _, booking := range stale {
		if err := s.bookingStore.UpdateStatus(ctx, booking.ID, models.StatusCancelled); err != nil {
			logger.WithContext(ctx).Warn("Failed to expire booking",
				"error", err,
				"booking_id", booking.ID)
			continue
		}
		swept++

		s.publish(ctx, models.EventBookingExpired, models.BookingExpiredEvent{
			BookingID: booking.ID,
			Reason:    "payment window elapsed",
			Timestamp: time.Now(),
		}, booking.ID)
	}

	return swept, nil
}

// publish emits an event and logs failures without failing the operation.
func (s *BookingService) publish(ctx context.Context, subject string, data interface{}, bookingID int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"booking_id", bookingID,
			"event_type", subject)
	}
}
