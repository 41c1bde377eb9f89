package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	apperrors "motorent/internal/errors"
	"motorent/internal/external"
	"motorent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookingStore struct {
	bookings  map[int64]*models.Booking
	nextID    int64
	updateErr error
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[int64]*models.Booking)}
}

func (f *fakeBookingStore) Create(_ context.Context, booking *models.Booking) error {
	f.nextID++
	booking.ID = f.nextID
	booking.CreatedAt = time.Now()
	copied := *booking
	f.bookings[booking.ID] = &copied
	return nil
}

func (f *fakeBookingStore) GetByID(_ context.Context, id int64) (*models.Booking, error) {
	booking, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingStore) ListByUser(_ context.Context, userID int64) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) ListAll(_ context.Context) ([]models.BookingSummary, error) {
	var out []models.BookingSummary
	for _, b := range f.bookings {
		out = append(out, models.BookingSummary{Booking: *b})
	}
	return out, nil
}

func (f *fakeBookingStore) UpdateStatus(_ context.Context, id int64, status models.BookingStatus) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	booking, ok := f.bookings[id]
	if !ok {
		return fmt.Errorf("%w: booking %d", apperrors.ErrNotFound, id)
	}
	if !models.CanTransition(booking.Status, status) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, booking.Status, status)
	}
	booking.Status = status
	return nil
}

func (f *fakeBookingStore) ListExpired(_ context.Context, before time.Time) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range f.bookings {
		if b.Status == models.StatusPending && b.CreatedAt.Before(before) {
			out = append(out, *b)
		}
	}
	return out, nil
}

type fakeVehicleStore struct {
	vehicles map[string]*models.Vehicle
}

func (f *fakeVehicleStore) GetByID(_ context.Context, id string) (*models.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return nil, nil
	}
	copied := *v
	return &copied, nil
}

func (f *fakeVehicleStore) List(_ context.Context) ([]models.Vehicle, error) {
	var out []models.Vehicle
	for _, v := range f.vehicles {
		out = append(out, *v)
	}
	return out, nil
}

type fakeLinkIssuer struct {
	requests []external.LinkRequest
	err      error
}

func (f *fakeLinkIssuer) CreatePaymentLink(_ context.Context, req external.LinkRequest) (*external.PaymentLink, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &external.PaymentLink{ID: "plink_123", URL: "https://checkout.example.com/plink_123"}, nil
}

type fakePublisher struct {
	subjects []string
}

func (f *fakePublisher) Publish(subject string, _ interface{}) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

func fixture() (*BookingService, *fakeBookingStore, *fakeLinkIssuer, *fakePublisher) {
	store := newFakeBookingStore()
	vehicles := &fakeVehicleStore{vehicles: map[string]*models.Vehicle{
		"veh-1": {ID: "veh-1", Name: "Vespa", Model: "GTS 300", PricePerDay: 10000, Available: true},
		"veh-2": {ID: "veh-2", Name: "Ducati", Model: "Monster", PricePerDay: 24000, Available: false},
	}}
	issuer := &fakeLinkIssuer{}
	pub := &fakePublisher{}
	return NewBookingService(store, vehicles, issuer, pub), store, issuer, pub
}

func TestBookingService_Create_ComputesPrice(t *testing.T) {
	svc, store, _, pub := fixture()

	resp, err := svc.Create(context.Background(), 7, &models.CreateBookingRequest{
		VehicleID: "veh-1",
		StartDate: "2026-06-01T10:00:00Z",
		EndDate:   "2026-06-04T10:00:00Z",
		RentType:  "daily",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(30000), resp.TotalPrice)
	assert.Equal(t, models.StatusPending, resp.Status)

	stored := store.bookings[resp.ID]
	require.NotNil(t, stored)
	assert.Equal(t, int64(7), stored.UserID)
	assert.Equal(t, models.StatusPending, stored.Status)

	assert.Contains(t, pub.subjects, models.EventBookingCreated)
}

func TestBookingService_Create_HourlyRate(t *testing.T) {
	svc, _, _, _ := fixture()

	resp, err := svc.Create(context.Background(), 7, &models.CreateBookingRequest{
		VehicleID: "veh-1",
		StartDate: "2026-06-01T10:00:00Z",
		EndDate:   "2026-06-01T13:00:00Z",
		RentType:  "hourly",
	})
	require.NoError(t, err)

	// 3 hours at 10000/day = 3 * 10000 / 24
	assert.Equal(t, int64(1250), resp.TotalPrice)
}

func TestBookingService_Create_RejectsPriceMismatch(t *testing.T) {
	svc, store, _, _ := fixture()

	wrong := int64(999)
	_, err := svc.Create(context.Background(), 7, &models.CreateBookingRequest{
		VehicleID:  "veh-1",
		StartDate:  "2026-06-01T10:00:00Z",
		EndDate:    "2026-06-04T10:00:00Z",
		RentType:   "daily",
		TotalPrice: &wrong,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, store.bookings)
}

func TestBookingService_Create_AcceptsMatchingClientPrice(t *testing.T) {
	svc, _, _, _ := fixture()

	exact := int64(30000)
	resp, err := svc.Create(context.Background(), 7, &models.CreateBookingRequest{
		VehicleID:  "veh-1",
		StartDate:  "2026-06-01T10:00:00Z",
		EndDate:    "2026-06-04T10:00:00Z",
		RentType:   "daily",
		TotalPrice: &exact,
	})
	require.NoError(t, err)
	assert.Equal(t, exact, resp.TotalPrice)
}

func TestBookingService_Create_Validation(t *testing.T) {
	svc, _, _, _ := fixture()

	cases := []struct {
		name string
		req  models.CreateBookingRequest
	}{
		{"end before start", models.CreateBookingRequest{VehicleID: "veh-1", StartDate: "2026-06-04T10:00:00Z", EndDate: "2026-06-01T10:00:00Z", RentType: "daily"}},
		{"equal dates", models.CreateBookingRequest{VehicleID: "veh-1", StartDate: "2026-06-01T10:00:00Z", EndDate: "2026-06-01T10:00:00Z", RentType: "daily"}},
		{"garbled date", models.CreateBookingRequest{VehicleID: "veh-1", StartDate: "yesterday", EndDate: "2026-06-01T10:00:00Z", RentType: "daily"}},
		{"unknown rent type", models.CreateBookingRequest{VehicleID: "veh-1", StartDate: "2026-06-01T10:00:00Z", EndDate: "2026-06-02T10:00:00Z", RentType: "weekly"}},
		{"unknown vehicle", models.CreateBookingRequest{VehicleID: "nope", StartDate: "2026-06-01T10:00:00Z", EndDate: "2026-06-02T10:00:00Z", RentType: "daily"}},
		{"unavailable vehicle", models.CreateBookingRequest{VehicleID: "veh-2", StartDate: "2026-06-01T10:00:00Z", EndDate: "2026-06-02T10:00:00Z", RentType: "daily"}},
		{"sub-hour rental prices to zero", models.CreateBookingRequest{VehicleID: "veh-1", StartDate: "2026-06-01T10:00:00Z", EndDate: "2026-06-01T10:30:00Z", RentType: "hourly"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), 7, &tc.req)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestBookingService_InitiatePayment(t *testing.T) {
	svc, store, issuer, pub := fixture()

	resp, err := svc.Create(context.Background(), 7, &models.CreateBookingRequest{
		VehicleID: "veh-1",
		StartDate: "2026-06-01T10:00:00Z",
		EndDate:   "2026-06-04T10:00:00Z",
		RentType:  "daily",
	})
	require.NoError(t, err)

	url, err := svc.InitiatePayment(context.Background(), &models.InitiatePaymentRequest{BookingID: resp.ID})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/plink_123", url)

	require.Len(t, issuer.requests, 1)
	assert.Equal(t, resp.ID, issuer.requests[0].BookingID)
	assert.Equal(t, int64(30000), issuer.requests[0].TotalPrice)
	assert.Equal(t, int64(3), issuer.requests[0].Days)

	// Issuing a link must not touch booking state.
	assert.Equal(t, models.StatusPending, store.bookings[resp.ID].Status)

	assert.Contains(t, pub.subjects, models.EventPaymentLinkIssued)
}

func TestBookingService_InitiatePayment_NotFound(t *testing.T) {
	svc, _, _, _ := fixture()

	_, err := svc.InitiatePayment(context.Background(), &models.InitiatePaymentRequest{BookingID: 42})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBookingService_InitiatePayment_RequiresPending(t *testing.T) {
	svc, store, _, _ := fixture()

	resp, err := svc.Create(context.Background(), 7, &models.CreateBookingRequest{
		VehicleID: "veh-1",
		StartDate: "2026-06-01T10:00:00Z",
		EndDate:   "2026-06-04T10:00:00Z",
		RentType:  "daily",
	})
	require.NoError(t, err)
	store.bookings[resp.ID].Status = models.StatusCancelled

	_, err = svc.InitiatePayment(context.Background(), &models.InitiatePaymentRequest{BookingID: resp.ID})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestBookingService_InitiatePayment_IssuerFailureLeavesPending(t *testing.T) {
	svc, store, issuer, _ := fixture()
	issuer.err = fmt.Errorf("%w: gateway timeout", apperrors.ErrPaymentLinkFailed)

	resp, err := svc.Create(context.Background(), 7, &models.CreateBookingRequest{
		VehicleID: "veh-1",
		StartDate: "2026-06-01T10:00:00Z",
		EndDate:   "2026-06-04T10:00:00Z",
		RentType:  "daily",
	})
	require.NoError(t, err)

	_, err = svc.InitiatePayment(context.Background(), &models.InitiatePaymentRequest{BookingID: resp.ID})
	assert.ErrorIs(t, err, apperrors.ErrPaymentLinkFailed)

	// Failure to issue a link keeps the booking payable later.
	assert.Equal(t, models.StatusPending, store.bookings[resp.ID].Status)
}

func TestBookingService_ConfirmFromPayment(t *testing.T) {
	svc, store, _, pub := fixture()

	resp, err := svc.Create(context.Background(), 7, &models.CreateBookingRequest{
		VehicleID: "veh-1",
		StartDate: "2026-06-01T10:00:00Z",
		EndDate:   "2026-06-04T10:00:00Z",
		RentType:  "daily",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ConfirmFromPayment(context.Background(), resp.ID, "ch_1"))
	assert.Equal(t, models.StatusConfirmed, store.bookings[resp.ID].Status)
	assert.Contains(t, pub.subjects, models.EventBookingConfirmed)

	// Redelivery of the same charge event is a no-op.
	require.NoError(t, svc.ConfirmFromPayment(context.Background(), resp.ID, "ch_1"))
	assert.Equal(t, models.StatusConfirmed, store.bookings[resp.ID].Status)
}

func TestBookingService_ConfirmFromPayment_CancelledBooking(t *testing.T) {
	svc, store, _, _ := fixture()

	resp, err := svc.Create(context.Background(), 7, &models.CreateBookingRequest{
		VehicleID: "veh-1",
		StartDate: "2026-06-01T10:00:00Z",
		EndDate:   "2026-06-04T10:00:00Z",
		RentType:  "daily",
	})
	require.NoError(t, err)
	store.bookings[resp.ID].Status = models.StatusCancelled

	err = svc.ConfirmFromPayment(context.Background(), resp.ID, "ch_1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, models.StatusCancelled, store.bookings[resp.ID].Status)
}

func TestBookingService_UpdateStatus(t *testing.T) {
	svc, store, _, pub := fixture()

	resp, err := svc.Create(context.Background(), 7, &models.CreateBookingRequest{
		VehicleID: "veh-1",
		StartDate: "2026-06-01T10:00:00Z",
		EndDate:   "2026-06-04T10:00:00Z",
		RentType:  "daily",
	})
	require.NoError(t, err)

	// pending is never a valid target
	err = svc.UpdateStatus(context.Background(), &models.UpdateBookingStatusRequest{BookingID: resp.ID, Status: "pending"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// pending -> completed skips confirmation
	err = svc.UpdateStatus(context.Background(), &models.UpdateBookingStatusRequest{BookingID: resp.ID, Status: "completed"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	require.NoError(t, svc.UpdateStatus(context.Background(), &models.UpdateBookingStatusRequest{BookingID: resp.ID, Status: "confirmed"}))
	require.NoError(t, svc.UpdateStatus(context.Background(), &models.UpdateBookingStatusRequest{BookingID: resp.ID, Status: "completed"}))

	assert.Equal(t, models.StatusCompleted, store.bookings[resp.ID].Status)
	assert.Contains(t, pub.subjects, models.EventBookingCompleted)
}

func TestBookingService_ExpireStale(t *testing.T) {
	svc, store, _, pub := fixture()

	for i := 0; i < 3; i++ {
		resp, err := svc.Create(context.Background(), 7, &models.CreateBookingRequest{
			VehicleID: "veh-1",
			StartDate: "2026-06-01T10:00:00Z",
			EndDate:   "2026-06-04T10:00:00Z",
			RentType:  "daily",
		})
		require.NoError(t, err)
		store.bookings[resp.ID].CreatedAt = time.Now().Add(-time.Hour)
	}

	// One of them got paid in the meantime.
	store.bookings[2].Status = models.StatusConfirmed

	swept, err := svc.ExpireStale(context.Background(), time.Now().Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, swept)

	assert.Equal(t, models.StatusCancelled, store.bookings[1].Status)
	assert.Equal(t, models.StatusConfirmed, store.bookings[2].Status)
	assert.Equal(t, models.StatusCancelled, store.bookings[3].Status)

	count := 0
	for _, s := range pub.subjects {
		if s == models.EventBookingExpired {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

// Full happy path: create, issue link, confirm via payment event, complete.
func TestBookingService_Lifecycle(t *testing.T) {
	svc, store, _, _ := fixture()

	resp, err := svc.Create(context.Background(), 7, &models.CreateBookingRequest{
		VehicleID: "veh-1",
		StartDate: "2026-06-01T10:00:00Z",
		EndDate:   "2026-06-04T10:00:00Z",
		RentType:  "daily",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, store.bookings[resp.ID].Status)

	_, err = svc.InitiatePayment(context.Background(), &models.InitiatePaymentRequest{BookingID: resp.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, store.bookings[resp.ID].Status)

	require.NoError(t, svc.ConfirmFromPayment(context.Background(), resp.ID, "ch_99"))
	assert.Equal(t, models.StatusConfirmed, store.bookings[resp.ID].Status)

	require.NoError(t, svc.UpdateStatus(context.Background(), &models.UpdateBookingStatusRequest{BookingID: resp.ID, Status: "completed"}))
	assert.Equal(t, models.StatusCompleted, store.bookings[resp.ID].Status)
}
