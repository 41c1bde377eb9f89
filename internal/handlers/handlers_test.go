package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "motorent/internal/errors"
	"motorent/internal/external"
	"motorent/internal/middleware"
	"motorent/internal/models"
	"motorent/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

type stubBookingStore struct {
	bookings map[int64]*models.Booking
	nextID   int64
}

func (s *stubBookingStore) Create(_ context.Context, booking *models.Booking) error {
	s.nextID++
	booking.ID = s.nextID
	copied := *booking
	s.bookings[booking.ID] = &copied
	return nil
}

func (s *stubBookingStore) GetByID(_ context.Context, id int64) (*models.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (s *stubBookingStore) ListByUser(_ context.Context, userID int64) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubBookingStore) ListAll(_ context.Context) ([]models.BookingSummary, error) {
	var out []models.BookingSummary
	for _, b := range s.bookings {
		out = append(out, models.BookingSummary{Booking: *b})
	}
	return out, nil
}

func (s *stubBookingStore) UpdateStatus(_ context.Context, id int64, status models.BookingStatus) error {
	b, ok := s.bookings[id]
	if !ok {
		return fmt.Errorf("%w: booking %d", apperrors.ErrNotFound, id)
	}
	if !models.CanTransition(b.Status, status) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, b.Status, status)
	}
	b.Status = status
	return nil
}

func (s *stubBookingStore) ListExpired(_ context.Context, before time.Time) ([]models.Booking, error) {
	return nil, nil
}

type stubVehicleStore struct {
	vehicles map[string]*models.Vehicle
}

func (s *stubVehicleStore) GetByID(_ context.Context, id string) (*models.Vehicle, error) {
	v, ok := s.vehicles[id]
	if !ok {
		return nil, nil
	}
	copied := *v
	return &copied, nil
}

func (s *stubVehicleStore) List(_ context.Context) ([]models.Vehicle, error) {
	var out []models.Vehicle
	for _, v := range s.vehicles {
		out = append(out, *v)
	}
	return out, nil
}

type stubLinkIssuer struct{}

func (stubLinkIssuer) CreatePaymentLink(_ context.Context, req external.LinkRequest) (*external.PaymentLink, error) {
	return &external.PaymentLink{ID: "plink_test", URL: "https://checkout.example.com/plink_test"}, nil
}

// testAuth injects a fixed authenticated user, standing in for BasicAuth.
func testAuth(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(middleware.ContextWithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

func setupRouter(t *testing.T) (*gin.Engine, *stubBookingStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &stubBookingStore{bookings: make(map[int64]*models.Booking)}
	vehicles := &stubVehicleStore{vehicles: map[string]*models.Vehicle{
		"veh-1": {ID: "veh-1", Name: "Vespa", Model: "GTS 300", PricePerDay: 10000, Available: true},
	}}

	services := &service.Services{
		Vehicles: service.NewVehicleService(vehicles, nil),
		Bookings: service.NewBookingService(store, vehicles, stubLinkIssuer{}, nil),
	}
	h := NewHandlers(services, nil, testWebhookSecret)

	r := gin.New()
	api := r.Group("/api")
	{
		vehiclesGroup := api.Group("/vehicles")
		{
			vehiclesGroup.GET("", h.ListVehicles)
			vehiclesGroup.GET("/:id", h.GetVehicle)
		}

		bookings := api.Group("/bookings")
		bookings.Use(testAuth(7))
		{
			bookings.POST("", h.CreateBooking)
			bookings.GET("", h.ListBookings)
			bookings.GET("/all", h.ListAllBookings)
			bookings.PATCH("/initiatePayment", h.InitiatePayment)
			bookings.PATCH("/status", h.UpdateBookingStatus)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/webhook", h.OnPaymentUpdate)
		}
	}

	return r, store
}

func createBooking(t *testing.T, r *gin.Engine) models.CreateBookingResponse {
	t.Helper()

	reqBody := models.CreateBookingRequest{
		VehicleID: "veh-1",
		StartDate: "2026-06-01T10:00:00Z",
		EndDate:   "2026-06-04T10:00:00Z",
		RentType:  "daily",
	}
	jsonBody, _ := json.Marshal(reqBody)
	req, _ := http.NewRequest("POST", "/api/bookings", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var response models.CreateBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func chargeEventBody(t *testing.T, eventType, status string, paid bool, metadata map[string]string) []byte {
	t.Helper()

	payload := map[string]interface{}{
		"id":   "evt_1",
		"type": eventType,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":       "ch_1",
				"status":   status,
				"paid":     paid,
				"amount":   30000,
				"currency": "usd",
				"metadata": metadata,
			},
		},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func postWebhook(r *gin.Engine, body []byte, sign bool) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", "/api/payments/webhook", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	if sign {
		req.Header.Set(external.SignatureHeader, external.SignPayload(body, testWebhookSecret, time.Now()))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateBooking(t *testing.T) {
	r, store := setupRouter(t)

	response := createBooking(t, r)
	assert.Equal(t, int64(30000), response.TotalPrice)
	assert.Equal(t, models.StatusPending, response.Status)
	assert.Equal(t, models.StatusPending, store.bookings[response.ID].Status)
}

func TestCreateBooking_PriceMismatch(t *testing.T) {
	r, _ := setupRouter(t)

	wrong := int64(1)
	reqBody := models.CreateBookingRequest{
		VehicleID:  "veh-1",
		StartDate:  "2026-06-01T10:00:00Z",
		EndDate:    "2026-06-04T10:00:00Z",
		RentType:   "daily",
		TotalPrice: &wrong,
	}
	jsonBody, _ := json.Marshal(reqBody)
	req, _ := http.NewRequest("POST", "/api/bookings", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInitiatePayment(t *testing.T) {
	r, store := setupRouter(t)
	booking := createBooking(t, r)

	reqBody, _ := json.Marshal(models.InitiatePaymentRequest{BookingID: booking.ID})
	req, _ := http.NewRequest("PATCH", "/api/bookings/initiatePayment", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response models.InitiatePaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "https://checkout.example.com/plink_test", response.PaymentURL)

	// Link issuance never mutates booking state.
	assert.Equal(t, models.StatusPending, store.bookings[booking.ID].Status)
}

func TestInitiatePayment_NotPending(t *testing.T) {
	r, store := setupRouter(t)
	booking := createBooking(t, r)
	store.bookings[booking.ID].Status = models.StatusCancelled

	reqBody, _ := json.Marshal(models.InitiatePaymentRequest{BookingID: booking.ID})
	req, _ := http.NewRequest("PATCH", "/api/bookings/initiatePayment", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestWebhook_ConfirmsBooking(t *testing.T) {
	r, store := setupRouter(t)
	booking := createBooking(t, r)

	body := chargeEventBody(t, models.ChargeEventUpdated, "succeeded", true,
		map[string]string{"booking_id": fmt.Sprintf("%d", booking.ID)})

	w := postWebhook(r, body, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var ack models.WebhookAckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.True(t, ack.Received)

	assert.Equal(t, models.StatusConfirmed, store.bookings[booking.ID].Status)
}

func TestWebhook_RedeliveryIsIdempotent(t *testing.T) {
	r, store := setupRouter(t)
	booking := createBooking(t, r)

	body := chargeEventBody(t, models.ChargeEventUpdated, "succeeded", true,
		map[string]string{"booking_id": fmt.Sprintf("%d", booking.ID)})

	assert.Equal(t, http.StatusOK, postWebhook(r, body, true).Code)
	assert.Equal(t, http.StatusOK, postWebhook(r, body, true).Code)
	assert.Equal(t, models.StatusConfirmed, store.bookings[booking.ID].Status)
}

func TestWebhook_RejectsBadSignature(t *testing.T) {
	r, store := setupRouter(t)
	booking := createBooking(t, r)

	body := chargeEventBody(t, models.ChargeEventUpdated, "succeeded", true,
		map[string]string{"booking_id": fmt.Sprintf("%d", booking.ID)})

	// No signature at all.
	w := postWebhook(r, body, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Signature computed with the wrong secret.
	req, _ := http.NewRequest("POST", "/api/payments/webhook", bytes.NewBuffer(body))
	req.Header.Set(external.SignatureHeader, external.SignPayload(body, "whsec_other", time.Now()))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, models.StatusPending, store.bookings[booking.ID].Status)
}

func TestWebhook_IgnoresNonActionableEvents(t *testing.T) {
	r, store := setupRouter(t)
	booking := createBooking(t, r)
	meta := map[string]string{"booking_id": fmt.Sprintf("%d", booking.ID)}

	cases := []struct {
		name string
		body []byte
	}{
		{"wrong event type", chargeEventBody(t, "charge.refunded", "succeeded", true, meta)},
		{"charge not succeeded", chargeEventBody(t, models.ChargeEventUpdated, "pending", false, meta)},
		{"succeeded but unpaid", chargeEventBody(t, models.ChargeEventUpdated, "succeeded", false, meta)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postWebhook(r, tc.body, true)
			assert.Equal(t, http.StatusOK, w.Code)

			var ack models.WebhookAckResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
			assert.True(t, ack.Received)
			assert.Equal(t, models.StatusPending, store.bookings[booking.ID].Status)
		})
	}
}

func TestWebhook_MissingCorrelation(t *testing.T) {
	r, _ := setupRouter(t)
	createBooking(t, r)

	noMeta := chargeEventBody(t, models.ChargeEventUpdated, "succeeded", true, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, postWebhook(r, noMeta, true).Code)

	garbled := chargeEventBody(t, models.ChargeEventUpdated, "succeeded", true,
		map[string]string{"booking_id": "not-a-number"})
	assert.Equal(t, http.StatusBadRequest, postWebhook(r, garbled, true).Code)
}

func TestWebhook_UnknownBooking(t *testing.T) {
	r, _ := setupRouter(t)

	body := chargeEventBody(t, models.ChargeEventUpdated, "succeeded", true,
		map[string]string{"booking_id": "999"})

	w := postWebhook(r, body, true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "booking not found")
}

func TestWebhook_PaymentAfterCancellation(t *testing.T) {
	r, store := setupRouter(t)
	booking := createBooking(t, r)
	store.bookings[booking.ID].Status = models.StatusCancelled

	body := chargeEventBody(t, models.ChargeEventUpdated, "succeeded", true,
		map[string]string{"booking_id": fmt.Sprintf("%d", booking.ID)})

	w := postWebhook(r, body, true)
	assert.Equal(t, http.StatusOK, w.Code)

	var ack models.WebhookAckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.True(t, ack.Received)
	assert.NotEmpty(t, ack.Message)

	assert.Equal(t, models.StatusCancelled, store.bookings[booking.ID].Status)
}

func TestUpdateBookingStatus(t *testing.T) {
	r, store := setupRouter(t)
	booking := createBooking(t, r)

	patch := func(status string) *httptest.ResponseRecorder {
		reqBody, _ := json.Marshal(models.UpdateBookingStatusRequest{BookingID: booking.ID, Status: status})
		req, _ := http.NewRequest("PATCH", "/api/bookings/status", bytes.NewBuffer(reqBody))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	// pending -> completed skips confirmation
	assert.Equal(t, http.StatusConflict, patch("completed").Code)

	assert.Equal(t, http.StatusOK, patch("confirmed").Code)
	assert.Equal(t, http.StatusOK, patch("completed").Code)
	assert.Equal(t, models.StatusCompleted, store.bookings[booking.ID].Status)

	// completed is terminal
	assert.Equal(t, http.StatusConflict, patch("cancelled").Code)
}

func TestGetVehicle(t *testing.T) {
	r, _ := setupRouter(t)

	req, _ := http.NewRequest("GET", "/api/vehicles/veh-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var vehicle models.ListVehiclesResponseItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vehicle))
	assert.Equal(t, "Vespa", vehicle.Name)

	req, _ = http.NewRequest("GET", "/api/vehicles/unknown", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListBookings(t *testing.T) {
	r, _ := setupRouter(t)
	booking := createBooking(t, r)

	req, _ := http.NewRequest("GET", "/api/bookings", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response models.ListBookingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, booking.ID, response[0].ID)
	assert.Equal(t, models.StatusPending, response[0].Status)
}
