package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"motorent/internal/external"
	"motorent/internal/models"
)

// TestClient provides methods for testing the API
type TestClient struct {
	BaseURL    string
	Username   string
	Password   string
	HTTPClient *http.Client
}

// NewTestClient creates a new test client authenticating as the given user
func NewTestClient(baseURL, username, password string) *TestClient {
	return &TestClient{
		BaseURL:  baseURL,
		Username: username,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// makeRequest makes an HTTP request and returns the response
func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Username != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// ListVehicles lists catalog vehicles
func (c *TestClient) ListVehicles(t *testing.T) models.ListVehiclesResponse {
	resp := c.makeRequest(t, "GET", "/api/vehicles", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var vehicles models.ListVehiclesResponse
	if err := json.NewDecoder(resp.Body).Decode(&vehicles); err != nil {
		t.Fatalf("Failed to decode vehicles response: %v", err)
	}

	return vehicles
}

// CreateBooking creates a new booking
func (c *TestClient) CreateBooking(t *testing.T, req models.CreateBookingRequest) *models.CreateBookingResponse {
	resp := c.makeRequest(t, "POST", "/api/bookings", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var booking models.CreateBookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
		t.Fatalf("Failed to decode booking response: %v", err)
	}

	return &booking
}

// ListBookings lists the authenticated user's bookings
func (c *TestClient) ListBookings(t *testing.T) models.ListBookingsResponse {
	resp := c.makeRequest(t, "GET", "/api/bookings", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var bookings models.ListBookingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&bookings); err != nil {
		t.Fatalf("Failed to decode bookings response: %v", err)
	}

	return bookings
}

// InitiatePayment requests a payment link for a booking
func (c *TestClient) InitiatePayment(t *testing.T, bookingID int64) (string, int) {
	req := models.InitiatePaymentRequest{BookingID: bookingID}
	resp := c.makeRequest(t, "PATCH", "/api/bookings/initiatePayment", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode
	}

	var response models.InitiatePaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode payment response: %v", err)
	}

	return response.PaymentURL, resp.StatusCode
}

// UpdateBookingStatus applies an operator status change (requires admin)
func (c *TestClient) UpdateBookingStatus(t *testing.T, bookingID int64, status string) int {
	req := models.UpdateBookingStatusRequest{BookingID: bookingID, Status: status}
	resp := c.makeRequest(t, "PATCH", "/api/bookings/status", req)
	defer resp.Body.Close()
	return resp.StatusCode
}

// SendWebhook delivers a signed payment event to the webhook endpoint
func (c *TestClient) SendWebhook(t *testing.T, payload []byte, secret string) (*http.Response, models.WebhookAckResponse) {
	req, err := http.NewRequest("POST", c.BaseURL+"/api/payments/webhook", bytes.NewBuffer(payload))
	if err != nil {
		t.Fatalf("Failed to create webhook request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(external.SignatureHeader, external.SignPayload(payload, secret, time.Now()))
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to send webhook: %v", err)
	}
	defer resp.Body.Close()

	var ack models.WebhookAckResponse
	body, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(body, &ack)

	return resp, ack
}

// ChargeEventPayload builds a processor charge event referencing a booking
func ChargeEventPayload(t *testing.T, eventType, status string, paid bool, bookingID int64, amount int64) []byte {
	payload := map[string]interface{}{
		"id":   fmt.Sprintf("evt_it_%d", time.Now().UnixNano()),
		"type": eventType,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":       fmt.Sprintf("ch_it_%d", bookingID),
				"status":   status,
				"paid":     paid,
				"amount":   amount,
				"currency": "usd",
				"metadata": map[string]string{
					"booking_id": fmt.Sprintf("%d", bookingID),
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal charge event: %v", err)
	}
	return body
}
