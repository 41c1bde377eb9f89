package integration

import (
	"os"
	"testing"
	"time"

	"motorent/internal/models"
)

// Environment knobs for running against a live stack. Tests are skipped
// when the API URL is not set, so the suite is safe in unit-test runs.
const (
	envAPIURL        = "MOTORENT_API_URL"
	envWebhookSecret = "MOTORENT_WEBHOOK_SECRET"
	envUserEmail     = "MOTORENT_TEST_USER"
	envUserPassword  = "MOTORENT_TEST_PASSWORD"
	envAdminEmail    = "MOTORENT_TEST_ADMIN"
	envAdminPassword = "MOTORENT_TEST_ADMIN_PASSWORD"
)

// setupClients returns user and admin clients, skipping the test when no
// live API is configured.
func setupClients(t *testing.T) (user *TestClient, admin *TestClient, webhookSecret string) {
	t.Helper()

	baseURL := os.Getenv(envAPIURL)
	if baseURL == "" {
		t.Skipf("%s not set, skipping integration test", envAPIURL)
	}

	user = NewTestClient(baseURL,
		getenvDefault(envUserEmail, "renter@motorent.local"),
		getenvDefault(envUserPassword, "renter123"))
	admin = NewTestClient(baseURL,
		getenvDefault(envAdminEmail, "admin@motorent.local"),
		getenvDefault(envAdminPassword, "admin123"))

	return user, admin, os.Getenv(envWebhookSecret)
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// FindAvailableVehicle returns the first rentable vehicle in the catalog
func FindAvailableVehicle(t *testing.T, vehicles models.ListVehiclesResponse) *models.ListVehiclesResponseItem {
	for i := range vehicles {
		if vehicles[i].Available {
			return &vehicles[i]
		}
	}
	t.Fatal("No available vehicles in catalog; seed the database first")
	return nil
}

// RentalWindow returns a future daily rental window of the given length
func RentalWindow(days int) (string, string) {
	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	end := start.Add(time.Duration(days) * 24 * time.Hour)
	return start.Format(time.RFC3339), end.Format(time.RFC3339)
}

// AssertBookingStatus verifies a booking's status in the user's listing
func AssertBookingStatus(t *testing.T, bookings models.ListBookingsResponse, bookingID int64, expected models.BookingStatus) {
	for _, b := range bookings {
		if b.ID == bookingID {
			if b.Status != expected {
				t.Fatalf("Booking %d has status %q, expected %q", bookingID, b.Status, expected)
			}
			return
		}
	}
	t.Fatalf("Booking with ID %d not found in bookings list", bookingID)
}
