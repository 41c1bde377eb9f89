package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "motorent/internal/errors"
	"motorent/internal/models"
)

type PaymentClient struct {
	baseURL    string
	secretKey  string
	currency   string
	httpClient *http.Client
}

type PaymentConfig struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration
}

// LinkRequest describes the checkout the payment processor should host.
// BookingID is embedded as correlation metadata and echoed back by the
// processor in its charge events; it is the only join key between the two
// systems.
type LinkRequest struct {
	BookingID  int64
	VehicleID  string
	StartDate  time.Time
	EndDate    time.Time
	TotalPrice int64
	RentType   models.RateMode
	Hours      int64
	Days       int64
}

// PaymentLink is the single-use hosted checkout resource.
type PaymentLink struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type productResource struct {
	ID string `json:"id"`
}

type priceResource struct {
	ID string `json:"id"`
}

func NewPaymentClient(cfg PaymentConfig) *PaymentClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}

	return &PaymentClient{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		currency:  cfg.Currency,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// CreatePaymentLink creates a product, a price and a payment link on the
// processor, in that order. The three calls are not transactional: if any
// step fails the whole operation fails and the caller gets no partial link.
// The booking record is never touched here.
func (pc *PaymentClient) CreatePaymentLink(ctx context.Context, req LinkRequest) (*PaymentLink, error) {
	bookingID := strconv.FormatInt(req.BookingID, 10)

	var period string
	if req.RentType == models.RateHourly {
		period = fmt.Sprintf("%d hours", req.Hours)
	} else {
		period = fmt.Sprintf("%d days", req.Days)
	}

	productForm := url.Values{
		"name": {fmt.Sprintf("Car Rental - %s", period)},
		"description": {fmt.Sprintf("Rental period: %s to %s",
			req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"))},
		"metadata[booking_id]": {bookingID},
	}

	var product productResource
	if err := pc.postForm(ctx, "/v1/products", productForm, &product); err != nil {
		return nil, fmt.Errorf("%w: create product: %v", apperrors.ErrPaymentLinkFailed, err)
	}

	priceForm := url.Values{
		"currency":    {pc.currency},
		"unit_amount": {strconv.FormatInt(req.TotalPrice, 10)},
		"product":     {product.ID},
	}

	var price priceResource
	if err := pc.postForm(ctx, "/v1/prices", priceForm, &price); err != nil {
		return nil, fmt.Errorf("%w: create price: %v", apperrors.ErrPaymentLinkFailed, err)
	}

	linkForm := url.Values{
		"line_items[0][price]":    {price.ID},
		"line_items[0][quantity]": {"1"},
		"metadata[booking_id]":    {bookingID},
	}

	var link PaymentLink
	if err := pc.postForm(ctx, "/v1/payment_links", linkForm, &link); err != nil {
		return nil, fmt.Errorf("%w: create payment link: %v", apperrors.ErrPaymentLinkFailed, err)
	}

	return &link, nil
}

// DeactivateLink disables a previously issued payment link on the processor
// so an abandoned checkout cannot be completed later.
func (pc *PaymentClient) DeactivateLink(ctx context.Context, linkID string) error {
	form := url.Values{"active": {"false"}}

	var link PaymentLink
	if err := pc.postForm(ctx, "/v1/payment_links/"+linkID, form, &link); err != nil {
		return fmt.Errorf("failed to deactivate payment link: %w", err)
	}

	return nil
}

func (pc *PaymentClient) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+pc.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a bounded chunk for the error message; never the secret.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
