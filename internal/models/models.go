package models

// CreateBookingRequest - модель для создания бронирования
type CreateBookingRequest struct {
	VehicleID string `json:"vehicle_id" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	RentType  string `json:"rent_type" binding:"required"`
	// TotalPrice is optional; when the client sends one it must match the
	// server-side computation or the request is rejected.
	TotalPrice *int64 `json:"total_price,omitempty"`
}

// CreateBookingResponse - модель ответа при создании бронирования
type CreateBookingResponse struct {
	ID         int64         `json:"id"`
	TotalPrice int64         `json:"total_price"`
	Status     BookingStatus `json:"status"`
}

// ListBookingsResponseItem - элемент списка бронирований
type ListBookingsResponseItem struct {
	ID         int64         `json:"id"`
	VehicleID  string        `json:"vehicle_id"`
	StartDate  string        `json:"start_date"`
	EndDate    string        `json:"end_date"`
	TotalPrice int64         `json:"total_price"`
	Status     BookingStatus `json:"status"`
}

// ListBookingsResponse - список бронирований
type ListBookingsResponse []ListBookingsResponseItem

// InitiatePaymentRequest - модель для инициации платежа
type InitiatePaymentRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

// InitiatePaymentResponse carries the hosted checkout URL the user is
// redirected to.
type InitiatePaymentResponse struct {
	PaymentURL string `json:"payment_url"`
}

// UpdateBookingStatusRequest - модель для смены статуса бронирования (админ)
type UpdateBookingStatusRequest struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	Status    string `json:"status" binding:"required"`
}

// ListVehiclesResponseItem - элемент списка автомобилей
type ListVehiclesResponseItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Model       string   `json:"model"`
	Year        int      `json:"year"`
	PricePerDay int64    `json:"price_per_day"`
	Available   bool     `json:"available"`
	ImageURL    *string  `json:"image_url,omitempty"`
	Description *string  `json:"description,omitempty"`
	Features    []string `json:"features,omitempty"`
}

// ListVehiclesResponse - список автомобилей
type ListVehiclesResponse []ListVehiclesResponseItem

// ChargeEvent is the payment processor's asynchronous event envelope as
// delivered to the webhook endpoint.
type ChargeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object Charge `json:"object"`
	} `json:"data"`
}

// Charge is the payment object inside a charge event. Metadata carries the
// correlation key ("booking_id") round-tripped from payment-link creation.
type Charge struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Paid     bool              `json:"paid"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

// ChargeEventUpdated is the only actionable event type; a charge inside it
// is actionable only when fully paid and succeeded.
const ChargeEventUpdated = "charge.updated"

// Actionable reports whether the charge represents a successful, fully-paid
// payment.
func (c Charge) Actionable() bool {
	return c.Status == "succeeded" && c.Paid
}

// WebhookAckResponse - ответ платежному шлюзу
type WebhookAckResponse struct {
	Received bool   `json:"received"`
	Message  string `json:"message,omitempty"`
}
