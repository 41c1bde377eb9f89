package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"motorent/internal/cache"
	apperrors "motorent/internal/errors"
	"motorent/internal/middleware"
	"motorent/internal/models"
	"motorent/internal/service"

	"github.com/gin-gonic/gin"
)

const vehiclesCacheTTL = 30 * time.Second

type Handlers struct {
	services      *service.Services
	valkeyClient  *cache.ValkeyClient
	webhookSecret string
}

func NewHandlers(services *service.Services, valkeyClient *cache.ValkeyClient, webhookSecret string) *Handlers {
	return &Handlers{
		services:      services,
		valkeyClient:  valkeyClient,
		webhookSecret: webhookSecret,
	}
}

// respondError maps domain sentinel errors onto HTTP statuses.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrPaymentLinkFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create payment link"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// Vehicles handlers

// ListVehicles - GET /api/vehicles
// Получить список автомобилей
func (h *Handlers) ListVehicles(c *gin.Context) {
	query := c.Query("query")
	onlyAvailable := c.Query("available") == "true"

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	if page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be >= 1"})
		return
	}
	if pageSize < 1 || pageSize > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pageSize must be between 1 and 100"})
		return
	}

	// Plain listings are cached; search queries always hit the index.
	shouldCache := query == "" && !onlyAvailable
	cacheKey := fmt.Sprintf("vehicles:list:%d:%d", page, pageSize)

	if shouldCache && h.valkeyClient != nil {
		rawJSON, err := h.valkeyClient.GetRaw(c.Request.Context(), cacheKey)
		if err == nil {
			c.Data(http.StatusOK, "application/json", rawJSON)
			return
		}
	}

	response, err := h.services.Vehicles.List(c.Request.Context(), query, onlyAvailable, page, pageSize)
	if err != nil {
		slog.Error("Failed to list vehicles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list vehicles"})
		return
	}

	if shouldCache && h.valkeyClient != nil {
		if data, err := json.Marshal(response); err == nil {
			if err := h.valkeyClient.SetRaw(c.Request.Context(), cacheKey, data, vehiclesCacheTTL); err != nil {
				slog.Warn("Failed to cache vehicles list", "error", err)
			}
		}
	}

	c.JSON(http.StatusOK, response)
}

// GetVehicle - GET /api/vehicles/:id
// Получить автомобиль по ID
func (h *Handlers) GetVehicle(c *gin.Context) {
	vehicle, err := h.services.Vehicles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get vehicle")
		return
	}

	c.JSON(http.StatusOK, vehicle)
}

// Bookings handlers

// CreateBooking - POST /api/bookings
// Создать бронирование
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	response, err := h.services.Bookings.Create(c.Request.Context(), userID, &req)
	if err != nil {
		slog.Error("Failed to create booking", "error", err, "user_id", userID)
		respondError(c, err, "Failed to create booking")
		return
	}

	middleware.RecordBookingTransition(string(models.StatusPending))
	c.JSON(http.StatusCreated, response)
}

// ListBookings - GET /api/bookings
// Получить бронирования текущего пользователя
func (h *Handlers) ListBookings(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	response, err := h.services.Bookings.List(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Failed to list bookings", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list bookings"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListAllBookings - GET /api/bookings/all
// Получить все бронирования (админ)
func (h *Handlers) ListAllBookings(c *gin.Context) {
	response, err := h.services.Bookings.ListAll(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list all bookings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list bookings"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateBookingStatus - PATCH /api/bookings/status
// Сменить статус бронирования (админ)
func (h *Handlers) UpdateBookingStatus(c *gin.Context) {
	var req models.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Bookings.UpdateStatus(c.Request.Context(), &req); err != nil {
		slog.Error("Failed to update booking status", "error", err, "booking_id", req.BookingID)
		respondError(c, err, "Failed to update booking status")
		return
	}

	middleware.RecordBookingTransition(req.Status)
	c.Status(http.StatusOK)
}
