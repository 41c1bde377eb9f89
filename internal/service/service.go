package service

import (
	"context"
	"time"

	"motorent/internal/external"
	"motorent/internal/messaging"
	"motorent/internal/models"
	"motorent/internal/repository"
	"motorent/internal/search"
)

// BookingStore is the persistence surface the booking service depends on.
type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Booking, error)
	ListAll(ctx context.Context) ([]models.BookingSummary, error)
	UpdateStatus(ctx context.Context, id int64, status models.BookingStatus) error
	ListExpired(ctx context.Context, before time.Time) ([]models.Booking, error)
}

// VehicleStore is the catalog surface shared by both services.
type VehicleStore interface {
	GetByID(ctx context.Context, id string) (*models.Vehicle, error)
	List(ctx context.Context) ([]models.Vehicle, error)
}

// LinkIssuer creates hosted checkout links with the payment processor.
type LinkIssuer interface {
	CreatePaymentLink(ctx context.Context, req external.LinkRequest) (*external.PaymentLink, error)
}

// Publisher emits domain events to the message bus.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// VehicleSearcher answers full-text catalog queries.
type VehicleSearcher interface {
	Search(ctx context.Context, query string, onlyAvailable bool, page, pageSize int) ([]models.Vehicle, error)
}

type Services struct {
	Vehicles *VehicleService
	Bookings *BookingService
}

func NewServices(repos *repository.Repositories, esClient *search.ElasticsearchClient, natsClient *messaging.NATSClient, paymentClient *external.PaymentClient) *Services {
	var searcher VehicleSearcher
	if esClient != nil {
		searcher = esClient
	}

	vehicleService := NewVehicleService(repos.Vehicles, searcher)
	bookingService := NewBookingService(repos.Bookings, repos.Vehicles, paymentClient, natsClient)

	return &Services{
		Vehicles: vehicleService,
		Bookings: bookingService,
	}
}
