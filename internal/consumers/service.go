package consumers

import (
	"context"
	"log/slog"

	"motorent/internal/config"
	"motorent/internal/database"
	"motorent/internal/messaging"
	"motorent/internal/models"
	"motorent/internal/repository"

	"github.com/nats-io/stan.go"
)

type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	repos    *repository.Repositories
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	// Connect to NATS
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	// Create repositories
	repos := repository.NewRepositories(db)

	// Create handlers
	handlers := NewHandlers(repos)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		repos:    repos,
		handlers: handlers,
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	subscriptions := map[string]stan.MsgHandler{
		models.EventBookingCreated:    cs.handlers.HandleBookingCreated,
		models.EventPaymentLinkIssued: cs.handlers.HandlePaymentLinkIssued,
		models.EventBookingConfirmed:  cs.handlers.HandleBookingConfirmed,
		models.EventBookingCancelled:  cs.handlers.HandleBookingCancelled,
		models.EventBookingCompleted:  cs.handlers.HandleBookingCompleted,
		models.EventBookingExpired:    cs.handlers.HandleBookingExpired,
	}

	for subject, handler := range subscriptions {
		if _, err := cs.nats.SubscribeQueue(subject, "consumers", handler); err != nil {
			return err
		}
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Repositories() *repository.Repositories {
	return cs.repos
}

func (cs *ConsumerService) NATS() *messaging.NATSClient {
	return cs.nats
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
