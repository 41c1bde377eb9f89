package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"motorent/cmd/consumers/jobs"
	"motorent/internal/config"
	"motorent/internal/consumers"
	"motorent/internal/logger"
	"motorent/internal/service"
)

func main() {
	log.Println("Starting consumers service...")

	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Override NATS client ID for consumers
	cfg.NATS.ClientID = "motorent-consumers"

	// Create and start consumers
	consumerService, err := consumers.NewConsumerService(cfg)
	if err != nil {
		log.Fatalf("Failed to create consumer service: %v", err)
	}

	// Start consuming messages
	if err := consumerService.Start(); err != nil {
		log.Fatalf("Failed to start consumers: %v", err)
	}

	log.Println("Consumers service started successfully")

	// Optional sweep of stale pending bookings
	var expirationJob *jobs.BookingExpirationJob
	if cfg.Sweep.Enabled {
		repos := consumerService.Repositories()
		bookings := service.NewBookingService(repos.Bookings, repos.Vehicles, nil, consumerService.NATS())
		expirationJob = jobs.NewBookingExpirationJob(bookings, cfg.Sweep)
		expirationJob.Start(context.Background())
	}

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down consumers service...")

	if expirationJob != nil {
		expirationJob.Stop()
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := consumerService.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Consumers service stopped")
}
