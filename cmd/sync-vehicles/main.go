package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"time"

	"motorent/internal/config"
	"motorent/internal/database"
	"motorent/internal/logger"
	"motorent/internal/repository"
	"motorent/internal/search"
)

func main() {
	var onlyAvailable bool
	flag.BoolVar(&onlyAvailable, "only-available", false, "Index only vehicles currently marked available")
	flag.Parse()

	logger.Init("info", "text")
	slog.Info("Starting vehicle index synchronization")

	// Load configuration
	cfg := config.Load()

	// Connect to database
	slog.Info("Connecting to database")
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Elasticsearch
	esClient, err := search.NewElasticsearchClient(config.LoadElasticsearchConfig())
	if err != nil {
		log.Fatalf("Failed to connect to Elasticsearch: %v", err)
	}

	vehicleRepo := repository.NewVehicleRepository(db)

	if err := syncVehicles(context.Background(), vehicleRepo, esClient, onlyAvailable); err != nil {
		log.Fatalf("Vehicle synchronization failed: %v", err)
	}

	slog.Info("Vehicle synchronization completed successfully")
}

func syncVehicles(ctx context.Context, vehicleRepo *repository.VehicleRepository, esClient *search.ElasticsearchClient, onlyAvailable bool) error {
	start := time.Now()

	vehicles, err := vehicleRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list vehicles: %w", err)
	}
	slog.Info("Loaded vehicles from database", "count", len(vehicles))

	indexed := 0
	for i := range vehicles {
		if onlyAvailable && !vehicles[i].Available {
			continue
		}

		if err := esClient.IndexVehicle(ctx, &vehicles[i]); err != nil {
			slog.Error("Failed to index vehicle",
				"vehicle_id", vehicles[i].ID,
				"error", err)
			continue
		}
		indexed++
	}

	elapsed := time.Since(start)
	slog.Info("Vehicle index synchronization completed",
		"vehicles_indexed", indexed,
		"vehicles_skipped", len(vehicles)-indexed,
		"duration", elapsed.String())

	return nil
}
