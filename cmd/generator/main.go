package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"motorent/internal/config"
	"motorent/internal/database"
	"motorent/internal/models"
	"motorent/internal/repository"

	"github.com/google/uuid"
)

var (
	vehicleCount  = flag.Int("count", 50, "Number of vehicles to generate")
	clearExisting = flag.Bool("clear", false, "Clear existing vehicles before generating new ones")
	seedUsers     = flag.Bool("users", true, "Seed demo users alongside vehicles")
	dryRun        = flag.Bool("dry-run", false, "Show what would be generated without making changes")
)

var vehicleStock = []struct {
	name   string
	models []string
	price  int64 // minor units per day
}{
	{"Vespa", []string{"GTS 300", "Primavera 150", "Sprint 50"}, 9500},
	{"Honda", []string{"PCX 125", "Forza 350", "CB500F"}, 12000},
	{"Yamaha", []string{"NMAX 155", "XMAX 300", "MT-07"}, 13500},
	{"Ducati", []string{"Monster", "Scrambler Icon"}, 24000},
	{"BMW", []string{"G 310 R", "R 1250 GS"}, 28000},
	{"Toyota", []string{"Corolla", "RAV4", "Yaris"}, 35000},
	{"Volkswagen", []string{"Golf", "Tiguan"}, 38000},
	{"Tesla", []string{"Model 3", "Model Y"}, 65000},
}

var featurePool = []string{
	"abs", "heated_grips", "top_case", "gps", "bluetooth",
	"usb_charger", "phone_mount", "rain_cover", "child_seat",
}

type CatalogGenerator struct {
	repos *repository.Repositories
	db    *database.DB
}

func main() {
	flag.Parse()

	slog.Info("Starting catalog generator...")

	cfg := config.Load()
	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	generator := &CatalogGenerator{
		repos: repository.NewRepositories(db),
		db:    db,
	}

	if err := generator.Generate(context.Background()); err != nil {
		slog.Error("Failed to generate catalog", "error", err)
		os.Exit(1)
	}

	slog.Info("Catalog generation completed successfully!")
}

func (g *CatalogGenerator) Generate(ctx context.Context) error {
	if *clearExisting && !*dryRun {
		slog.Info("Clearing existing vehicles")
		if _, err := g.db.ExecContext(ctx, "DELETE FROM bookings"); err != nil {
			return fmt.Errorf("failed to clear bookings: %w", err)
		}
		if _, err := g.db.ExecContext(ctx, "DELETE FROM vehicles"); err != nil {
			return fmt.Errorf("failed to clear vehicles: %w", err)
		}
	}

	for i := 0; i < *vehicleCount; i++ {
		vehicle := randomVehicle()

		if *dryRun {
			slog.Info("Would create vehicle",
				"name", vehicle.Name,
				"model", vehicle.Model,
				"year", vehicle.Year,
				"price_per_day", vehicle.PricePerDay)
			continue
		}

		if err := g.repos.Vehicles.Create(ctx, vehicle); err != nil {
			slog.Error("Failed to create vehicle", "name", vehicle.Name, "error", err)
			continue
		}
	}

	slog.Info("Generated vehicles", "count", *vehicleCount, "dry_run", *dryRun)

	if *seedUsers {
		if err := g.seedDemoUsers(ctx); err != nil {
			return err
		}
	}

	return nil
}

func randomVehicle() *models.Vehicle {
	stock := vehicleStock[rand.Intn(len(vehicleStock))]
	model := stock.models[rand.Intn(len(stock.models))]

	// Jitter the base price by up to +-20%
	price := stock.price + int64(rand.Intn(int(stock.price/5)*2)) - stock.price/5

	features := make([]string, 0, 3)
	for _, f := range featurePool {
		if rand.Intn(3) == 0 {
			features = append(features, f)
		}
	}

	description := fmt.Sprintf("%s %s, well maintained, full tank on pickup", stock.name, model)

	return &models.Vehicle{
		ID:          uuid.New().String(),
		Name:        stock.name,
		Model:       model,
		Year:        2018 + rand.Intn(8),
		PricePerDay: price,
		Available:   rand.Intn(10) > 0, // roughly 10% of the fleet is in service
		Description: &description,
		Features:    features,
	}
}

func (g *CatalogGenerator) seedDemoUsers(ctx context.Context) error {
	users := []struct {
		email    string
		password string
		first    string
		surname  string
		isAdmin  bool
	}{
		{"admin@motorent.local", "admin123", "Admin", "Admin", true},
		{"renter@motorent.local", "renter123", "Riley", "Park", false},
	}

	for _, u := range users {
		if *dryRun {
			slog.Info("Would create user", "email", u.email, "is_admin", u.isAdmin)
			continue
		}

		hash := sha256.Sum256([]byte(u.password))
		_, err := g.db.ExecContext(ctx, `
			INSERT INTO users (email, password_hash, first_name, surname, is_admin, is_active)
			VALUES ($1, $2, $3, $4, $5, true)
			ON CONFLICT (email) DO NOTHING`,
			u.email, fmt.Sprintf("%x", hash), u.first, u.surname, u.isAdmin)
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.email, err)
		}
	}

	slog.Info("Seeded demo users", "count", len(users), "dry_run", *dryRun)
	return nil
}
