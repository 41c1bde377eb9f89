package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"motorent/internal/database"
	apperrors "motorent/internal/errors"
	"motorent/internal/models"
)

type VehicleRepository struct {
	db *database.DB
}

func NewVehicleRepository(db *database.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (name, model, year, price_per_day, image_url, available, description, features)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		vehicle.Name,
		vehicle.Model,
		vehicle.Year,
		vehicle.PricePerDay,
		vehicle.ImageURL,
		vehicle.Available,
		vehicle.Description,
		pq.Array(vehicle.Features),
	).Scan(&vehicle.ID, &vehicle.CreatedAt, &vehicle.UpdatedAt)

	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	return nil
}

func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{}
	query := `
		SELECT id, name, model, year, price_per_day, image_url, available,
		       description, features, created_at, updated_at
		FROM vehicles
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&vehicle.ID,
		&vehicle.Name,
		&vehicle.Model,
		&vehicle.Year,
		&vehicle.PricePerDay,
		&vehicle.ImageURL,
		&vehicle.Available,
		&vehicle.Description,
		pq.Array(&vehicle.Features),
		&vehicle.CreatedAt,
		&vehicle.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	return vehicle, nil
}

func (r *VehicleRepository) List(ctx context.Context) ([]models.Vehicle, error) {
	query := `
		SELECT id, name, model, year, price_per_day, image_url, available,
		       description, features, created_at, updated_at
		FROM vehicles
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var vehicle models.Vehicle
		err := rows.Scan(
			&vehicle.ID,
			&vehicle.Name,
			&vehicle.Model,
			&vehicle.Year,
			&vehicle.PricePerDay,
			&vehicle.ImageURL,
			&vehicle.Available,
			&vehicle.Description,
			pq.Array(&vehicle.Features),
			&vehicle.CreatedAt,
			&vehicle.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
		}
		vehicles = append(vehicles, vehicle)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	return vehicles, nil
}

func (r *VehicleRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	query := `UPDATE vehicles SET available = $2, updated_at = NOW() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, available)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}
