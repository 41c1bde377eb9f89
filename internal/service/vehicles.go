package service

import (
	"context"
	"fmt"

	apperrors "motorent/internal/errors"
	"motorent/internal/models"
)

type VehicleService struct {
	vehicleStore VehicleStore
	searcher     VehicleSearcher
}

func NewVehicleService(vehicleStore VehicleStore, searcher VehicleSearcher) *VehicleService {
	return &VehicleService{
		vehicleStore: vehicleStore,
		searcher:     searcher,
	}
}

// List returns catalog vehicles. Free-text queries go through the search
// index when one is configured; plain listings come straight from Postgres.
func (s *VehicleService) List(ctx context.Context, query string, onlyAvailable bool, page, pageSize int) (models.ListVehiclesResponse, error) {
	var (
		vehicles []models.Vehicle
		err      error
	)

	if query != "" && s.searcher != nil {
		vehicles, err = s.searcher.Search(ctx, query, onlyAvailable, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("vehicle search failed: %w", err)
		}
	} else {
		vehicles, err = s.vehicleStore.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list vehicles: %w", err)
		}
		if onlyAvailable {
			filtered := vehicles[:0]
			for _, v := range vehicles {
				if v.Available {
					filtered = append(filtered, v)
				}
			}
			vehicles = filtered
		}
	}

	result := make(models.ListVehiclesResponse, len(vehicles))
	for i, v := range vehicles {
		result[i] = toVehicleItem(v)
	}
	return result, nil
}

func (s *VehicleService) Get(ctx context.Context, id string) (*models.ListVehiclesResponseItem, error) {
	vehicle, err := s.vehicleStore.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	if vehicle == nil {
		return nil, fmt.Errorf("%w: vehicle %s", apperrors.ErrNotFound, id)
	}

	item := toVehicleItem(*vehicle)
	return &item, nil
}

func toVehicleItem(v models.Vehicle) models.ListVehiclesResponseItem {
	return models.ListVehiclesResponseItem{
		ID:          v.ID,
		Name:        v.Name,
		Model:       v.Model,
		Year:        v.Year,
		PricePerDay: v.PricePerDay,
		Available:   v.Available,
		ImageURL:    v.ImageURL,
		Description: v.Description,
		Features:    v.Features,
	}
}
