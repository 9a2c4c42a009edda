package service

import (
	"context"
	"math/rand"

	"github.com/truckmate/fleet-tracking/module/tracking/domain"
	"github.com/truckmate/fleet-tracking/module/tracking/internal/repository/database"
)

type locationStore interface {
	UpdateLocation(ctx context.Context, vehicleID string, update *domain.LocationUpdate) *domain.LocationRecord
}

// TelemetryEstimator fills in speed and heading when seeding from the
// backend, which is not authoritative for either. The default synthesizes
// placeholder values; a real telemetry feed can be plugged in instead.
type TelemetryEstimator interface {
	Estimate(v *domain.AssignedVehicle) (speedKmh, headingDeg float64)
}

type randomEstimator struct {
	rng *rand.Rand
}

func NewRandomEstimator(seed int64) TelemetryEstimator {
	return &randomEstimator{rng: rand.New(rand.NewSource(seed))}
}

func (e *randomEstimator) Estimate(_ *domain.AssignedVehicle) (float64, float64) {
	return e.rng.Float64() * 80, e.rng.Float64() * 360
}

// LoaderService seeds the location store from the backend: vehicles with
// an active driver assignment, joined with driver fields.
type LoaderService struct {
	repo      database.FleetRepository
	store     locationStore
	estimator TelemetryEstimator
}

func NewLoaderService(repo database.FleetRepository, store locationStore, estimator TelemetryEstimator) *LoaderService {
	return &LoaderService{repo: repo, store: store, estimator: estimator}
}

// LoadVehiclesFromBackend fetches all assigned vehicles and upserts one
// location record per vehicle with known coordinates. Vehicles without
// coordinates are skipped, not errors. A fetch failure returns before any
// store mutation, leaving existing state untouched.
func (s *LoaderService) LoadVehiclesFromBackend(ctx context.Context) error {
	vehicles, err := s.repo.GetAssignedVehicles(ctx)
	if err != nil {
		return err
	}

	for i := range vehicles {
		v := &vehicles[i]
		if v.Coordinates == nil {
			continue
		}
		speed, heading := s.estimator.Estimate(v)
		driverID := v.Driver.ID
		s.store.UpdateLocation(ctx, v.ID, &domain.LocationUpdate{
			Coordinates: v.Coordinates,
			Speed:       &speed,
			Heading:     &heading,
			DriverID:    &driverID,
		})
	}
	return nil
}
