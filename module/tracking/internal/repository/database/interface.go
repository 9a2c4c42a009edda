package database

import (
	"context"

	"github.com/truckmate/fleet-tracking/module/tracking/domain"
)

// FleetRepository reads vehicle state from the backend data service. The
// engine never writes through it.
type FleetRepository interface {
	// GetAssignedVehicles returns vehicles that currently have an active
	// driver assignment, with the joined driver fields.
	GetAssignedVehicles(ctx context.Context) ([]domain.AssignedVehicle, error)

	// GetAllVehicles returns every vehicle row, for the periodic
	// threshold scans.
	GetAllVehicles(ctx context.Context) ([]domain.VehicleState, error)
}
