package postgres

import (
	"context"
	"database/sql"

	"github.com/truckmate/fleet-tracking/module/tracking/domain"
	"github.com/truckmate/fleet-tracking/module/tracking/internal/repository/database"
)

var _ database.FleetRepository = (*FleetRepo)(nil)

type FleetRepo struct {
	db *sql.DB
}

func NewFleetRepo(db *sql.DB) *FleetRepo {
	return &FleetRepo{db: db}
}

const assignedVehiclesQuery = `
SELECT v.id, v.license_plate, v.model, v.status,
       v.lat, v.lng, v.updated_at,
       v.fuel_level, v.battery_level, v.engine_temp, v.next_service,
       d.id, d.name, d.status
FROM vehicles v
JOIN assignments a ON a.vehicle_id = v.id AND a.active
JOIN drivers d ON d.id = a.driver_id`

func (r *FleetRepo) GetAssignedVehicles(ctx context.Context) ([]domain.AssignedVehicle, error) {
	rows, err := r.db.QueryContext(ctx, assignedVehiclesQuery)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.AssignedVehicle
	for rows.Next() {
		var av domain.AssignedVehicle
		var lat, lng sql.NullFloat64
		var fuel, battery, temp sql.NullFloat64
		var nextService sql.NullTime
		if err := rows.Scan(
			&av.ID, &av.LicensePlate, &av.Model, &av.Status,
			&lat, &lng, &av.UpdatedAt,
			&fuel, &battery, &temp, &nextService,
			&av.Driver.ID, &av.Driver.Name, &av.Driver.Status,
		); err != nil {
			return nil, err
		}
		applyOptionalColumns(&av.VehicleState, lat, lng, fuel, battery, temp, nextService)
		results = append(results, av)
	}
	return results, rows.Err()
}

const allVehiclesQuery = `
SELECT id, license_plate, model, status,
       lat, lng, updated_at,
       fuel_level, battery_level, engine_temp, next_service
FROM vehicles`

func (r *FleetRepo) GetAllVehicles(ctx context.Context) ([]domain.VehicleState, error) {
	rows, err := r.db.QueryContext(ctx, allVehiclesQuery)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.VehicleState
	for rows.Next() {
		var v domain.VehicleState
		var lat, lng sql.NullFloat64
		var fuel, battery, temp sql.NullFloat64
		var nextService sql.NullTime
		if err := rows.Scan(
			&v.ID, &v.LicensePlate, &v.Model, &v.Status,
			&lat, &lng, &v.UpdatedAt,
			&fuel, &battery, &temp, &nextService,
		); err != nil {
			return nil, err
		}
		applyOptionalColumns(&v, lat, lng, fuel, battery, temp, nextService)
		results = append(results, v)
	}
	return results, rows.Err()
}

func applyOptionalColumns(v *domain.VehicleState, lat, lng, fuel, battery, temp sql.NullFloat64, nextService sql.NullTime) {
	if lat.Valid && lng.Valid {
		v.Coordinates = &domain.Coordinates{Lat: lat.Float64, Lon: lng.Float64}
	}
	if fuel.Valid {
		f := fuel.Float64
		v.FuelLevelPct = &f
	}
	if battery.Valid {
		b := battery.Float64
		v.BatteryLevelPct = &b
	}
	if temp.Valid {
		t := temp.Float64
		v.EngineTempC = &t
	}
	if nextService.Valid {
		ns := nextService.Time
		v.NextServiceDate = &ns
	}
}
