package domain

import "time"

const VehicleStatusActive = "active"

// VehicleState mirrors the backend's vehicle row. The engine only reads
// it; optional telemetry columns are nil when the backend has no value.
type VehicleState struct {
	ID              string       `json:"id"`
	LicensePlate    string       `json:"license_plate"`
	Model           string       `json:"model"`
	Status          string       `json:"status"`
	NextServiceDate *time.Time   `json:"next_service,omitempty"`
	EngineTempC     *float64     `json:"engine_temp,omitempty"`
	FuelLevelPct    *float64     `json:"fuel_level,omitempty"`
	BatteryLevelPct *float64     `json:"battery_level,omitempty"`
	Coordinates     *Coordinates `json:"coordinates,omitempty"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type DriverInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// AssignedVehicle is one row of the vehicles ⋈ active-assignments join.
type AssignedVehicle struct {
	VehicleState
	Driver DriverInfo `json:"driver"`
}

type Inspection struct {
	ID           string    `json:"id"`
	VehicleID    string    `json:"vehicle_id"`
	Status       string    `json:"status"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

const (
	InspectionCompleted = "completed"
	InspectionFailed    = "failed"
)

type Assignment struct {
	ID        string `json:"id"`
	VehicleID string `json:"vehicle_id"`
	DriverID  string `json:"driver_id"`
	Active    bool   `json:"active"`
}
