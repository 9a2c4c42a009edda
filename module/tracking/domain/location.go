package domain

import "time"

// MaxHistoryPerVehicle bounds per-vehicle history; oldest entries are
// evicted once the bound is exceeded.
const MaxHistoryPerVehicle = 100

type Coordinates struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// LocationRecord is the current known state of one vehicle. Exactly one
// record exists per vehicle; every update overwrites it (last-write-wins)
// and refreshes Timestamp to the write time.
type LocationRecord struct {
	VehicleID   string      `json:"vehicle_id"`
	Coordinates Coordinates `json:"coordinates"`
	Timestamp   time.Time   `json:"timestamp"`
	Speed       float64     `json:"speed,omitempty"`
	Heading     float64     `json:"heading,omitempty"`
	DriverID    string      `json:"driver_id,omitempty"`
}

// LocationUpdate is a partial update; nil fields keep the existing value.
type LocationUpdate struct {
	Coordinates *Coordinates
	Speed       *float64
	Heading     *float64
	DriverID    *string
}

// HistoryEntry is an immutable, uniquely identified copy of a record at
// append time. Entries are only ever removed by eviction.
type HistoryEntry struct {
	ID string `json:"id"`
	LocationRecord
}

// TrackingSnapshot is the persisted shape of the engine's state: the
// current-location map, all histories, and the tracked vehicle IDs.
type TrackingSnapshot struct {
	Current map[string]*LocationRecord `json:"current"`
	History map[string][]HistoryEntry  `json:"history"`
	Tracked []string                   `json:"tracked"`
}
