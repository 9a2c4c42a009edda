package domain

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Change events arrive from the backend change feed, one stream per entity
// table. Old/New presence depends on Type: insert carries New, delete
// carries Old, update carries both. The subscription boundary validates
// this before any handler runs.

type VehicleChange struct {
	Type EventType
	Old  *VehicleState
	New  *VehicleState
}

type InspectionChange struct {
	Type EventType
	Old  *Inspection
	New  *Inspection
}

type AssignmentChange struct {
	Type EventType
	Old  *Assignment
	New  *Assignment
}
