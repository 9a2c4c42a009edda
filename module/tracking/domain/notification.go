package domain

import "time"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// NotificationEvent is the unit handed to the notification layer. Delivery
// is at-least-once and best-effort.
type NotificationEvent struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// MaintenanceLevel classifies how far a vehicle is past (or from) its next
// service date.
type MaintenanceLevel string

const (
	MaintenanceNone     MaintenanceLevel = ""
	MaintenanceDueSoon  MaintenanceLevel = "due_soon"
	MaintenanceOverdue  MaintenanceLevel = "overdue"
	MaintenanceCritical MaintenanceLevel = "critical"
)
