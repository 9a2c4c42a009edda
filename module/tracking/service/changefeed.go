package service

import (
	"context"
	"fmt"
	"time"

	"github.com/truckmate/fleet-tracking/module/tracking/domain"
	"github.com/truckmate/fleet-tracking/module/tracking/internal/repository/publisher"
)

// Thresholds for feed-derived alerts. The 90°C engine warning is the
// "just changed" early tier; the polled hard-stop tier lives in the
// safety scan at 95°C.
const (
	feedEngineTempWarnC = 90.0
	lowFuelWarnPct      = 20.0
)

// ChangeFeedService turns validated change events into notifications.
type ChangeFeedService struct {
	notifier publisher.NotificationPublisher
	now      func() time.Time
}

func NewChangeFeedService(notifier publisher.NotificationPublisher) *ChangeFeedService {
	return &ChangeFeedService{notifier: notifier, now: time.Now}
}

func (s *ChangeFeedService) HandleVehicleChange(ctx context.Context, ev *domain.VehicleChange) error {
	switch ev.Type {
	case domain.EventInsert:
		return s.notify(ctx, domain.SeverityInfo, "New vehicle",
			fmt.Sprintf("Vehicle %s (%s) was added to the fleet", ev.New.LicensePlate, ev.New.Model))

	case domain.EventUpdate:
		if ev.Old.Status != ev.New.Status {
			sev := domain.SeverityWarning
			if ev.New.Status == domain.VehicleStatusActive {
				sev = domain.SeveritySuccess
			}
			if err := s.notify(ctx, sev, "Vehicle status changed",
				fmt.Sprintf("Vehicle %s went from %s to %s", ev.New.LicensePlate, ev.Old.Status, ev.New.Status)); err != nil {
				return err
			}
		}
		if ev.New.EngineTempC != nil && *ev.New.EngineTempC > feedEngineTempWarnC {
			if err := s.notifyUrgent(ctx, domain.SeverityError, "High engine temperature",
				fmt.Sprintf("Vehicle %s reports %.1f°C", ev.New.LicensePlate, *ev.New.EngineTempC)); err != nil {
				return err
			}
		}
		if ev.New.FuelLevelPct != nil && *ev.New.FuelLevelPct < lowFuelWarnPct {
			return s.notify(ctx, domain.SeverityWarning, "Low fuel",
				fmt.Sprintf("Vehicle %s is at %.0f%% fuel", ev.New.LicensePlate, *ev.New.FuelLevelPct))
		}
	}
	return nil
}

func (s *ChangeFeedService) HandleInspectionChange(ctx context.Context, ev *domain.InspectionChange) error {
	switch ev.Type {
	case domain.EventInsert:
		return s.notify(ctx, domain.SeverityInfo, "Inspection scheduled",
			fmt.Sprintf("Inspection scheduled for vehicle %s", ev.New.VehicleID))

	case domain.EventUpdate:
		switch ev.New.Status {
		case domain.InspectionCompleted:
			return s.notify(ctx, domain.SeveritySuccess, "Inspection completed",
				fmt.Sprintf("Vehicle %s passed inspection", ev.New.VehicleID))
		case domain.InspectionFailed:
			return s.notify(ctx, domain.SeverityError, "Inspection failed",
				fmt.Sprintf("Vehicle %s failed inspection", ev.New.VehicleID))
		}
	}
	return nil
}

func (s *ChangeFeedService) HandleAssignmentChange(ctx context.Context, ev *domain.AssignmentChange) error {
	if ev.Type == domain.EventInsert && ev.New.Active {
		return s.notify(ctx, domain.SeverityInfo, "Driver assigned",
			fmt.Sprintf("Driver %s assigned to vehicle %s", ev.New.DriverID, ev.New.VehicleID))
	}
	return nil
}

func (s *ChangeFeedService) notify(ctx context.Context, sev domain.Severity, title, message string) error {
	return s.notifier.Publish(ctx, &domain.NotificationEvent{
		Title: title, Message: message, Severity: sev, Timestamp: s.now(),
	})
}

func (s *ChangeFeedService) notifyUrgent(ctx context.Context, sev domain.Severity, title, message string) error {
	return s.notifier.PublishUrgent(ctx, &domain.NotificationEvent{
		Title: title, Message: message, Severity: sev, Timestamp: s.now(),
	})
}
