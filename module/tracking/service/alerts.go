package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/truckmate/fleet-tracking/module/tracking/domain"
	"github.com/truckmate/fleet-tracking/module/tracking/internal/repository/database"
	"github.com/truckmate/fleet-tracking/module/tracking/internal/repository/publisher"
)

// Polled safety thresholds. Deliberately a different tier from the
// change-feed's 90°C early warning: 95°C is the hard-stop.
const (
	safetyEngineTempMaxC = 95.0
	lowBatteryWarnPct    = 20.0
)

// Maintenance classification window, in days.
const (
	dueSoonWithinDays   = 7
	criticalOverdueDays = 30
)

type AlertOptions struct {
	MaintenanceInterval time.Duration
	SafetyInterval      time.Duration

	// DedupeWindow suppresses repeats of the same vehicle+condition
	// alert inside the window. Zero disables suppression, matching the
	// historical behavior of re-emitting every tick while a condition
	// holds.
	DedupeWindow time.Duration
}

// AlertService runs the two periodic threshold scans. Each tick re-fetches
// the full vehicle table; a failed fetch logs, emits nothing, and leaves
// later ticks unaffected.
type AlertService struct {
	repo     database.FleetRepository
	notifier publisher.NotificationPublisher
	opts     AlertOptions

	mu          sync.Mutex
	lastEmitted map[string]time.Time

	now func() time.Time
}

func NewAlertService(repo database.FleetRepository, notifier publisher.NotificationPublisher, opts AlertOptions) *AlertService {
	if opts.MaintenanceInterval <= 0 {
		opts.MaintenanceInterval = 60 * time.Second
	}
	if opts.SafetyInterval <= 0 {
		opts.SafetyInterval = 30 * time.Second
	}
	return &AlertService{
		repo:        repo,
		notifier:    notifier,
		opts:        opts,
		lastEmitted: make(map[string]time.Time),
		now:         time.Now,
	}
}

func (s *AlertService) RunMaintenanceLoop(ctx context.Context) {
	t := time.NewTicker(s.opts.MaintenanceInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.ScanMaintenance(ctx); err != nil {
				log.Printf("maintenance scan: %v", err)
			}
		}
	}
}

func (s *AlertService) RunSafetyLoop(ctx context.Context) {
	t := time.NewTicker(s.opts.SafetyInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.ScanSafety(ctx); err != nil {
				log.Printf("safety scan: %v", err)
			}
		}
	}
}

// ScanMaintenance classifies every vehicle with a known next service date
// and emits one notification per classified vehicle.
func (s *AlertService) ScanMaintenance(ctx context.Context) error {
	vehicles, err := s.repo.GetAllVehicles(ctx)
	if err != nil {
		return err
	}

	for i := range vehicles {
		v := &vehicles[i]
		if v.NextServiceDate == nil {
			continue
		}
		days := daysUntilService(s.now(), *v.NextServiceDate)
		level := ClassifyMaintenance(days)
		if level == domain.MaintenanceNone {
			continue
		}
		if !s.shouldEmit("maintenance:" + string(level) + ":" + v.ID) {
			continue
		}

		var sev domain.Severity
		var title, msg string
		switch level {
		case domain.MaintenanceCritical:
			sev = domain.SeverityError
			title = "Service critically overdue"
			msg = fmt.Sprintf("Vehicle %s is %d days past its service date", v.LicensePlate, -days)
		case domain.MaintenanceOverdue:
			sev = domain.SeverityWarning
			title = "Service overdue"
			msg = fmt.Sprintf("Vehicle %s is %d days past its service date", v.LicensePlate, -days)
		case domain.MaintenanceDueSoon:
			sev = domain.SeverityInfo
			title = "Service due soon"
			msg = fmt.Sprintf("Vehicle %s is due for service in %d days", v.LicensePlate, days)
		}
		s.emit(ctx, sev, title, msg, false)
	}
	return nil
}

// ScanSafety checks battery and engine temperature for active vehicles.
func (s *AlertService) ScanSafety(ctx context.Context) error {
	vehicles, err := s.repo.GetAllVehicles(ctx)
	if err != nil {
		return err
	}

	for i := range vehicles {
		v := &vehicles[i]
		if v.Status != domain.VehicleStatusActive {
			continue
		}
		if v.BatteryLevelPct != nil && *v.BatteryLevelPct < lowBatteryWarnPct {
			if s.shouldEmit("battery:" + v.ID) {
				s.emit(ctx, domain.SeverityWarning, "Low battery",
					fmt.Sprintf("Vehicle %s battery is at %.0f%%", v.LicensePlate, *v.BatteryLevelPct), false)
			}
		}
		if v.EngineTempC != nil && *v.EngineTempC > safetyEngineTempMaxC {
			if s.shouldEmit("overheat:" + v.ID) {
				s.emit(ctx, domain.SeverityError, "Engine overheating",
					fmt.Sprintf("Vehicle %s engine is at %.1f°C, stop the vehicle", v.LicensePlate, *v.EngineTempC), true)
			}
		}
	}
	return nil
}

// daysUntilService is ceil((next − now) / 1 day): negative once the
// service date has passed, zero on the day itself.
func daysUntilService(now, next time.Time) int {
	return int(math.Ceil(next.Sub(now).Hours() / 24))
}

func ClassifyMaintenance(daysUntil int) domain.MaintenanceLevel {
	switch {
	case daysUntil <= 0 && -daysUntil >= criticalOverdueDays:
		return domain.MaintenanceCritical
	case daysUntil <= 0:
		return domain.MaintenanceOverdue
	case daysUntil <= dueSoonWithinDays:
		return domain.MaintenanceDueSoon
	default:
		return domain.MaintenanceNone
	}
}

func (s *AlertService) shouldEmit(key string) bool {
	if s.opts.DedupeWindow <= 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if last, ok := s.lastEmitted[key]; ok && now.Sub(last) < s.opts.DedupeWindow {
		return false
	}
	s.lastEmitted[key] = now
	return true
}

func (s *AlertService) emit(ctx context.Context, sev domain.Severity, title, message string, urgent bool) {
	event := &domain.NotificationEvent{Title: title, Message: message, Severity: sev, Timestamp: s.now()}
	var err error
	if urgent {
		err = s.notifier.PublishUrgent(ctx, event)
	} else {
		err = s.notifier.Publish(ctx, event)
	}
	if err != nil {
		log.Printf("publish alert %q: %v", title, err)
	}
}
