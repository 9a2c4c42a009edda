package snapshot

import (
	"context"

	"github.com/truckmate/fleet-tracking/module/tracking/domain"
)

// Store persists the engine's in-memory state. Each Save overwrites its
// section wholesale; Load is called once at startup.
type Store interface {
	SaveCurrent(ctx context.Context, current map[string]*domain.LocationRecord) error
	SaveHistory(ctx context.Context, history map[string][]domain.HistoryEntry) error
	SaveTracked(ctx context.Context, tracked []string) error
	Load(ctx context.Context) (*domain.TrackingSnapshot, error)
}
