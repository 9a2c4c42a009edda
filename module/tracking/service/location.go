package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/truckmate/fleet-tracking/module/tracking/domain"
	"github.com/truckmate/fleet-tracking/module/tracking/internal/repository/snapshot"
)

// LocationService owns the live per-vehicle state: the current-location
// map, bounded per-vehicle history, and the tracked-vehicle set. All
// mutations serialize behind one mutex; the history eviction below reads
// then rewrites a vehicle's slice, so unserialized writers would corrupt
// the bound. Every mutation writes the affected section through to the
// snapshot store wholesale.
type LocationService struct {
	mu      sync.Mutex
	current map[string]*domain.LocationRecord
	history map[string][]domain.HistoryEntry
	tracked map[string]struct{}

	snapshots snapshot.Store
	now       func() time.Time
	newID     func() string
}

func NewLocationService(snapshots snapshot.Store) *LocationService {
	return &LocationService{
		current:   make(map[string]*domain.LocationRecord),
		history:   make(map[string][]domain.HistoryEntry),
		tracked:   make(map[string]struct{}),
		snapshots: snapshots,
		now:       time.Now,
		newID:     historyIDGenerator(),
	}
}

func historyIDGenerator() func() string {
	var seq uint64
	return func() string {
		seq++
		return fmt.Sprintf("%d-%06d", time.Now().UnixNano(), seq)
	}
}

// Restore rehydrates all three structures from the last snapshot. It runs
// once at build time, before any remote seeding.
func (s *LocationService) Restore(ctx context.Context) error {
	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range snap.Current {
		if rec == nil {
			continue
		}
		r := *rec
		s.current[id] = &r
	}
	for id, entries := range snap.History {
		s.history[id] = append([]domain.HistoryEntry(nil), entries...)
	}
	for _, id := range snap.Tracked {
		s.tracked[id] = struct{}{}
	}
	return nil
}

// UpdateLocation merges the partial update onto the vehicle's record (an
// upsert: unknown IDs get a fresh record), stamps the timestamp with the
// write time, and persists the current map. For tracked vehicles it also
// appends a history entry and evicts down to the bound. It returns a copy
// of the resulting record. Snapshot write failures are logged, never
// surfaced.
func (s *LocationService) UpdateLocation(ctx context.Context, vehicleID string, update *domain.LocationUpdate) *domain.LocationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.current[vehicleID]
	if !ok {
		rec = &domain.LocationRecord{VehicleID: vehicleID}
		s.current[vehicleID] = rec
	}
	if update != nil {
		if update.Coordinates != nil {
			rec.Coordinates = *update.Coordinates
		}
		if update.Speed != nil {
			rec.Speed = *update.Speed
		}
		if update.Heading != nil {
			rec.Heading = *update.Heading
		}
		if update.DriverID != nil {
			rec.DriverID = *update.DriverID
		}
	}
	rec.Timestamp = s.now()

	s.persistCurrent(ctx)

	if _, isTracked := s.tracked[vehicleID]; isTracked {
		entry := domain.HistoryEntry{ID: s.newID(), LocationRecord: *rec}
		s.history[vehicleID] = evictOldest(append(s.history[vehicleID], entry))
		s.persistHistory(ctx)
	}

	out := *rec
	return &out
}

// evictOldest removes oldest-timestamp entries until the bound holds. The
// final entry is the fresh append and is never the one evicted.
func evictOldest(entries []domain.HistoryEntry) []domain.HistoryEntry {
	for len(entries) > domain.MaxHistoryPerVehicle {
		oldest := 0
		for i := 1; i < len(entries)-1; i++ {
			if entries[i].Timestamp.Before(entries[oldest].Timestamp) {
				oldest = i
			}
		}
		entries = append(entries[:oldest], entries[oldest+1:]...)
	}
	return entries
}

func (s *LocationService) GetLocation(ctx context.Context, vehicleID string) (*domain.LocationRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.current[vehicleID]
	if !ok {
		return nil, false
	}
	out := *rec
	return &out, true
}

func (s *LocationService) GetHistory(ctx context.Context, vehicleID string) []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.HistoryEntry(nil), s.history[vehicleID]...)
}

// StartTracking is idempotent; membership alone gates history accumulation.
func (s *LocationService) StartTracking(ctx context.Context, vehicleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tracked[vehicleID]; ok {
		return
	}
	s.tracked[vehicleID] = struct{}{}
	s.persistTracked(ctx)
}

// StopTracking is idempotent and does not purge the vehicle's existing
// history.
func (s *LocationService) StopTracking(ctx context.Context, vehicleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tracked[vehicleID]; !ok {
		return
	}
	delete(s.tracked, vehicleID)
	s.persistTracked(ctx)
}

func (s *LocationService) IsTracked(vehicleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tracked[vehicleID]
	return ok
}

func (s *LocationService) ClearHistory(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = make(map[string][]domain.HistoryEntry)
	s.persistHistory(ctx)
}

func (s *LocationService) persistCurrent(ctx context.Context) {
	if err := s.snapshots.SaveCurrent(ctx, s.current); err != nil {
		log.Printf("persist current locations: %v", err)
	}
}

func (s *LocationService) persistHistory(ctx context.Context) {
	if err := s.snapshots.SaveHistory(ctx, s.history); err != nil {
		log.Printf("persist location history: %v", err)
	}
}

func (s *LocationService) persistTracked(ctx context.Context) {
	ids := make([]string, 0, len(s.tracked))
	for id := range s.tracked {
		ids = append(ids, id)
	}
	if err := s.snapshots.SaveTracked(ctx, ids); err != nil {
		log.Printf("persist tracked vehicles: %v", err)
	}
}
