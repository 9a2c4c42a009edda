package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/truckmate/fleet-tracking/module/tracking/domain"
	"github.com/truckmate/fleet-tracking/module/tracking/internal/repository/snapshot"
)

var _ snapshot.Store = (*SnapshotStore)(nil)

// Keys hold the three state sections as whole JSON documents. Every save
// replaces its key; there is no incremental update.
const (
	currentKey = "tracking:current_locations"
	historyKey = "tracking:location_history"
	trackedKey = "tracking:tracked_vehicles"
)

type SnapshotStore struct {
	client *redis.Client
}

func NewSnapshotStore(client *redis.Client) *SnapshotStore {
	return &SnapshotStore{client: client}
}

func (s *SnapshotStore) SaveCurrent(ctx context.Context, current map[string]*domain.LocationRecord) error {
	return s.saveJSON(ctx, currentKey, current)
}

func (s *SnapshotStore) SaveHistory(ctx context.Context, history map[string][]domain.HistoryEntry) error {
	return s.saveJSON(ctx, historyKey, history)
}

func (s *SnapshotStore) SaveTracked(ctx context.Context, tracked []string) error {
	return s.saveJSON(ctx, trackedKey, tracked)
}

func (s *SnapshotStore) saveJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Load returns an empty snapshot when no keys exist yet (first run).
func (s *SnapshotStore) Load(ctx context.Context) (*domain.TrackingSnapshot, error) {
	snap := &domain.TrackingSnapshot{
		Current: make(map[string]*domain.LocationRecord),
		History: make(map[string][]domain.HistoryEntry),
	}
	if err := s.loadJSON(ctx, currentKey, &snap.Current); err != nil {
		return nil, err
	}
	if err := s.loadJSON(ctx, historyKey, &snap.History); err != nil {
		return nil, err
	}
	if err := s.loadJSON(ctx, trackedKey, &snap.Tracked); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *SnapshotStore) loadJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
