package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/truckmate/fleet-tracking/module/tracking/domain"
)

type mockSnapshotStore struct {
	currentSaves int
	historySaves int
	trackedSaves int

	lastCurrent map[string]*domain.LocationRecord
	lastHistory map[string][]domain.HistoryEntry
	lastTracked []string

	loadFn func(ctx context.Context) (*domain.TrackingSnapshot, error)
}

func (m *mockSnapshotStore) SaveCurrent(_ context.Context, current map[string]*domain.LocationRecord) error {
	m.currentSaves++
	m.lastCurrent = current
	return nil
}

func (m *mockSnapshotStore) SaveHistory(_ context.Context, history map[string][]domain.HistoryEntry) error {
	m.historySaves++
	m.lastHistory = history
	return nil
}

func (m *mockSnapshotStore) SaveTracked(_ context.Context, tracked []string) error {
	m.trackedSaves++
	m.lastTracked = tracked
	return nil
}

func (m *mockSnapshotStore) Load(ctx context.Context) (*domain.TrackingSnapshot, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return &domain.TrackingSnapshot{
		Current: map[string]*domain.LocationRecord{},
		History: map[string][]domain.HistoryEntry{},
	}, nil
}

// newTestService returns a service with a deterministic clock that
// advances one second per write and sequential history IDs.
func newTestService(store *mockSnapshotStore) *LocationService {
	svc := NewLocationService(store)
	base := time.Unix(1715000000, 0)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("h-%04d", seq)
	}
	return svc
}

func coords(lat, lon float64) *domain.Coordinates {
	return &domain.Coordinates{Lat: lat, Lon: lon}
}

func TestUpdateLocation_Upsert(t *testing.T) {
	store := &mockSnapshotStore{}
	svc := newTestService(store)

	rec := svc.UpdateLocation(context.Background(), "B1234XYZ", &domain.LocationUpdate{
		Coordinates: coords(-6.2088, 106.8456),
	})

	if rec.VehicleID != "B1234XYZ" {
		t.Errorf("expected B1234XYZ, got %s", rec.VehicleID)
	}
	if rec.Coordinates.Lat != -6.2088 {
		t.Errorf("expected -6.2088, got %f", rec.Coordinates.Lat)
	}
	if rec.Timestamp.IsZero() {
		t.Error("expected timestamp to be stamped")
	}
	if store.currentSaves != 1 {
		t.Errorf("expected 1 current save, got %d", store.currentSaves)
	}
}

func TestUpdateLocation_PartialMergeLastWriteWins(t *testing.T) {
	store := &mockSnapshotStore{}
	svc := newTestService(store)

	svc.UpdateLocation(context.Background(), "B1234XYZ", &domain.LocationUpdate{
		Coordinates: coords(-6.2088, 106.8456),
	})
	speed := 42.5
	rec := svc.UpdateLocation(context.Background(), "B1234XYZ", &domain.LocationUpdate{
		Speed: &speed,
	})

	// fields from both updates survive, timestamp is the second write's
	if rec.Coordinates.Lat != -6.2088 {
		t.Errorf("expected coordinates from first update, got %f", rec.Coordinates.Lat)
	}
	if rec.Speed != 42.5 {
		t.Errorf("expected speed 42.5, got %f", rec.Speed)
	}
	want := time.Unix(1715000002, 0)
	if !rec.Timestamp.Equal(want) {
		t.Errorf("expected timestamp %v, got %v", want, rec.Timestamp)
	}
}

func TestUpdateLocation_HistoryBound(t *testing.T) {
	store := &mockSnapshotStore{}
	svc := newTestService(store)
	ctx := context.Background()

	svc.StartTracking(ctx, "B1234XYZ")
	for i := 0; i < 150; i++ {
		svc.UpdateLocation(ctx, "B1234XYZ", &domain.LocationUpdate{
			Coordinates: coords(float64(i), 106.8),
		})
	}

	history := svc.GetHistory(ctx, "B1234XYZ")
	if len(history) != domain.MaxHistoryPerVehicle {
		t.Fatalf("expected %d entries, got %d", domain.MaxHistoryPerVehicle, len(history))
	}

	// the retained entries are the 100 most recent: updates 51..150
	for i := 1; i < len(history); i++ {
		if !history[i-1].Timestamp.Before(history[i].Timestamp) {
			t.Fatalf("history out of order at index %d", i)
		}
	}
	oldest := history[0]
	if oldest.Coordinates.Lat != 50 {
		t.Errorf("expected oldest retained entry from update 51, got lat %f", oldest.Coordinates.Lat)
	}
	newest := history[len(history)-1]
	if newest.Coordinates.Lat != 149 {
		t.Errorf("expected newest entry from update 150, got lat %f", newest.Coordinates.Lat)
	}
}

func TestUpdateLocation_UniqueHistoryIDs(t *testing.T) {
	store := &mockSnapshotStore{}
	svc := NewLocationService(store)
	ctx := context.Background()

	svc.StartTracking(ctx, "B1234XYZ")
	for i := 0; i < 10; i++ {
		svc.UpdateLocation(ctx, "B1234XYZ", &domain.LocationUpdate{Coordinates: coords(0, 0)})
	}

	seen := make(map[string]struct{})
	for _, e := range svc.GetHistory(ctx, "B1234XYZ") {
		if _, dup := seen[e.ID]; dup {
			t.Fatalf("duplicate history id %s", e.ID)
		}
		seen[e.ID] = struct{}{}
	}
}

func TestTrackingGate(t *testing.T) {
	store := &mockSnapshotStore{}
	svc := newTestService(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		svc.UpdateLocation(ctx, "B1234XYZ", &domain.LocationUpdate{Coordinates: coords(0, 0)})
	}
	if len(svc.GetHistory(ctx, "B1234XYZ")) != 0 {
		t.Fatal("untracked vehicle must not accumulate history")
	}

	// tracking resumes from empty, no retroactive backfill
	svc.StartTracking(ctx, "B1234XYZ")
	svc.UpdateLocation(ctx, "B1234XYZ", &domain.LocationUpdate{Coordinates: coords(1, 1)})
	history := svc.GetHistory(ctx, "B1234XYZ")
	if len(history) != 1 {
		t.Fatalf("expected 1 entry after tracking started, got %d", len(history))
	}
}

func TestStopTracking_KeepsHistory(t *testing.T) {
	store := &mockSnapshotStore{}
	svc := newTestService(store)
	ctx := context.Background()

	svc.StartTracking(ctx, "B1234XYZ")
	svc.UpdateLocation(ctx, "B1234XYZ", &domain.LocationUpdate{Coordinates: coords(1, 1)})
	svc.StopTracking(ctx, "B1234XYZ")

	if len(svc.GetHistory(ctx, "B1234XYZ")) != 1 {
		t.Fatal("stop tracking must not purge existing history")
	}

	// further updates no longer accumulate
	svc.UpdateLocation(ctx, "B1234XYZ", &domain.LocationUpdate{Coordinates: coords(2, 2)})
	if len(svc.GetHistory(ctx, "B1234XYZ")) != 1 {
		t.Fatal("stopped vehicle must not accumulate history")
	}
}

func TestTrackingToggles_Idempotent(t *testing.T) {
	store := &mockSnapshotStore{}
	svc := newTestService(store)
	ctx := context.Background()

	svc.StartTracking(ctx, "B1234XYZ")
	svc.StartTracking(ctx, "B1234XYZ")
	if store.trackedSaves != 1 {
		t.Errorf("second StartTracking should be a no-op, got %d saves", store.trackedSaves)
	}
	if !svc.IsTracked("B1234XYZ") {
		t.Error("expected vehicle to be tracked")
	}

	svc.StopTracking(ctx, "B1234XYZ")
	svc.StopTracking(ctx, "B1234XYZ")
	if store.trackedSaves != 2 {
		t.Errorf("second StopTracking should be a no-op, got %d saves", store.trackedSaves)
	}
	if svc.IsTracked("B1234XYZ") {
		t.Error("expected vehicle to be untracked")
	}
}

func TestGetLocation_Absent(t *testing.T) {
	svc := newTestService(&mockSnapshotStore{})

	if _, ok := svc.GetLocation(context.Background(), "UNKNOWN"); ok {
		t.Fatal("expected absent location")
	}
}

func TestGetLocation_ReturnsCopy(t *testing.T) {
	svc := newTestService(&mockSnapshotStore{})
	ctx := context.Background()

	svc.UpdateLocation(ctx, "B1234XYZ", &domain.LocationUpdate{Coordinates: coords(1, 1)})
	rec, _ := svc.GetLocation(ctx, "B1234XYZ")
	rec.Coordinates.Lat = 99

	again, _ := svc.GetLocation(ctx, "B1234XYZ")
	if again.Coordinates.Lat != 1 {
		t.Error("mutating a returned record must not affect the store")
	}
}

func TestClearHistory(t *testing.T) {
	store := &mockSnapshotStore{}
	svc := newTestService(store)
	ctx := context.Background()

	svc.StartTracking(ctx, "A")
	svc.StartTracking(ctx, "B")
	svc.UpdateLocation(ctx, "A", &domain.LocationUpdate{Coordinates: coords(1, 1)})
	svc.UpdateLocation(ctx, "B", &domain.LocationUpdate{Coordinates: coords(2, 2)})

	svc.ClearHistory(ctx)

	if len(svc.GetHistory(ctx, "A")) != 0 || len(svc.GetHistory(ctx, "B")) != 0 {
		t.Fatal("expected all history cleared")
	}
	// current locations survive
	if _, ok := svc.GetLocation(ctx, "A"); !ok {
		t.Fatal("clear history must not drop current locations")
	}
}

func TestSnapshotWriteThrough(t *testing.T) {
	store := &mockSnapshotStore{}
	svc := newTestService(store)
	ctx := context.Background()

	svc.StartTracking(ctx, "B1234XYZ")
	svc.UpdateLocation(ctx, "B1234XYZ", &domain.LocationUpdate{Coordinates: coords(1, 1)})
	svc.UpdateLocation(ctx, "B1234XYZ", &domain.LocationUpdate{Coordinates: coords(2, 2)})

	if store.currentSaves != 2 {
		t.Errorf("expected 2 current saves, got %d", store.currentSaves)
	}
	if store.historySaves != 2 {
		t.Errorf("expected 2 history saves, got %d", store.historySaves)
	}
	if store.trackedSaves != 1 {
		t.Errorf("expected 1 tracked save, got %d", store.trackedSaves)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	store := &mockSnapshotStore{}
	first := newTestService(store)
	ctx := context.Background()

	first.StartTracking(ctx, "B1234XYZ")
	first.UpdateLocation(ctx, "B1234XYZ", &domain.LocationUpdate{Coordinates: coords(-6.2088, 106.8456)})
	first.UpdateLocation(ctx, "B1234XYZ", &domain.LocationUpdate{Coordinates: coords(-6.2100, 106.8460)})

	// second engine instance loads what the first persisted
	store.loadFn = func(_ context.Context) (*domain.TrackingSnapshot, error) {
		return &domain.TrackingSnapshot{
			Current: store.lastCurrent,
			History: store.lastHistory,
			Tracked: store.lastTracked,
		}, nil
	}
	second := NewLocationService(store)
	if err := second.Restore(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, ok := second.GetLocation(ctx, "B1234XYZ")
	if !ok {
		t.Fatal("expected restored location")
	}
	if rec.Coordinates.Lat != -6.2100 {
		t.Errorf("expected -6.2100, got %f", rec.Coordinates.Lat)
	}
	history := second.GetHistory(ctx, "B1234XYZ")
	if len(history) != 2 {
		t.Fatalf("expected 2 restored history entries, got %d", len(history))
	}
	if !second.IsTracked("B1234XYZ") {
		t.Error("expected tracked set restored")
	}
}

func TestEvictOldest_DropsByTimestampNotPosition(t *testing.T) {
	base := time.Unix(1715000000, 0)
	entries := make([]domain.HistoryEntry, 0, domain.MaxHistoryPerVehicle+1)
	// an out-of-order entry in the middle is the oldest by timestamp
	for i := 0; i <= domain.MaxHistoryPerVehicle; i++ {
		ts := base.Add(time.Duration(i+10) * time.Second)
		if i == 50 {
			ts = base
		}
		entries = append(entries, domain.HistoryEntry{
			ID:             fmt.Sprintf("h-%d", i),
			LocationRecord: domain.LocationRecord{VehicleID: "X", Timestamp: ts},
		})
	}

	got := evictOldest(entries)
	if len(got) != domain.MaxHistoryPerVehicle {
		t.Fatalf("expected %d entries, got %d", domain.MaxHistoryPerVehicle, len(got))
	}
	for _, e := range got {
		if e.ID == "h-50" {
			t.Fatal("expected the oldest-timestamp entry to be evicted")
		}
	}
}
