package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/truckmate/fleet-tracking/module/tracking/domain"
)

type stubPublisher struct {
	publishErr error
	urgentErr  error

	published []*domain.NotificationEvent
	urgent    []*domain.NotificationEvent
}

func (s *stubPublisher) Publish(_ context.Context, event *domain.NotificationEvent) error {
	s.published = append(s.published, event)
	return s.publishErr
}

func (s *stubPublisher) PublishUrgent(_ context.Context, event *domain.NotificationEvent) error {
	s.urgent = append(s.urgent, event)
	return s.urgentErr
}

func TestFanout_DeliversToAll(t *testing.T) {
	a, b := &stubPublisher{}, &stubPublisher{}
	f := Fanout{a, b}

	event := &domain.NotificationEvent{Title: "Low fuel"}
	if err := f.Publish(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a.published) != 1 || len(b.published) != 1 {
		t.Fatalf("expected both publishers called, got %d and %d", len(a.published), len(b.published))
	}
}

func TestFanout_FirstErrorAfterAllAttempted(t *testing.T) {
	wantErr := errors.New("broker down")
	a := &stubPublisher{publishErr: wantErr}
	b := &stubPublisher{publishErr: errors.New("later error")}
	f := Fanout{a, b}

	err := f.Publish(context.Background(), &domain.NotificationEvent{Title: "x"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected first error, got %v", err)
	}
	if len(b.published) != 1 {
		t.Fatal("expected delivery attempted on the second publisher despite the first failing")
	}
}

func TestFanout_UrgentUsesUrgentPath(t *testing.T) {
	a, b := &stubPublisher{}, &stubPublisher{}
	f := Fanout{a, b}

	if err := f.PublishUrgent(context.Background(), &domain.NotificationEvent{Title: "overheat"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.urgent) != 1 || len(b.urgent) != 1 {
		t.Fatalf("expected urgent delivery to both, got %d and %d", len(a.urgent), len(b.urgent))
	}
	if len(a.published) != 0 {
		t.Error("urgent fanout must not double-deliver on the standard path")
	}
}
