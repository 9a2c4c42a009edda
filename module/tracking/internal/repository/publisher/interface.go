package publisher

import (
	"context"

	"github.com/truckmate/fleet-tracking/module/tracking/domain"
)

// NotificationPublisher delivers events to the notification layer.
// PublishUrgent is the high-priority path for hard-stop conditions; it
// implies the standard delivery as well.
type NotificationPublisher interface {
	Publish(ctx context.Context, event *domain.NotificationEvent) error
	PublishUrgent(ctx context.Context, event *domain.NotificationEvent) error
}

// Fanout delivers every event to each wrapped publisher. The first error
// is returned after all publishers have been attempted.
type Fanout []NotificationPublisher

func (f Fanout) Publish(ctx context.Context, event *domain.NotificationEvent) error {
	var first error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f Fanout) PublishUrgent(ctx context.Context, event *domain.NotificationEvent) error {
	var first error
	for _, p := range f {
		if err := p.PublishUrgent(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
