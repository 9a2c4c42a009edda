package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/truckmate/fleet-tracking/module/tracking/domain"
	"github.com/truckmate/fleet-tracking/module/tracking/internal/repository/publisher"
)

var _ publisher.NotificationPublisher = (*NotificationPublisher)(nil)

const (
	exchangeName = "fleet.notifications"

	notificationQueue = "in_app_notifications"
	urgentQueue       = "urgent_alerts"

	notifyKey = "notify"
	urgentKey = "urgent"
)

// NotificationPublisher routes events through a direct exchange: every
// event lands in the standard queue, urgent ones additionally in the
// urgent queue so the blocking-alert consumer never waits behind toasts.
type NotificationPublisher struct {
	ch *amqp.Channel
}

func NewNotificationPublisher(conn *amqp.Connection) (*NotificationPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "direct", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	for _, q := range []struct{ name, key string }{
		{notificationQueue, notifyKey},
		{urgentQueue, urgentKey},
	} {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare queue %s: %w", q.name, err)
		}
		if err := ch.QueueBind(q.name, q.key, exchangeName, false, nil); err != nil {
			return nil, fmt.Errorf("bind queue %s: %w", q.name, err)
		}
	}

	return &NotificationPublisher{ch: ch}, nil
}

func (p *NotificationPublisher) Publish(ctx context.Context, event *domain.NotificationEvent) error {
	return p.publish(ctx, notifyKey, event)
}

// PublishUrgent delivers on both routing keys: the urgent consumer gets its
// own copy and the standard notification stream still shows the event.
func (p *NotificationPublisher) PublishUrgent(ctx context.Context, event *domain.NotificationEvent) error {
	if err := p.publish(ctx, urgentKey, event); err != nil {
		return err
	}
	return p.publish(ctx, notifyKey, event)
}

func (p *NotificationPublisher) publish(ctx context.Context, key string, event *domain.NotificationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return p.ch.PublishWithContext(ctx, exchangeName, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (p *NotificationPublisher) Close() error {
	return p.ch.Close()
}
