package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	handler "github.com/truckmate/fleet-tracking/module/tracking/internal/handler/http"
	"github.com/truckmate/fleet-tracking/module/tracking/internal/handler/subscriber"
	"github.com/truckmate/fleet-tracking/module/tracking/internal/handler/ws"
	"github.com/truckmate/fleet-tracking/module/tracking/internal/repository/database/postgres"
	"github.com/truckmate/fleet-tracking/module/tracking/internal/repository/publisher"
	"github.com/truckmate/fleet-tracking/module/tracking/internal/repository/publisher/rabbitmq"
	redissnapshot "github.com/truckmate/fleet-tracking/module/tracking/internal/repository/snapshot/redis"
	"github.com/truckmate/fleet-tracking/module/tracking/service"
)

type Options struct {
	MaintenanceScanInterval time.Duration
	SafetyScanInterval      time.Duration
	AlertDedupeWindow       time.Duration
}

// Module is the tracking engine: live location state, the change-feed
// subscriptions, and the two threshold scans, behind one lifecycle.
type Module struct {
	Locations *service.LocationService
	Loader    *service.LoaderService
	Alerts    *service.AlertService
	Feed      *service.ChangeFeedService

	handler    *handler.TrackingHandler
	hub        *ws.NotificationHub
	subscriber *subscriber.ChangeFeedSubscriber
	cancel     context.CancelFunc
}

// Build wires the engine and rehydrates the location store from the last
// snapshot before anything can write to it.
func Build(ctx context.Context, db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, redisClient *redis.Client, opts Options) (*Module, error) {
	snapshots := redissnapshot.NewSnapshotStore(redisClient)

	locations := service.NewLocationService(snapshots)
	if err := locations.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restore tracking snapshot: %w", err)
	}

	broker, err := rabbitmq.NewNotificationPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("notification publisher: %w", err)
	}
	hub := ws.NewNotificationHub()
	sink := publisher.Fanout{broker, hub}

	fleetRepo := postgres.NewFleetRepo(db)
	loader := service.NewLoaderService(fleetRepo, locations, service.NewRandomEstimator(time.Now().UnixNano()))
	feedSvc := service.NewChangeFeedService(sink)
	alerts := service.NewAlertService(fleetRepo, sink, service.AlertOptions{
		MaintenanceInterval: opts.MaintenanceScanInterval,
		SafetyInterval:      opts.SafetyScanInterval,
		DedupeWindow:        opts.AlertDedupeWindow,
	})

	return &Module{
		Locations:  locations,
		Loader:     loader,
		Alerts:     alerts,
		Feed:       feedSvc,
		handler:    handler.NewTrackingHandler(locations, loader),
		hub:        hub,
		subscriber: subscriber.NewChangeFeedSubscriber(mqttClient, feedSvc),
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.handler.Register(r)
	m.hub.Register(r)
}

// Start subscribes the three change topics, kicks off the initial backend
// seed, and launches both scan loops under one cancellable context.
func (m *Module) Start(ctx context.Context) error {
	if err := m.subscriber.Start(); err != nil {
		return fmt.Errorf("start change-feed subscriptions: %w", err)
	}

	scanCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	go func() {
		if err := m.Loader.LoadVehiclesFromBackend(scanCtx); err != nil {
			log.Printf("initial vehicle load: %v", err)
		}
	}()
	go m.Alerts.RunMaintenanceLoop(scanCtx)
	go m.Alerts.RunSafetyLoop(scanCtx)

	return nil
}

// Close is the cancellation group: both scan loops and all three
// subscriptions go down together. A partial teardown is a leak.
func (m *Module) Close() error {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	err := m.subscriber.Stop()
	m.hub.Close()
	return err
}
