package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/truckmate/fleet-tracking/config"
	"github.com/truckmate/fleet-tracking/module/tracking"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := config.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer func() { _ = db.Close() }()

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg)
	if err != nil {
		log.Fatalf("mqtt: %v", err)
	}
	defer mqttClient.Disconnect(250)

	redisClient, err := config.NewRedis(cfg)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer func() { _ = redisClient.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := tracking.Build(ctx, db, amqpConn, mqttClient, redisClient, tracking.Options{
		MaintenanceScanInterval: cfg.MaintenanceScanInterval,
		SafetyScanInterval:      cfg.SafetyScanInterval,
		AlertDedupeWindow:       cfg.AlertDedupeWindow,
	})
	if err != nil {
		log.Fatalf("tracking engine: %v", err)
	}

	if err := engine.Start(ctx); err != nil {
		log.Fatalf("start tracking engine: %v", err)
	}

	r := gin.Default()

	health := config.NewHealthChecker(db, amqpConn, mqttClient, redisClient)
	health.Register(r)

	engine.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: r}
	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	if err := engine.Close(); err != nil {
		log.Printf("engine teardown: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
