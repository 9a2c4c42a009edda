package config

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// NewMQTT connects the change-feed client. Auto-reconnect with resumed
// subscriptions is enabled so a broker hiccup does not silently drop the
// three change topics.
func NewMQTT(cfg *Config) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetResumeSubs(true).
		SetMaxReconnectInterval(30 * time.Second).
		// Handlers do their own I/O; let the client dispatch each
		// message on its own goroutine instead of serializing them.
		SetOrderMatters(false)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return client, nil
}
