package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/truckmate/fleet-tracking/module/tracking/domain"
)

// Mock change-feed publisher for local runs: emits vehicle, inspection and
// assignment change events on the three topics the engine subscribes to.

const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomPlate() string {
	letter := string(charset[rand.Intn(26)])
	digits := fmt.Sprintf("%04d", rand.Intn(10000))
	suffix := string([]byte{charset[rand.Intn(26)], charset[rand.Intn(26)], charset[rand.Intn(26)]})
	return letter + digits + suffix
}

type vehicleEnvelope struct {
	EventType domain.EventType     `json:"event_type"`
	Old       *domain.VehicleState `json:"old,omitempty"`
	New       *domain.VehicleState `json:"new,omitempty"`
}

type inspectionEnvelope struct {
	EventType domain.EventType   `json:"event_type"`
	Old       *domain.Inspection `json:"old,omitempty"`
	New       *domain.Inspection `json:"new,omitempty"`
}

type assignmentEnvelope struct {
	EventType domain.EventType   `json:"event_type"`
	New       *domain.Assignment `json:"new,omitempty"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("fleet-mock-changefeed")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("mqtt connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	vehicles := make([]*domain.VehicleState, 5)
	for i := range vehicles {
		vehicles[i] = &domain.VehicleState{
			ID:           fmt.Sprintf("veh-%03d", i+1),
			LicensePlate: randomPlate(),
			Model:        "Box Truck 7.5t",
			Status:       "active",
			UpdatedAt:    time.Now(),
		}
	}

	log.Printf("connected to %s, publishing every %ds...", broker, intervalSec)

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		v := vehicles[rand.Intn(len(vehicles))]

		var topic string
		var payload []byte
		switch rand.Intn(3) {
		case 0:
			old := *v
			next := *v
			next.UpdatedAt = time.Now()
			switch rand.Intn(3) {
			case 0:
				if next.Status == "active" {
					next.Status = "maintenance"
				} else {
					next.Status = "active"
				}
			case 1:
				temp := 70 + rand.Float64()*35 // occasionally crosses 90
				next.EngineTempC = &temp
			case 2:
				fuel := rand.Float64() * 100
				next.FuelLevelPct = &fuel
			}
			*v = next
			topic = "/fleet/changes/vehicles"
			payload, _ = json.Marshal(vehicleEnvelope{EventType: domain.EventUpdate, Old: &old, New: &next})
		case 1:
			status := []string{"scheduled", "completed", "failed"}[rand.Intn(3)]
			insp := &domain.Inspection{
				ID:           fmt.Sprintf("insp-%d", rand.Intn(10000)),
				VehicleID:    v.ID,
				Status:       status,
				ScheduledFor: time.Now().Add(72 * time.Hour),
			}
			eventType := domain.EventUpdate
			if status == "scheduled" {
				eventType = domain.EventInsert
			}
			env := inspectionEnvelope{EventType: eventType, New: insp}
			if eventType == domain.EventUpdate {
				env.Old = insp
			}
			topic = "/fleet/changes/inspections"
			payload, _ = json.Marshal(env)
		case 2:
			topic = "/fleet/changes/assignments"
			payload, _ = json.Marshal(assignmentEnvelope{
				EventType: domain.EventInsert,
				New: &domain.Assignment{
					ID:        fmt.Sprintf("asg-%d", rand.Intn(10000)),
					VehicleID: v.ID,
					DriverID:  fmt.Sprintf("drv-%03d", rand.Intn(20)),
					Active:    true,
				},
			})
		}

		token := client.Publish(topic, 1, false, payload)
		token.Wait()

		log.Printf("published to %s: %s", topic, payload)
	}
}
