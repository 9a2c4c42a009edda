package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/truckmate/fleet-tracking/module/tracking/domain"
)

const (
	vehiclesTopic    = "/fleet/changes/vehicles"
	inspectionsTopic = "/fleet/changes/inspections"
	assignmentsTopic = "/fleet/changes/assignments"
)

type changeFeedService interface {
	HandleVehicleChange(ctx context.Context, ev *domain.VehicleChange) error
	HandleInspectionChange(ctx context.Context, ev *domain.InspectionChange) error
	HandleAssignmentChange(ctx context.Context, ev *domain.AssignmentChange) error
}

// ChangeFeedSubscriber maintains the three change-event subscriptions and
// routes each message to the matching handler. Payload shape is validated
// here, at the boundary; malformed messages are logged and dropped.
type ChangeFeedSubscriber struct {
	client  mqtt.Client
	feedSvc changeFeedService
}

func NewChangeFeedSubscriber(client mqtt.Client, feedSvc changeFeedService) *ChangeFeedSubscriber {
	return &ChangeFeedSubscriber{client: client, feedSvc: feedSvc}
}

func (s *ChangeFeedSubscriber) Start() error {
	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{vehiclesTopic, s.handleVehicleMessage},
		{inspectionsTopic, s.handleInspectionMessage},
		{assignmentsTopic, s.handleAssignmentMessage},
	}
	for _, sub := range subs {
		token := s.client.Subscribe(sub.topic, 1, sub.handler)
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
	}
	return nil
}

// Stop drops all three subscriptions in one call so teardown is never
// partial.
func (s *ChangeFeedSubscriber) Stop() error {
	token := s.client.Unsubscribe(vehiclesTopic, inspectionsTopic, assignmentsTopic)
	token.Wait()
	return token.Error()
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
	Old       *domain.Assignment `json:"old,omitempty"`
	New       *domain.Assignment `json:"new,omitempty"`
}

func (s *ChangeFeedSubscriber) handleVehicleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw vehicleEnvelope
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Printf("invalid vehicle change message: %v", err)
		return
	}
	if err := validateEvent(raw.EventType, raw.Old != nil, raw.New != nil); err != nil {
		log.Printf("vehicle change validation: %v", err)
		return
	}
	ev := &domain.VehicleChange{Type: raw.EventType, Old: raw.Old, New: raw.New}
	if err := s.feedSvc.HandleVehicleChange(context.Background(), ev); err != nil {
		log.Printf("vehicle change handler: %v", err)
	}
}

func (s *ChangeFeedSubscriber) handleInspectionMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw inspectionEnvelope
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Printf("invalid inspection change message: %v", err)
		return
	}
	if err := validateEvent(raw.EventType, raw.Old != nil, raw.New != nil); err != nil {
		log.Printf("inspection change validation: %v", err)
		return
	}
	ev := &domain.InspectionChange{Type: raw.EventType, Old: raw.Old, New: raw.New}
	if err := s.feedSvc.HandleInspectionChange(context.Background(), ev); err != nil {
		log.Printf("inspection change handler: %v", err)
	}
}

func (s *ChangeFeedSubscriber) handleAssignmentMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw assignmentEnvelope
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Printf("invalid assignment change message: %v", err)
		return
	}
	if err := validateEvent(raw.EventType, raw.Old != nil, raw.New != nil); err != nil {
		log.Printf("assignment change validation: %v", err)
		return
	}
	ev := &domain.AssignmentChange{Type: raw.EventType, Old: raw.Old, New: raw.New}
	if err := s.feedSvc.HandleAssignmentChange(context.Background(), ev); err != nil {
		log.Printf("assignment change handler: %v", err)
	}
}

// validateEvent enforces the old/new shape each event kind requires:
// insert carries new, delete carries old, update carries both.
func validateEvent(eventType domain.EventType, hasOld, hasNew bool) error {
	switch eventType {
	case domain.EventInsert:
		if !hasNew {
			return fmt.Errorf("insert event: new record required")
		}
	case domain.EventUpdate:
		if !hasOld || !hasNew {
			return fmt.Errorf("update event: old and new records required")
		}
	case domain.EventDelete:
		if !hasOld {
			return fmt.Errorf("delete event: old record required")
		}
	default:
		return fmt.Errorf("unknown event type %q", eventType)
	}
	return nil
}
