package services

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Routing keys of the domain events published after successful mutations.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
	EventPostCreated = "post.created"
	EventPostUpdated = "post.updated"
	EventPostDeleted = "post.deleted"
)

// Event is the envelope published for every domain event.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	EntityID   int         `json:"entity_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data,omitempty"`
}

// EventPublisher delivers domain events to a message broker.
type EventPublisher interface {
	PublishEvent(routingKey string, event Event) error
}

// NewEvent builds an event envelope with a fresh id.
func NewEvent(eventType string, entityID int, data interface{}) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// publish sends the event when a publisher is configured. Failures are logged,
// the mutation that triggered the event has already happened.
func publish(p EventPublisher, eventType string, entityID int, data interface{}) {
	if p == nil {
		return
	}
	event := NewEvent(eventType, entityID, data)
	if err := p.PublishEvent(eventType, event); err != nil {
		slog.Warn("failed to publish event", "type", eventType, "entity_id", entityID, "error", err)
		return
	}
	slog.Debug("published event", "type", eventType, "entity_id", entityID, "event_id", event.ID)
}
