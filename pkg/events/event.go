package events

import (
	"context"
	"time"
)

// Session lifecycle event types. The NATS subject is "sessions.<type>".
const (
	SessionStarted   = "SESSION_STARTED"
	StageChanged     = "STAGE_CHANGED"
	ProfileUpdated   = "PROFILE_UPDATED"
	SessionEnded     = "SESSION_ENDED"
	SessionBroadcast = "SESSION_BROADCAST"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "STAGE_CHANGED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Handler processes one delivered event. A non-nil error asks for redelivery.
type Handler func(ctx context.Context, event Event) error

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = make(map[string]interface{})
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
