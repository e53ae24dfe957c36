package service

import (
	"context"
	"fmt"

	"care-advisor-be/internal/pkg/logger"
	"care-advisor-be/pkg/events"
	pktNats "care-advisor-be/pkg/nats"
)

// BroadcastDelivery pushes an operator notice to every connected session.
// Implemented by the websocket Hub.
type BroadcastDelivery interface {
	Broadcast(title, message string)
}

// EventSubscriber is satisfied by *nats.Subscriber.
type EventSubscriber interface {
	Subscribe(subject, durableName string, handler events.Handler) error
}

type BroadcastService struct {
	publisher  EventPublisher
	subscriber EventSubscriber
	delivery   BroadcastDelivery
	logger     logger.ILogger
}

func NewBroadcastService(pub EventPublisher, sub EventSubscriber, delivery BroadcastDelivery, log logger.ILogger) *BroadcastService {
	return &BroadcastService{publisher: pub, subscriber: sub, delivery: delivery, logger: log}
}

// Broadcast queues the notice on the bus when one is configured, otherwise
// delivers it directly.
func (s *BroadcastService) Broadcast(ctx context.Context, title, message string) error {
	if s.publisher == nil || s.subscriber == nil {
		s.delivery.Broadcast(title, message)
		return nil
	}
	evt := events.New(events.SessionBroadcast, map[string]interface{}{
		"title":   title,
		"message": message,
	})
	if err := s.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("queue broadcast: %w", err)
	}
	return nil
}

// Start consumes queued broadcasts. The Hub fans them out to other instances
// over redis, so one worker per cluster is enough.
func (s *BroadcastService) Start() error {
	if s.subscriber == nil {
		return nil
	}
	err := s.subscriber.Subscribe(pktNats.Subject(events.SessionBroadcast), "session-broadcast-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("BroadcastService", "Failed to start broadcast subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("BroadcastService", "Listening for broadcasts", nil)
	return nil
}

func (s *BroadcastService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	title, _ := payload["title"].(string)
	message, _ := payload["message"].(string)
	if message == "" {
		s.logger.Warn("BroadcastService", "Ignoring broadcast without message", map[string]interface{}{"type": event.EventType()})
		return nil
	}
	s.delivery.Broadcast(title, message)
	return nil
}
