package service

import (
	"context"
	"sync"
	"time"

	"care-advisor-be/internal/pkg/logger"
	"care-advisor-be/pkg/events"
	"care-advisor-be/pkg/profile"
	"care-advisor-be/pkg/stage"
)

// EventPublisher is satisfied by *nats.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

const publishTimeout = 5 * time.Second

// SessionEventService publishes session lifecycle events to the bus. With no
// publisher configured every method is a no-op.
type SessionEventService struct {
	publisher EventPublisher
	logger    logger.ILogger
	inflight  sync.WaitGroup
}

var _ stage.Listener = (*SessionEventService)(nil)

func NewSessionEventService(publisher EventPublisher, log logger.ILogger) *SessionEventService {
	return &SessionEventService{publisher: publisher, logger: log}
}

func (s *SessionEventService) SessionStarted(ctx context.Context, sessionID string) {
	s.publish(ctx, events.New(events.SessionStarted, map[string]interface{}{
		"session_id": sessionID,
		"stage":      string(stage.Initial),
	}))
}

func (s *SessionEventService) SessionEnded(ctx context.Context, sessionID string, final stage.Stage, snap profile.Snapshot) {
	s.publish(ctx, events.New(events.SessionEnded, map[string]interface{}{
		"session_id": sessionID,
		"stage":      string(final),
		"turns":      len(snap.History),
	}))
}

func (s *SessionEventService) StageChanged(ctx context.Context, sessionID string, from, to stage.Stage) {
	s.publish(ctx, events.New(events.StageChanged, map[string]interface{}{
		"session_id": sessionID,
		"from":       string(from),
		"to":         string(to),
	}))
}

func (s *SessionEventService) ProfileUpdated(ctx context.Context, sessionID string, p profile.Profile) {
	s.publish(ctx, events.New(events.ProfileUpdated, map[string]interface{}{
		"session_id": sessionID,
		"profile":    p,
	}))
}

// publish runs off the caller's goroutine; stage handling must not wait on
// the bus.
func (s *SessionEventService) publish(ctx context.Context, evt events.BaseEvent) {
	if s.publisher == nil {
		return
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("SessionEvents", "Failed to publish event", map[string]interface{}{
				"type":  evt.Type,
				"error": err.Error(),
			})
		}
	}()
}

// Wait blocks until in-flight publishes finish.
func (s *SessionEventService) Wait() {
	s.inflight.Wait()
}
