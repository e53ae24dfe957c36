package service

import (
	"context"
	"encoding/json"
	"time"

	"care-advisor-be/internal/dto"
	"care-advisor-be/internal/entity"
	"care-advisor-be/internal/pkg/logger"
	"care-advisor-be/internal/repository/contract"
	"care-advisor-be/pkg/profile"
	"care-advisor-be/pkg/stage"
)

type IProfileSnapshotService interface {
	SessionStarted(ctx context.Context, sessionID string)
	SessionEnded(ctx context.Context, sessionID string, final stage.Stage, snap profile.Snapshot)
	Latest(ctx context.Context, sessionID string) (*entity.ProfileSnapshot, error)
	Recent(ctx context.Context, limit int) ([]*entity.ProfileSnapshot, error)
}

// profileSnapshotService queues the final state of ended sessions for the
// consumer to persist, and reads stored snapshots back.
type profileSnapshotService struct {
	publisher IPublisherService
	snapshots contract.ProfileSnapshotRepository
	logger    logger.ILogger
}

func NewProfileSnapshotService(publisher IPublisherService, snapshots contract.ProfileSnapshotRepository, log logger.ILogger) IProfileSnapshotService {
	return &profileSnapshotService{publisher: publisher, snapshots: snapshots, logger: log}
}

func (s *profileSnapshotService) SessionStarted(ctx context.Context, sessionID string) {}

// SessionEnded skips sessions that never produced a profile or any context.
func (s *profileSnapshotService) SessionEnded(ctx context.Context, sessionID string, final stage.Stage, snap profile.Snapshot) {
	if snap.Profile.IsEmpty() && len(snap.History) == 0 {
		return
	}

	payload, err := json.Marshal(dto.PublishProfileSnapshotMessage{
		SessionId: sessionID,
		Stage:     string(final),
		Profile:   snap.Profile,
		History:   snap.History,
		EndedAt:   time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("ProfileSnapshot", "Failed to marshal snapshot", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		return
	}

	if err := s.publisher.Publish(ctx, payload); err != nil {
		s.logger.Error("ProfileSnapshot", "Failed to queue snapshot", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
	}
}

func (s *profileSnapshotService) Latest(ctx context.Context, sessionID string) (*entity.ProfileSnapshot, error) {
	return s.snapshots.FindLatestBySessionId(ctx, sessionID)
}

func (s *profileSnapshotService) Recent(ctx context.Context, limit int) ([]*entity.ProfileSnapshot, error) {
	return s.snapshots.FindAll(ctx, limit)
}
