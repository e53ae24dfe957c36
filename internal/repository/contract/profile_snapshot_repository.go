package contract

import (
	"context"

	"care-advisor-be/internal/entity"
)

type ProfileSnapshotRepository interface {
	Create(ctx context.Context, snapshot *entity.ProfileSnapshot) error
	// FindLatestBySessionId returns nil, nil when the session was never snapshotted.
	FindLatestBySessionId(ctx context.Context, sessionId string) (*entity.ProfileSnapshot, error)
	FindAll(ctx context.Context, limit int) ([]*entity.ProfileSnapshot, error)
}
