package memory

import (
	"context"
	"sync"
	"time"

	"care-advisor-be/internal/entity"
	"care-advisor-be/internal/repository/contract"

	"github.com/google/uuid"
)

type ProfileSnapshotRepository struct {
	mu        sync.RWMutex
	snapshots []*entity.ProfileSnapshot
}

func NewProfileSnapshotRepository() contract.ProfileSnapshotRepository {
	return &ProfileSnapshotRepository{}
}

func (r *ProfileSnapshotRepository) Create(ctx context.Context, snapshot *entity.ProfileSnapshot) error {
	if snapshot.Id == uuid.Nil {
		snapshot.Id = uuid.New()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now()
	}
	stored := *snapshot
	r.mu.Lock()
	r.snapshots = append(r.snapshots, &stored)
	r.mu.Unlock()
	return nil
}

func (r *ProfileSnapshotRepository) FindLatestBySessionId(ctx context.Context, sessionId string) (*entity.ProfileSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.snapshots) - 1; i >= 0; i-- {
		if r.snapshots[i].SessionId == sessionId {
			out := *r.snapshots[i]
			return &out, nil
		}
	}
	return nil, nil
}

func (r *ProfileSnapshotRepository) FindAll(ctx context.Context, limit int) ([]*entity.ProfileSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.ProfileSnapshot, 0, len(r.snapshots))
	for i := len(r.snapshots) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		s := *r.snapshots[i]
		out = append(out, &s)
	}
	return out, nil
}
