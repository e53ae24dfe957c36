package memory

import (
	"context"
	"sync"

	"care-advisor-be/internal/repository/contract"
	"care-advisor-be/pkg/reference"
)

// ReferenceRepository keeps records in process memory, in insertion order.
type ReferenceRepository struct {
	mu      sync.RWMutex
	records []reference.Record
}

func NewReferenceRepository(seed ...reference.Record) contract.ReferenceRepository {
	return &ReferenceRepository{records: append([]reference.Record(nil), seed...)}
}

func (r *ReferenceRepository) Create(ctx context.Context, record reference.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *ReferenceRepository) FindAllByKind(ctx context.Context, kind reference.Kind) ([]reference.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]reference.Record, 0, len(r.records))
	for _, rec := range r.records {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out, nil
}
