package repository

import (
	"context"

	"care-advisor-be/internal/repository/contract"
	"care-advisor-be/pkg/reference"
)

// KindStore exposes one collection of a ReferenceRepository as the backing
// store of a reference.Index.
type KindStore struct {
	repo contract.ReferenceRepository
	kind reference.Kind
}

var _ reference.Store = (*KindStore)(nil)

func NewKindStore(repo contract.ReferenceRepository, kind reference.Kind) *KindStore {
	return &KindStore{repo: repo, kind: kind}
}

func (s *KindStore) LoadAll(ctx context.Context) ([]reference.Record, error) {
	return s.repo.FindAllByKind(ctx, s.kind)
}

func (s *KindStore) Save(ctx context.Context, rec reference.Record) error {
	rec.Kind = s.kind
	return s.repo.Create(ctx, rec)
}
