package contract

import (
	"context"

	"care-advisor-be/pkg/reference"
)

type ReferenceRepository interface {
	Create(ctx context.Context, record reference.Record) error
	FindAllByKind(ctx context.Context, kind reference.Kind) ([]reference.Record, error)
}
