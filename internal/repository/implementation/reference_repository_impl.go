package implementation

import (
	"context"

	"care-advisor-be/internal/mapper"
	"care-advisor-be/internal/model"
	"care-advisor-be/internal/repository/contract"
	"care-advisor-be/pkg/reference"

	"gorm.io/gorm"
)

type ReferenceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReferenceMapper
}

func NewReferenceRepository(db *gorm.DB) contract.ReferenceRepository {
	return &ReferenceRepositoryImpl{
		db:     db,
		mapper: mapper.NewReferenceMapper(),
	}
}

func (r *ReferenceRepositoryImpl) Create(ctx context.Context, record reference.Record) error {
	m, err := r.mapper.ToModel(record)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// FindAllByKind returns records in insertion order.
func (r *ReferenceRepositoryImpl) FindAllByKind(ctx context.Context, kind reference.Kind) ([]reference.Record, error) {
	var models []*model.ReferenceRecord
	if err := r.db.WithContext(ctx).
		Where("kind = ?", string(kind)).
		Order("created_at ASC").
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	records := make([]reference.Record, 0, len(models))
	for _, m := range models {
		rec, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
