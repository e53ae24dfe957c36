package implementation

import (
	"context"
	"errors"

	"care-advisor-be/internal/entity"
	"care-advisor-be/internal/mapper"
	"care-advisor-be/internal/model"
	"care-advisor-be/internal/repository/contract"

	"gorm.io/gorm"
)

type ProfileSnapshotRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ProfileSnapshotMapper
}

func NewProfileSnapshotRepository(db *gorm.DB) contract.ProfileSnapshotRepository {
	return &ProfileSnapshotRepositoryImpl{
		db:     db,
		mapper: mapper.NewProfileSnapshotMapper(),
	}
}

func (r *ProfileSnapshotRepositoryImpl) Create(ctx context.Context, snapshot *entity.ProfileSnapshot) error {
	m, err := r.mapper.ToModel(snapshot)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	snapshot.Id = m.Id
	snapshot.CreatedAt = m.CreatedAt
	return nil
}

func (r *ProfileSnapshotRepositoryImpl) FindLatestBySessionId(ctx context.Context, sessionId string) (*entity.ProfileSnapshot, error) {
	var m model.ProfileSnapshot
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *ProfileSnapshotRepositoryImpl) FindAll(ctx context.Context, limit int) ([]*entity.ProfileSnapshot, error) {
	var models []*model.ProfileSnapshot
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*entity.ProfileSnapshot, 0, len(models))
	for _, m := range models {
		s, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
