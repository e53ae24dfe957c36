package mapper

import (
	"encoding/json"
	"fmt"

	"care-advisor-be/internal/entity"
	"care-advisor-be/internal/model"

	"gorm.io/datatypes"
)

type ProfileSnapshotMapper struct{}

func NewProfileSnapshotMapper() *ProfileSnapshotMapper {
	return &ProfileSnapshotMapper{}
}

func (m *ProfileSnapshotMapper) ToEntity(s *model.ProfileSnapshot) (*entity.ProfileSnapshot, error) {
	if s == nil {
		return nil, nil
	}
	out := &entity.ProfileSnapshot{
		Id:        s.Id,
		SessionId: s.SessionId,
		Stage:     s.Stage,
		CreatedAt: s.CreatedAt,
	}
	if len(s.Profile) > 0 {
		if err := json.Unmarshal(s.Profile, &out.Profile); err != nil {
			return nil, fmt.Errorf("decode snapshot profile: %w", err)
		}
	}
	if len(s.History) > 0 {
		if err := json.Unmarshal(s.History, &out.History); err != nil {
			return nil, fmt.Errorf("decode snapshot history: %w", err)
		}
	}
	return out, nil
}

func (m *ProfileSnapshotMapper) ToModel(s *entity.ProfileSnapshot) (*model.ProfileSnapshot, error) {
	p, err := json.Marshal(s.Profile)
	if err != nil {
		return nil, err
	}
	h, err := json.Marshal(s.History)
	if err != nil {
		return nil, err
	}
	return &model.ProfileSnapshot{
		Id:        s.Id,
		SessionId: s.SessionId,
		Stage:     s.Stage,
		Profile:   datatypes.JSON(p),
		History:   datatypes.JSON(h),
		CreatedAt: s.CreatedAt,
	}, nil
}
