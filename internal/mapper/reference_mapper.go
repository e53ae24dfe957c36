package mapper

import (
	"encoding/json"
	"fmt"

	"care-advisor-be/internal/model"
	"care-advisor-be/pkg/reference"

	"gorm.io/datatypes"
)

type ReferenceMapper struct{}

func NewReferenceMapper() *ReferenceMapper {
	return &ReferenceMapper{}
}

func (m *ReferenceMapper) ToEntity(r *model.ReferenceRecord) (reference.Record, error) {
	rec := reference.Record{
		ID:    r.Id,
		Kind:  reference.Kind(r.Kind),
		Title: r.Title,
		Date:  r.Date,
	}
	if len(r.Attributes) > 0 {
		rec.Attributes = reference.ParseQuery(r.Attributes)
	} else {
		rec.Attributes = reference.Attributes{}
	}
	if len(r.Payload) > 0 && string(r.Payload) != "null" {
		rec.Payload = json.RawMessage(r.Payload)
	}
	return rec, nil
}

func (m *ReferenceMapper) ToModel(rec reference.Record) (*model.ReferenceRecord, error) {
	attrs, err := json.Marshal(rec.Attributes)
	if err != nil {
		return nil, fmt.Errorf("marshal attributes of %s: %w", rec.ID, err)
	}
	out := &model.ReferenceRecord{
		Id:         rec.ID,
		Kind:       string(rec.Kind),
		Title:      rec.Title,
		Date:       rec.Date,
		Attributes: datatypes.JSON(attrs),
	}
	if len(rec.Payload) > 0 {
		out.Payload = datatypes.JSON(rec.Payload)
	}
	return out, nil
}
