package dto

import (
	"encoding/json"

	"care-advisor-be/pkg/reference"
)

type CreateReferenceRequest struct {
	Id         string                 `json:"id" validate:"omitempty,max=64"`
	Title      string                 `json:"title" validate:"required,max=255"`
	Date       string                 `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Attributes map[string]interface{} `json:"attributes" validate:"required"`
	Payload    json.RawMessage        `json:"payload"`
}

type ReferenceResponse struct {
	Id         string                 `json:"id"`
	Kind       string                 `json:"kind"`
	Title      string                 `json:"title"`
	Date       string                 `json:"date,omitempty"`
	Attributes map[string]interface{} `json:"attributes"`
	Payload    json.RawMessage        `json:"payload,omitempty"`
}

type SearchReferenceResponse struct {
	Mode    string                   `json:"mode"`
	TopK    int                      `json:"top_k"`
	Matches []ReferenceMatchResponse `json:"matches"`
}

type ReferenceMatchResponse struct {
	Score  int               `json:"score"`
	Record ReferenceResponse `json:"record"`
}

func NewReferenceResponse(rec reference.Record) ReferenceResponse {
	return ReferenceResponse{
		Id:         rec.ID,
		Kind:       string(rec.Kind),
		Title:      rec.Title,
		Date:       rec.Date,
		Attributes: rec.Attributes,
		Payload:    rec.Payload,
	}
}
