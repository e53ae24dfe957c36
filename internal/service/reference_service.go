package service

import (
	"context"

	"care-advisor-be/internal/dto"
	"care-advisor-be/pkg/reference"
)

type IReferenceService interface {
	Kind() reference.Kind
	GetAll(ctx context.Context) []reference.Summary
	Show(ctx context.Context, id string) (*dto.ReferenceResponse, error)
	Create(ctx context.Context, req *dto.CreateReferenceRequest) (*dto.ReferenceResponse, error)
	Search(ctx context.Context, rawQuery []byte, topK int, mode reference.Mode) *dto.SearchReferenceResponse
}

type referenceService struct {
	index       *reference.Index
	defaultTopK int
}

func NewReferenceService(index *reference.Index, defaultTopK int) IReferenceService {
	if defaultTopK <= 0 {
		defaultTopK = 3
	}
	return &referenceService{index: index, defaultTopK: defaultTopK}
}

func (s *referenceService) Kind() reference.Kind {
	return s.index.Kind()
}

func (s *referenceService) GetAll(ctx context.Context) []reference.Summary {
	return s.index.List()
}

func (s *referenceService) Show(ctx context.Context, id string) (*dto.ReferenceResponse, error) {
	rec, err := s.index.Get(id)
	if err != nil {
		return nil, err
	}
	res := dto.NewReferenceResponse(rec)
	return &res, nil
}

func (s *referenceService) Create(ctx context.Context, req *dto.CreateReferenceRequest) (*dto.ReferenceResponse, error) {
	rec, err := s.index.Add(ctx, reference.Record{
		ID:         req.Id,
		Title:      req.Title,
		Date:       req.Date,
		Attributes: reference.Attributes(req.Attributes),
		Payload:    req.Payload,
	})
	if err != nil {
		return nil, err
	}
	res := dto.NewReferenceResponse(rec)
	return &res, nil
}

// Search never fails: a body that is not a JSON object is an empty query.
func (s *referenceService) Search(ctx context.Context, rawQuery []byte, topK int, mode reference.Mode) *dto.SearchReferenceResponse {
	if topK <= 0 {
		topK = s.defaultTopK
	}
	matches := s.index.Search(reference.ParseQuery(rawQuery), topK, mode)

	res := &dto.SearchReferenceResponse{
		Mode:    string(mode),
		TopK:    topK,
		Matches: make([]dto.ReferenceMatchResponse, 0, len(matches)),
	}
	for _, m := range matches {
		res.Matches = append(res.Matches, dto.ReferenceMatchResponse{
			Score:  m.Score,
			Record: dto.NewReferenceResponse(m.Record),
		})
	}
	return res
}
