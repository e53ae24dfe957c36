package service

import (
	"context"
	"fmt"
	"time"

	"care-advisor-be/internal/dto"
	"care-advisor-be/pkg/profile"
	"care-advisor-be/pkg/stage"
)

// IAiService exposes the analyzer and responder outside a live session.
type IAiService interface {
	Analyze(ctx context.Context, req *dto.AnalyzeRequest) (*stage.Feedback, error)
	GenerateResponse(ctx context.Context, req *dto.GenerateResponseRequest) (*dto.GenerateResponseResponse, error)
}

type aiService struct {
	analyzer  stage.Analyzer
	responder stage.Responder
	timeout   time.Duration
}

func NewAiService(analyzer stage.Analyzer, responder stage.Responder, timeout time.Duration) IAiService {
	return &aiService{analyzer: analyzer, responder: responder, timeout: timeout}
}

func (s *aiService) Analyze(ctx context.Context, req *dto.AnalyzeRequest) (*stage.Feedback, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	feedback, err := s.analyzer.AnalyzeFeedback(ctx, req.Content)
	if err != nil {
		return nil, fmt.Errorf("analyze feedback: %w", err)
	}
	return &feedback, nil
}

func (s *aiService) GenerateResponse(ctx context.Context, req *dto.GenerateResponseRequest) (*dto.GenerateResponseResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	answer, err := s.responder.Generate(ctx, req.Query, req.CustomerProfile, contextWindow(req.Context))
	if err != nil {
		return nil, fmt.Errorf("generate response: %w", err)
	}
	return &dto.GenerateResponseResponse{Response: answer}, nil
}

func (s *aiService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// contextWindow keeps the most recent profile.DefaultWindow messages.
func contextWindow(messages []dto.ContextMessage) []profile.Entry {
	if len(messages) > profile.DefaultWindow {
		messages = messages[len(messages)-profile.DefaultWindow:]
	}
	window := make([]profile.Entry, 0, len(messages))
	for _, m := range messages {
		window = append(window, profile.Entry{Role: m.Role, Content: m.Content})
	}
	return window
}
