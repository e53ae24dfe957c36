package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"care-advisor-be/internal/pkg/logger"
	"care-advisor-be/pkg/profile"
	"care-advisor-be/pkg/reference"
)

// ErrCallTimeout is returned when a collaborator does not answer in time.
var ErrCallTimeout = errors.New("collaborator call timed out")

// Feedback is the structured reading of a customer's reaction during a tour.
type Feedback struct {
	Interests     []string `json:"interests"`
	Concerns      []string `json:"concerns"`
	Sentiment     string   `json:"sentiment"`
	PriorityNeeds []string `json:"priority_needs"`
}

// Analyzer turns free text into structured profile data.
type Analyzer interface {
	Extract(ctx context.Context, text string) (profile.Profile, error)
	AnalyzeFeedback(ctx context.Context, text string) (Feedback, error)
}

// Responder produces natural-language answers.
type Responder interface {
	Generate(ctx context.Context, query string, p profile.Profile, window []profile.Entry) (string, error)
	GenerateForAgent(ctx context.Context, instruction string, p profile.Profile, window []profile.Entry) (string, error)
}

// Matcher ranks reference records against a profile-derived query.
type Matcher interface {
	Search(query reference.Attributes, topK int, mode reference.Mode) []reference.Match
}

// Listener is told about state changes worth publishing. Calls happen on the
// handling goroutine and must not block.
type Listener interface {
	StageChanged(ctx context.Context, sessionID string, from, to Stage)
	ProfileUpdated(ctx context.Context, sessionID string, p profile.Profile)
}

type Config struct {
	WakeWord    string
	CallTimeout time.Duration
	TopK        int
	Mode        reference.Mode
}

// Machine routes messages to the handler for the session's current stage.
type Machine struct {
	analyzer  Analyzer
	responder Responder
	cases     Matcher
	scripts   Matcher
	profiles  *profile.Store
	listener  Listener
	cfg       Config
	logger    logger.ILogger
}

type Option func(*Machine)

// WithScripts adds sales script matches to case presentation replies.
func WithScripts(scripts Matcher) Option {
	return func(m *Machine) { m.scripts = scripts }
}

func WithListener(l Listener) Option {
	return func(m *Machine) { m.listener = l }
}

func NewMachine(
	analyzer Analyzer,
	responder Responder,
	cases Matcher,
	profiles *profile.Store,
	cfg Config,
	log logger.ILogger,
	opts ...Option,
) *Machine {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.Mode == "" {
		cfg.Mode = reference.ModeSimilar
	}
	m := &Machine{
		analyzer:  analyzer,
		responder: responder,
		cases:     cases,
		profiles:  profiles,
		cfg:       cfg,
		logger:    log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle processes one inbound message for sess. It never fails: every
// problem is turned into an error reply and the session stays usable.
// Callers must not invoke Handle concurrently for the same session.
func (m *Machine) Handle(ctx context.Context, sess *Session, in Inbound) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("StageMachine", "Recovered from panic", map[string]interface{}{
				"session_id": sess.ID,
				"stage":      sess.Stage,
				"panic":      fmt.Sprint(r),
			})
			reply = NewError(CodeInternal, "internal error while handling message")
		}
	}()

	switch msg := in.(type) {
	case Speech:
		return m.handleSpeech(ctx, sess, msg)
	case Command:
		return m.handleCommand(ctx, sess, msg)
	case StageChange:
		return m.handleStageChange(ctx, sess, msg)
	}
	return NewError(CodeValidation, "unknown message type")
}

func (m *Machine) handleSpeech(ctx context.Context, sess *Session, msg Speech) Reply {
	m.profiles.AppendContext(sess.ID, string(msg.Speaker), msg.Text)

	switch sess.Stage {
	case Initial:
		if msg.Speaker != RoleCustomer {
			return acknowledge("sales remark recorded")
		}
		return m.collectInfo(ctx, sess, msg.Text)
	case Tour:
		if msg.Speaker != RoleCustomer {
			return acknowledge("tour introduction recorded")
		}
		return m.analyzeFeedback(ctx, sess, msg.Text)
	case Consultation:
		if msg.Speaker != RoleCustomer {
			return acknowledge("sales question recorded")
		}
		return m.answer(ctx, sess, msg.Text)
	case CasePresentation:
		return m.presentCases(sess)
	}
	return NewError(CodeInternal, fmt.Sprintf("unknown interaction stage %q", sess.Stage))
}

func (m *Machine) collectInfo(ctx context.Context, sess *Session, text string) Reply {
	extracted, err := callWithTimeout(ctx, m.cfg.CallTimeout, func(ctx context.Context) (profile.Profile, error) {
		return m.analyzer.Extract(ctx, text)
	})
	if err != nil {
		return m.collaboratorFailure(sess, "extract", err, "failed to extract customer information")
	}

	merged := m.profiles.Merge(sess.ID, extracted)
	m.notifyProfile(ctx, sess.ID, merged)

	return InfoCollectionReply{Type: TypeInfoCollection, Extracted: extracted}
}

func (m *Machine) analyzeFeedback(ctx context.Context, sess *Session, text string) Reply {
	feedback, err := callWithTimeout(ctx, m.cfg.CallTimeout, func(ctx context.Context) (Feedback, error) {
		return m.analyzer.AnalyzeFeedback(ctx, text)
	})
	if err != nil {
		return m.collaboratorFailure(sess, "analyze_feedback", err, "failed to analyze customer feedback")
	}

	merged := m.profiles.Merge(sess.ID, profile.Profile{Interests: feedback.Interests})
	m.notifyProfile(ctx, sess.ID, merged)

	return FeedbackAnalysisReply{Type: TypeFeedbackAnalysis, Analysis: feedback}
}

func (m *Machine) answer(ctx context.Context, sess *Session, text string) Reply {
	p := m.profiles.Get(sess.ID)
	window := m.profiles.Window(sess.ID)

	response, err := callWithTimeout(ctx, m.cfg.CallTimeout, func(ctx context.Context) (string, error) {
		return m.responder.Generate(ctx, text, p, window)
	})
	if err != nil {
		return m.collaboratorFailure(sess, "generate", err, "failed to generate a response")
	}
	return AIResponseReply{Type: TypeAIResponse, Response: response}
}

func (m *Machine) presentCases(sess *Session) Reply {
	query := m.profiles.Get(sess.ID).Attributes()

	reply := SimilarCasesReply{
		Type:  TypeSimilarCases,
		Cases: m.cases.Search(query, m.cfg.TopK, m.cfg.Mode),
	}
	if m.scripts != nil {
		reply.Scripts = m.scripts.Search(query, m.cfg.TopK, reference.ModeBest)
	}
	return reply
}

func (m *Machine) handleCommand(ctx context.Context, sess *Session, msg Command) Reply {
	instruction, err := ExtractInstruction(msg.Command, m.cfg.WakeWord)
	if err != nil {
		return NewError(CodeValidation, "invalid command format")
	}

	p := m.profiles.Get(sess.ID)
	window := m.profiles.Window(sess.ID)

	response, err := callWithTimeout(ctx, m.cfg.CallTimeout, func(ctx context.Context) (string, error) {
		return m.responder.GenerateForAgent(ctx, instruction, p, window)
	})
	if err != nil {
		return m.collaboratorFailure(sess, "generate_for_agent", err, "failed to generate a response for the agent")
	}
	return AICommandResponseReply{Type: TypeAICommandResponse, Response: response}
}

func (m *Machine) handleStageChange(ctx context.Context, sess *Session, msg StageChange) Reply {
	next, err := ParseStage(msg.Stage)
	if err != nil {
		return NewError(CodeValidation, fmt.Sprintf("invalid interaction stage %q", msg.Stage))
	}

	prev := sess.Stage
	sess.Stage = next
	m.logger.Info("StageMachine", "Stage changed", map[string]interface{}{
		"session_id": sess.ID,
		"from":       prev,
		"to":         next,
	})
	if m.listener != nil {
		m.listener.StageChanged(ctx, sess.ID, prev, next)
	}

	return StageChangeReply{
		Type:    TypeStageChange,
		Stage:   next,
		Message: fmt.Sprintf("switched to %s stage", next),
	}
}

func (m *Machine) notifyProfile(ctx context.Context, sessionID string, p profile.Profile) {
	if m.listener != nil {
		m.listener.ProfileUpdated(ctx, sessionID, p)
	}
}

func (m *Machine) collaboratorFailure(sess *Session, call string, err error, message string) Reply {
	m.logger.Error("StageMachine", "Collaborator call failed", map[string]interface{}{
		"session_id": sess.ID,
		"stage":      sess.Stage,
		"call":       call,
		"error":      err.Error(),
	})
	if errors.Is(err, ErrCallTimeout) {
		message += " (timed out)"
	}
	return NewError(CodeCollaboratorFailure, message)
}

func acknowledge(message string) Reply {
	return AcknowledgementReply{Type: TypeAcknowledgement, Message: message}
}

// callWithTimeout runs fn on its own goroutine so a collaborator that ignores
// ctx still cannot hold the session past the deadline. Panics inside fn are
// reported as errors.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- result{val: zero, err: fmt.Errorf("collaborator panicked: %v", r)}
			}
		}()
		v, err := fn(ctx)
		done <- result{val: v, err: err}
	}()

	select {
	case res := <-done:
		return res.val, res.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrCallTimeout
		}
		return zero, ctx.Err()
	}
}
