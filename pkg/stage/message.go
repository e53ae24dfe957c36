package stage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"care-advisor-be/pkg/profile"
	"care-advisor-be/pkg/reference"
)

var (
	ErrMalformedMessage   = errors.New("malformed message")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidSpeaker     = errors.New("invalid speaker")
)

// Role identifies who spoke an utterance.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "sales"
)

// ParseRole accepts "customer", "sales" or "agent"; empty means customer.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "customer":
		return RoleCustomer, nil
	case "sales", "agent":
		return RoleAgent, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSpeaker, s)
}

// Inbound is one of Speech, Command or StageChange.
type Inbound interface {
	inbound()
}

type Speech struct {
	Text    string
	Speaker Role
}

type Command struct {
	Command string
}

type StageChange struct {
	Stage string
}

func (Speech) inbound()      {}
func (Command) inbound()     {}
func (StageChange) inbound() {}

type envelope struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Speaker string `json:"speaker"`
	Command string `json:"command"`
	Stage   string `json:"stage"`
}

// DecodeInbound parses a raw transport frame into its typed variant.
func DecodeInbound(raw []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	switch env.Type {
	case "speech":
		role, err := ParseRole(env.Speaker)
		if err != nil {
			return nil, err
		}
		return Speech{Text: env.Text, Speaker: role}, nil
	case "command":
		return Command{Command: env.Command}, nil
	case "stage_change":
		return StageChange{Stage: env.Stage}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
}

// Reply kinds written to the transport.
const (
	TypeInfoCollection    = "info_collection"
	TypeFeedbackAnalysis  = "feedback_analysis"
	TypeAIResponse        = "ai_response"
	TypeSimilarCases      = "similar_cases"
	TypeAcknowledgement   = "acknowledgement"
	TypeStageChange       = "stage_change"
	TypeAICommandResponse = "ai_command_response"
	TypeError             = "error"
	TypeBroadcast         = "broadcast"
)

// Error codes carried by ErrorReply.
const (
	CodeValidation          = "validation"
	CodeCollaboratorFailure = "collaborator_failure"
	CodeNotFound            = "not_found"
	CodeInternal            = "internal"
)

// Reply is an outbound message. Every variant carries its own type tag.
type Reply interface {
	Kind() string
}

type InfoCollectionReply struct {
	Type      string          `json:"type"`
	Extracted profile.Profile `json:"extracted"`
}

type FeedbackAnalysisReply struct {
	Type     string   `json:"type"`
	Analysis Feedback `json:"analysis"`
}

type AIResponseReply struct {
	Type     string `json:"type"`
	Response string `json:"response"`
}

type SimilarCasesReply struct {
	Type    string            `json:"type"`
	Cases   []reference.Match `json:"cases"`
	Scripts []reference.Match `json:"scripts,omitempty"`
}

type AcknowledgementReply struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type StageChangeReply struct {
	Type    string `json:"type"`
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

type AICommandResponseReply struct {
	Type     string `json:"type"`
	Response string `json:"response"`
}

type ErrorReply struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BroadcastReply struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (r InfoCollectionReply) Kind() string    { return TypeInfoCollection }
func (r FeedbackAnalysisReply) Kind() string  { return TypeFeedbackAnalysis }
func (r AIResponseReply) Kind() string        { return TypeAIResponse }
func (r SimilarCasesReply) Kind() string      { return TypeSimilarCases }
func (r AcknowledgementReply) Kind() string   { return TypeAcknowledgement }
func (r StageChangeReply) Kind() string       { return TypeStageChange }
func (r AICommandResponseReply) Kind() string { return TypeAICommandResponse }
func (r ErrorReply) Kind() string             { return TypeError }
func (r BroadcastReply) Kind() string         { return TypeBroadcast }

// NewError builds an error reply.
func NewError(code, message string) ErrorReply {
	return ErrorReply{Type: TypeError, Code: code, Message: message}
}

// Encode serializes a reply. Encoding failures degrade to an internal error
// reply so the transport always has something to send.
func Encode(r Reply) []byte {
	data, err := json.Marshal(r)
	if err != nil {
		data, _ = json.Marshal(NewError(CodeInternal, "failed to encode reply"))
	}
	return data
}
