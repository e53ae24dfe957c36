package llm

import (
	"context"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Sampling temperatures for the two kinds of calls the advisor makes.
const (
	// ConversationTemperature is used for customer and agent answers.
	ConversationTemperature = 0.7
	// ExtractionTemperature is used whenever a JSON object is requested.
	ExtractionTemperature = 0.0
)

// Message is one turn of a chat in backend-neutral form.
type Message struct {
	Role    string
	Content string
}

// NormalizeRole maps the role names used across backends and session
// history onto system/user/assistant.
func NormalizeRole(role string) string {
	switch role {
	case RoleSystem:
		return RoleSystem
	case RoleAssistant, "model", "agent", "ai":
		return RoleAssistant
	default:
		return RoleUser
	}
}

type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // overrides the provider's model
	JSON        bool   // constrain output to a JSON object

	temperatureSet bool
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
		o.temperatureSet = true
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithJSON requests a JSON object response where the backend supports it.
func WithJSON() Option {
	return func(o *Options) {
		o.JSON = true
	}
}

// ApplyOptions resolves opts. Without an explicit temperature, JSON calls
// run at ExtractionTemperature and everything else at
// ConversationTemperature.
func ApplyOptions(opts ...Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	if !options.temperatureSet {
		options.Temperature = ConversationTemperature
		if options.JSON {
			options.Temperature = ExtractionTemperature
		}
	}
	return options
}

// LLMProvider is implemented by every chat backend.
type LLMProvider interface {
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends prompt as a single user turn.
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
