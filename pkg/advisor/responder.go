package advisor

import (
	"context"
	"fmt"
	"strings"

	"care-advisor-be/pkg/llm"
	"care-advisor-be/pkg/profile"
	"care-advisor-be/pkg/stage"
)

// Responder answers customers and agents in the assistant's persona.
type Responder struct {
	llm     llm.LLMProvider
	persona string
}

var _ stage.Responder = (*Responder)(nil)

// NewResponder names the assistant after the wake word agents address it by.
func NewResponder(provider llm.LLMProvider, assistantName string) *Responder {
	return &Responder{llm: provider, persona: assistantName}
}

func (r *Responder) Generate(ctx context.Context, query string, p profile.Profile, window []profile.Entry) (string, error) {
	history := buildMessages(fmt.Sprintf(consultantPersona, r.persona), p, window, "客户问题："+query)
	out, err := r.llm.Chat(ctx, history)
	if err != nil {
		return "", fmt.Errorf("generate consultation answer: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (r *Responder) GenerateForAgent(ctx context.Context, instruction string, p profile.Profile, window []profile.Entry) (string, error) {
	history := buildMessages(fmt.Sprintf(agentAssistPersona, r.persona), p, window, "销售人员的指令："+instruction)
	out, err := r.llm.Chat(ctx, history)
	if err != nil {
		return "", fmt.Errorf("generate agent assist: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func buildMessages(system string, p profile.Profile, window []profile.Entry, ask string) []llm.Message {
	var b strings.Builder
	if summary := p.Summary(); summary != "" {
		b.WriteString("客户资料：\n")
		b.WriteString(summary)
		b.WriteString("\n\n")
	}
	if len(window) > 0 {
		b.WriteString("最近的对话内容：\n")
		for _, e := range window {
			fmt.Fprintf(&b, "%s: %s\n", e.Role, e.Content)
		}
		b.WriteString("\n")
	}
	b.WriteString(ask)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: b.String()},
	}
}
