package stage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidStage   = errors.New("invalid stage")
	ErrInvalidCommand = errors.New("invalid command format")
)

// Stage is the current phase of a live conversation.
type Stage string

const (
	Initial          Stage = "initial"
	Tour             Stage = "tour"
	Consultation     Stage = "consultation"
	CasePresentation Stage = "case_presentation"
)

// Stages lists every valid stage. Any stage may follow any other.
var Stages = []Stage{Initial, Tour, Consultation, CasePresentation}

// ParseStage validates a stage name.
func ParseStage(s string) (Stage, error) {
	for _, st := range Stages {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStage, s)
}

// Session is the per-connection conversation state owned by the router.
// Profile and context live in the profile store under the same ID.
type Session struct {
	ID    string
	Stage Stage
}

// NewSession starts a session in the Initial stage.
func NewSession(id string) *Session {
	return &Session{ID: id, Stage: Initial}
}

// ExtractInstruction returns the text after the first wake word, with a
// trailing question mark added when none is present.
func ExtractInstruction(command, wakeWord string) (string, error) {
	if wakeWord == "" {
		return "", fmt.Errorf("%w: no wake word configured", ErrInvalidCommand)
	}
	idx := strings.Index(command, wakeWord)
	if idx < 0 {
		return "", ErrInvalidCommand
	}
	rest := command[idx+len(wakeWord):]
	if next := strings.Index(rest, wakeWord); next >= 0 {
		rest = rest[:next]
	}
	instruction := strings.TrimSpace(strings.TrimLeft(rest, " ,，:：、"))
	if !strings.HasSuffix(instruction, "?") && !strings.HasSuffix(instruction, "？") {
		instruction += "?"
	}
	return instruction, nil
}
