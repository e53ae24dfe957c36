package dto

import (
	"time"

	"care-advisor-be/pkg/profile"
)

type SessionResponse struct {
	SessionId   string    `json:"session_id"`
	Stage       string    `json:"stage"`
	ConnectedAt time.Time `json:"connected_at"`
}

type SessionProfileResponse struct {
	SessionId string          `json:"session_id"`
	Stage     string          `json:"stage"`
	Live      bool            `json:"live"`
	Profile   profile.Profile `json:"profile"`
	History   []profile.Entry `json:"history"`
}

type BroadcastRequest struct {
	Title   string `json:"title" validate:"required,max=120"`
	Message string `json:"message" validate:"required,max=2000"`
}

// PublishProfileSnapshotMessage is the payload queued when a session ends.
type PublishProfileSnapshotMessage struct {
	SessionId string          `json:"session_id"`
	Stage     string          `json:"stage"`
	Profile   profile.Profile `json:"profile"`
	History   []profile.Entry `json:"history"`
	EndedAt   time.Time       `json:"ended_at"`
}
