package nats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "sessions.STAGE_CHANGED", Subject("STAGE_CHANGED"))
}

func TestDecodeEventKeepsEnvelope(t *testing.T) {
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	raw := []byte(`{"type":"STAGE_CHANGED","data":{"session_id":"s1","to":"tour"},"occurred_at":"2024-05-01T08:00:00Z"}`)

	event, err := decodeEvent("sessions.STAGE_CHANGED", raw)

	require.NoError(t, err)
	assert.Equal(t, "STAGE_CHANGED", event.EventType())
	assert.Equal(t, "tour", event.Payload()["to"])
	assert.True(t, at.Equal(event.Timestamp()))
}

func TestDecodeEventFallsBackToSubject(t *testing.T) {
	event, err := decodeEvent("sessions.SESSION_ENDED", []byte(`{}`))

	require.NoError(t, err)
	assert.Equal(t, "SESSION_ENDED", event.EventType())
	assert.NotNil(t, event.Payload())
	assert.False(t, event.Timestamp().IsZero())
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	_, err := decodeEvent("sessions.X", []byte("not json"))
	assert.Error(t, err)
}
