package entity

import (
	"time"

	"care-advisor-be/pkg/profile"

	"github.com/google/uuid"
)

// ProfileSnapshot is what remains of a session once its connection ends.
type ProfileSnapshot struct {
	Id        uuid.UUID
	SessionId string
	Stage     string
	Profile   profile.Profile
	History   []profile.Entry
	CreatedAt time.Time
}
