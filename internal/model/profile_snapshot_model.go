package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ProfileSnapshot struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId string         `gorm:"type:varchar(128);not null;index"`
	Stage     string         `gorm:"type:varchar(32)"`
	Profile   datatypes.JSON `gorm:"type:jsonb"`
	History   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (ProfileSnapshot) TableName() string {
	return "profile_snapshots"
}
