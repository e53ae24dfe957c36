package model

import (
	"time"

	"gorm.io/datatypes"
)

type ReferenceRecord struct {
	Id         string         `gorm:"type:varchar(64);primaryKey"`
	Kind       string         `gorm:"type:varchar(32);not null;index"`
	Title      string         `gorm:"type:varchar(255);not null"`
	Date       string         `gorm:"type:varchar(32)"`
	Attributes datatypes.JSON `gorm:"type:jsonb"`
	Payload    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
}

func (ReferenceRecord) TableName() string {
	return "reference_records"
}
