package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type FetchRecord struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	RunId       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	Owner       string         `gorm:"type:varchar(255);not null;index"`
	Workflow    string         `gorm:"type:varchar(16);not null;index"`
	OutcomeKind string         `gorm:"type:varchar(32);not null"`
	Summary     string         `gorm:"type:text;not null"`
	Reference   string         `gorm:"type:text"`
	Query       datatypes.JSON `gorm:"type:jsonb"`
	Outcome     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index"`
}

func (FetchRecord) TableName() string {
	return "fetch_records"
}
