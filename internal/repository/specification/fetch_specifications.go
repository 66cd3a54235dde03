package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnedBy restricts records to one caller.
type OwnedBy struct {
	Owner string
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("owner = ?", s.Owner)
}

type ByWorkflow struct {
	Workflow string
}

func (s ByWorkflow) Apply(db *gorm.DB) *gorm.DB {
	if s.Workflow == "" {
		return db
	}
	return db.Where("workflow = ?", s.Workflow)
}

type ByRunID struct {
	RunID uuid.UUID
}

func (s ByRunID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("run_id = ?", s.RunID)
}
