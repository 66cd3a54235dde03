package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FetchRecord is the persisted outcome of one resolved run.
type FetchRecord struct {
	Id          uuid.UUID
	RunId       uuid.UUID
	Owner       string
	Workflow    string
	OutcomeKind string
	Summary     string
	Reference   string
	Query       json.RawMessage
	Outcome     json.RawMessage
	CreatedAt   time.Time
}
