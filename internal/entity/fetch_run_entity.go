package entity

import (
	"time"

	"ecourts-fetcher-be/pkg/fetch"

	"github.com/google/uuid"
)

// FetchRun is a live run held by the gateway: one engine per run.
type FetchRun struct {
	Id        uuid.UUID
	Owner     string
	Query     fetch.Query
	Engine    *fetch.Engine
	Log       *fetch.LogSink
	CreatedAt time.Time
}
