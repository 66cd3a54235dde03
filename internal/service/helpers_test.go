package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ecourts-fetcher-be/internal/model"
	"ecourts-fetcher-be/internal/pkg/logger"
	"ecourts-fetcher-be/internal/repository/memory"
	"ecourts-fetcher-be/internal/repository/unitofwork"
	"ecourts-fetcher-be/pkg/events"
	"ecourts-fetcher-be/pkg/fetch"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testImage = "iVBORw0KGgo="

// newBackend serves canned JSON per path plus a download endpoint.
func newBackend(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/download_pdf" {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = io.WriteString(w, "%PDF-1.4 "+r.URL.Query().Get("path"))
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // one connection, one in-memory database
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.FetchRecord{}))
	return db
}

func nopLogger() logger.ILogger {
	return logger.NewFromZap(zap.NewNop())
}

// capturePublisher records outcome payloads instead of sending them.
type capturePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *capturePublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

func (p *capturePublisher) last() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.payloads) == 0 {
		return nil
	}
	return p.payloads[len(p.payloads)-1]
}

type captureEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *captureEvents) Publish(ctx context.Context, event events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureEvents) snapshot() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.Event, len(c.events))
	copy(out, c.events)
	return out
}

// memoryRunLogs is a RunLogStore kept in a map.
type memoryRunLogs struct {
	mu     sync.Mutex
	owners map[uuid.UUID]string
	lines  map[uuid.UUID][]string
}

func newMemoryRunLogs() *memoryRunLogs {
	return &memoryRunLogs{owners: map[uuid.UUID]string{}, lines: map[uuid.UUID][]string{}}
}

func (m *memoryRunLogs) Claim(ctx context.Context, id uuid.UUID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[id] = owner
	return nil
}

func (m *memoryRunLogs) Owner(ctx context.Context, id uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owners[id], nil
}

func (m *memoryRunLogs) Lines(ctx context.Context, id uuid.UUID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines[id]...), nil
}

func (m *memoryRunLogs) Sink(id uuid.UUID) fetch.Sink {
	return fetch.SinkFunc(func(ev fetch.Event) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.lines[id] = append(m.lines[id], fetch.FormatLine(ev))
	})
}

type fixture struct {
	svc       IFetchService
	runs      *memory.RunRepository
	publisher *capturePublisher
	runLogs   *memoryRunLogs
	db        *gorm.DB
}

func newFixture(t *testing.T, routes map[string]string, withDB bool) *fixture {
	t.Helper()
	srv := newBackend(t, routes)
	f := &fixture{
		runs:      memory.NewRunRepository(time.Minute),
		publisher: &capturePublisher{},
		runLogs:   newMemoryRunLogs(),
	}
	deps := FetchServiceDeps{
		Backend:     fetch.NewClient(srv.URL),
		Runs:        f.runs,
		RunLogs:     f.runLogs,
		Publisher:   f.publisher,
		Logger:      nopLogger(),
		DownloadDir: "/srv/downloads",
	}
	if withDB {
		f.db = newTestDB(t)
		deps.UowFactory = unitofwork.NewRepositoryFactory(f.db)
	}
	f.svc = NewFetchService(deps)
	return f
}
