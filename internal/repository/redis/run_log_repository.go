package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ecourts-fetcher-be/internal/pkg/logger"
	"ecourts-fetcher-be/pkg/fetch"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	writeTimeout = 2 * time.Second
	queueSize    = 256
)

type logEntry struct {
	id   uuid.UUID
	line string
}

// RunLogRepository mirrors each run's event log into a redis list so it
// survives a gateway restart until the key expires. Mirror writes go through
// a single background writer, so lines of one run keep their order and a slow
// redis never stalls the engine that emitted them.
type RunLogRepository struct {
	rdb    goredis.UniversalClient
	ttl    time.Duration
	logger logger.ILogger

	write   func(ctx context.Context, id uuid.UUID, line string) error
	queue   chan logEntry
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func NewRunLogRepository(rdb goredis.UniversalClient, ttl time.Duration, log logger.ILogger) *RunLogRepository {
	r := &RunLogRepository{
		rdb:     rdb,
		ttl:     ttl,
		logger:  log,
		queue:   make(chan logEntry, queueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	r.write = r.Append
	go r.run()
	return r
}

// Close flushes queued lines and stops the writer. Lines recorded afterwards
// are dropped.
func (r *RunLogRepository) Close() {
	r.once.Do(func() { close(r.done) })
	<-r.stopped
}

func (r *RunLogRepository) run() {
	defer close(r.stopped)
	for {
		select {
		case e := <-r.queue:
			r.flush(e)
		case <-r.done:
			for {
				select {
				case e := <-r.queue:
					r.flush(e)
				default:
					return
				}
			}
		}
	}
}

func (r *RunLogRepository) flush(e logEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.write(ctx, e.id, e.line); err != nil {
		r.warn(e.id, "Failed to mirror run log to redis", err)
	}
}

func (r *RunLogRepository) warn(id uuid.UUID, msg string, err error) {
	r.logger.Warn("RunLog", msg, map[string]interface{}{
		"run_id": id.String(),
		"error":  err.Error(),
	})
}

func runLogKey(id uuid.UUID) string {
	return fmt.Sprintf("fetch:run:%s:log", id)
}

func runOwnerKey(id uuid.UUID) string {
	return fmt.Sprintf("fetch:run:%s:owner", id)
}

// Claim records who started run id so the log can be served after the live
// run is gone.
func (r *RunLogRepository) Claim(ctx context.Context, id uuid.UUID, owner string) error {
	return r.rdb.Set(ctx, runOwnerKey(id), owner, r.ttl).Err()
}

// Owner returns the claimed owner of run id, or "" when unknown.
func (r *RunLogRepository) Owner(ctx context.Context, id uuid.UUID) (string, error) {
	owner, err := r.rdb.Get(ctx, runOwnerKey(id)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	return owner, err
}

func (r *RunLogRepository) Append(ctx context.Context, id uuid.UUID, line string) error {
	key := runLogKey(id)
	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, key, line)
	pipe.Expire(ctx, key, r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Lines returns the mirrored log; an unknown run yields an empty slice.
func (r *RunLogRepository) Lines(ctx context.Context, id uuid.UUID) ([]string, error) {
	return r.rdb.LRange(ctx, runLogKey(id), 0, -1).Result()
}

var errQueueFull = errors.New("mirror queue full")

// Sink returns a fetch.Sink that queues rendered lines for run id. It never
// blocks: when the queue is full or the repository is closed the line is
// dropped and logged. The in-memory log stays complete either way.
func (r *RunLogRepository) Sink(id uuid.UUID) fetch.Sink {
	return fetch.SinkFunc(func(ev fetch.Event) {
		e := logEntry{id: id, line: fetch.FormatLine(ev)}
		select {
		case <-r.done:
			return
		default:
		}
		select {
		case r.queue <- e:
		default:
			r.warn(id, "Dropped run log line", errQueueFull)
		}
	})
}
