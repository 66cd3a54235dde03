package fetch

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// EventKind names a protocol transition.
type EventKind string

const (
	EventQuerySubmitted  EventKind = "query submitted"
	EventChallenge       EventKind = "challenge received"
	EventAnswerSubmitted EventKind = "captcha submitted"
	EventResolved        EventKind = "resolved"
	EventError           EventKind = "error"
)

// Event is one transition as observed by a Sink.
type Event struct {
	Time     time.Time
	Kind     EventKind
	Workflow WorkflowKind
	Message  string

	// Outcome is set on the event that closes a run.
	Outcome Outcome
}

// Line renders the event without its timestamp.
func (e Event) Line() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Terminal reports whether the event closed a run.
func (e Event) Terminal() bool {
	return e.Outcome != nil
}

// Sink observes protocol transitions. It never influences the engine.
// Record is called with the engine's lock held, so implementations must not
// call back into the engine.
type Sink interface {
	Record(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event)

func (f SinkFunc) Record(ev Event) { f(ev) }

// MultiSink fans each event out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Record(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Record(ev)
		}
	}
}

type nopSink struct{}

func (nopSink) Record(Event) {}

// LogSink is an append-only, timestamped event log kept in memory.
type LogSink struct {
	mu      sync.Mutex
	entries []Event
}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Record(ev Event) {
	s.mu.Lock()
	s.entries = append(s.entries, ev)
	s.mu.Unlock()
}

// Entries returns a copy of the log in emission order.
func (s *LogSink) Entries() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.entries))
	copy(out, s.entries)
	return out
}

// Lines renders the log as "15:04:05 <event>" lines.
func (s *LogSink) Lines() []string {
	entries := s.Entries()
	lines := make([]string, len(entries))
	for i, ev := range entries {
		lines[i] = FormatLine(ev)
	}
	return lines
}

// WriteTo writes the rendered log, one event per line.
func (s *LogSink) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, line := range s.Lines() {
		n, err := io.WriteString(w, line+"\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// FormatLine renders a single event with its wall-clock time.
func FormatLine(ev Event) string {
	return ev.Time.Format("15:04:05") + " " + ev.Line()
}
