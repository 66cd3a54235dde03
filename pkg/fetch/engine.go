package fetch

import (
	"context"
	"strings"
	"sync"
	"time"
)

// State is the engine's position in the protocol.
type State int

const (
	StateIdle State = iota
	StateAwaitingInit
	StatePending
	StateAwaitingSubmit
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInit:
		return "awaiting_init"
	case StatePending:
		return "pending"
	case StateAwaitingSubmit:
		return "awaiting_submit"
	case StateResolved:
		return "resolved"
	}
	return "unknown"
}

// Active reports whether a run is in flight in this state.
func (s State) Active() bool {
	return s == StateAwaitingInit || s == StatePending || s == StateAwaitingSubmit
}

// Engine drives one workflow through init, challenge and submit. It holds at
// most one run at a time; independent engines share nothing and may run in
// parallel.
type Engine struct {
	workflow  Workflow
	transport Transport
	sink      Sink
	now       func() time.Time

	mu      sync.Mutex
	state   State
	session *Session
	outcome Outcome
}

type EngineOption func(*Engine)

// WithSink attaches an observer for protocol transitions.
func WithSink(s Sink) EngineOption {
	return func(e *Engine) {
		if s != nil {
			e.sink = s
		}
	}
}

// WithClock overrides the clock used to timestamp events.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(w Workflow, t Transport, opts ...EngineOption) *Engine {
	e := &Engine{
		workflow:  w,
		transport: t,
		sink:      nopSink{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Workflow() WorkflowKind {
	return e.workflow.Kind()
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Outcome returns the result of the last resolved run, or nil.
func (e *Engine) Outcome() Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outcome
}

// PendingSession returns the session awaiting an answer, if any.
func (e *Engine) PendingSession() (Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePending || e.session == nil {
		return Session{}, false
	}
	return *e.session, true
}

// Initiate starts a run for q. Incomplete queries and calls made while a run
// is in flight fail with a *ValidationError before any request is sent. A
// failed round trip returns a *TransportError and leaves the engine idle so
// the caller may retry.
func (e *Engine) Initiate(ctx context.Context, q Query) (InitResult, error) {
	e.mu.Lock()
	if e.state.Active() {
		e.mu.Unlock()
		return nil, e.reject(&ValidationError{Err: ErrRunInProgress})
	}
	payload, err := e.workflow.BuildInitRequest(q)
	if err != nil {
		e.mu.Unlock()
		return nil, e.reject(err)
	}
	e.state = StateAwaitingInit
	e.session = nil
	e.outcome = nil
	e.emit(EventQuerySubmitted, describeQuery(q), nil)
	e.mu.Unlock()

	body, err := e.transport.PostJSON(ctx, e.workflow.InitPath(), payload)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = StateIdle
		e.emit(EventError, err.Error(), nil)
		return nil, err
	}

	result := e.workflow.ParseInitResponse(q, body)
	switch r := result.(type) {
	case ChallengeRequired:
		s := r.Session
		e.session = &s
		e.state = StatePending
		e.emit(EventChallenge, "session "+s.ID, nil)
	case Resolved:
		if r.Outcome == nil {
			r.Outcome = unrecognized(e.workflow.Kind(), "init", "empty result")
			result = r
		}
		e.resolve(r.Outcome)
	default:
		failed := unrecognized(e.workflow.Kind(), "init", "unknown result type")
		e.resolve(failed)
		result = Resolved{Outcome: failed}
	}
	return result, nil
}

// Submit answers the pending challenge. The session is consumed whatever the
// backend says: a wrong answer resolves to Failed and a new run is needed.
// When the round trip itself fails the run still resolves, to a synthetic
// Failed outcome, and the *TransportError is returned alongside it.
func (e *Engine) Submit(ctx context.Context, session Session, answer string) (Outcome, error) {
	e.mu.Lock()
	if e.state != StatePending || e.session == nil {
		e.mu.Unlock()
		return nil, e.reject(&ValidationError{Err: ErrNoPendingSession})
	}
	if session.ID != e.session.ID {
		e.mu.Unlock()
		return nil, e.reject(&ValidationError{Err: ErrSessionMismatch})
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		e.mu.Unlock()
		return nil, e.reject(&ValidationError{Err: ErrEmptyAnswer})
	}
	pending := *e.session
	payload := e.workflow.BuildSubmitRequest(pending, answer)
	e.state = StateAwaitingSubmit
	e.emit(EventAnswerSubmitted, "session "+pending.ID, nil)
	e.mu.Unlock()

	body, err := e.transport.PostJSON(ctx, e.workflow.SubmitPath(), payload)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = nil
	if err != nil {
		failed := Failed{Message: err.Error()}
		e.state = StateResolved
		e.outcome = failed
		e.emit(EventError, err.Error(), failed)
		return failed, err
	}

	outcome := e.workflow.ParseSubmitResponse(body)
	if outcome == nil {
		outcome = unrecognized(e.workflow.Kind(), "submit", "empty result")
	}
	e.resolve(outcome)
	return outcome, nil
}

// resolve closes the run. Failed outcomes are reported as a single error
// line; everything else as a resolved line. Callers hold e.mu.
func (e *Engine) resolve(o Outcome) {
	e.state = StateResolved
	e.outcome = o
	if f, ok := o.(Failed); ok {
		e.emit(EventError, f.Message, o)
		return
	}
	e.emit(EventResolved, o.Summary(), o)
}

func (e *Engine) reject(err error) error {
	e.sink.Record(Event{Time: e.now(), Kind: EventError, Workflow: e.workflow.Kind(), Message: err.Error()})
	return err
}

func (e *Engine) emit(kind EventKind, msg string, o Outcome) {
	e.sink.Record(Event{Time: e.now(), Kind: kind, Workflow: e.workflow.Kind(), Message: msg, Outcome: o})
}
