package logger

import "ecourts-fetcher-be/pkg/fetch"

// FetchSink mirrors the transitions of one run into a logger.
type FetchSink struct {
	logger ILogger
	runID  string
	owner  string
}

func NewFetchSink(l ILogger, runID, owner string) *FetchSink {
	return &FetchSink{logger: l, runID: runID, owner: owner}
}

func (s *FetchSink) Record(ev fetch.Event) {
	details := map[string]interface{}{
		"run_id":   s.runID,
		"owner":    s.owner,
		"workflow": string(ev.Workflow),
		"event":    string(ev.Kind),
	}
	if ev.Outcome != nil {
		details["outcome"] = string(ev.Outcome.Kind())
	}
	if ev.Kind == fetch.EventError {
		s.logger.Warn("Fetch", ev.Line(), details)
		return
	}
	s.logger.Info("Fetch", ev.Line(), details)
}
