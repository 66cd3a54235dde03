package events

import "time"

const FetchResolvedType = "FETCH_RESOLVED"

// NewFetchResolved announces a run that reached its terminal outcome.
func NewFetchResolved(runID, owner, workflow, outcomeKind, summary, reference string, at time.Time) BaseEvent {
	data := map[string]interface{}{
		"run_id":       runID,
		"owner":        owner,
		"workflow":     workflow,
		"outcome_kind": outcomeKind,
		"summary":      summary,
		"occurred_at":  at.UTC().Format(time.RFC3339),
	}
	if reference != "" {
		data["reference"] = reference
	}
	return BaseEvent{
		Type:       FetchResolvedType,
		Data:       data,
		OccurredAt: at,
	}
}
