package fetch

import (
	"encoding/json"
	"fmt"
)

// Workflow is the capability set the Engine is parameterized by. A workflow
// names its endpoints, shapes the request payloads and turns raw response
// bodies into results. Parsers never fail: a body they do not recognize
// becomes a Failed outcome.
type Workflow interface {
	Kind() WorkflowKind
	InitPath() string
	SubmitPath() string

	// BuildInitRequest validates q and returns the JSON payload for the init
	// endpoint. It returns a *ValidationError for incomplete or foreign queries.
	BuildInitRequest(q Query) (any, error)
	BuildSubmitRequest(s Session, answer string) any

	ParseInitResponse(q Query, body []byte) InitResult
	ParseSubmitResponse(body []byte) Outcome
}

func unrecognized(kind WorkflowKind, phase string, detail string) Failed {
	return Failed{Message: fmt.Sprintf("unrecognized %s %s response: %s", kind, phase, detail)}
}

func hasValue(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// decodeCaseInfo accepts the label/value table the backend scrapes. Values
// that are not strings are rendered with their JSON text.
func decodeCaseInfo(raw json.RawMessage) (map[string]string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("case_info is not an object")
	}
	info := make(map[string]string, len(fields))
	for k, v := range fields {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			info[k] = s
			continue
		}
		info[k] = string(v)
	}
	return info, nil
}

// WorkflowFor returns the workflow that serves kind.
func WorkflowFor(kind WorkflowKind) (Workflow, error) {
	switch kind {
	case KindCnr:
		return CnrWorkflow{}, nil
	case KindCourt:
		return CourtWorkflow{}, nil
	}
	return nil, newValidationError("unknown workflow %q", kind)
}
