// Package fetch implements the CAPTCHA-gated, two-phase fetch protocol spoken by
// the eCourts scraping backend.
//
// A run starts with Engine.Initiate, which posts the query to the workflow's
// init endpoint. The backend either answers directly (the bypass path) or
// issues a challenge: an image plus an opaque session id. The caller then
// answers with Engine.Submit, which consumes the session exactly once and
// resolves the run to a single Outcome.
//
// Workflows (CnrWorkflow, CourtWorkflow) only describe endpoints, payload
// shapes and response parsing; the state machine lives in Engine.
package fetch
