package fetch

import (
	"fmt"
	"strings"
)

// OutcomeKind is a stable name for an Outcome variant, used for storage and
// JSON rendering.
type OutcomeKind string

const (
	OutcomeCaseFound     OutcomeKind = "case_found"
	OutcomeDocumentReady OutcomeKind = "document_ready"
	OutcomeArchiveReady  OutcomeKind = "archive_ready"
	OutcomeFailed        OutcomeKind = "failed"
)

// Outcome is the terminal result of a run. Exactly one is produced per
// completed run.
type Outcome interface {
	Kind() OutcomeKind
	// Summary renders the outcome as a single human-readable line.
	Summary() string
	isOutcome()
}

// CaseFound carries the parsed case status table of a CNR lookup.
type CaseFound struct {
	CaseInfo map[string]string `json:"case_info"`
	PDFLinks []string          `json:"pdf_links"`
}

func (CaseFound) Kind() OutcomeKind { return OutcomeCaseFound }
func (CaseFound) isOutcome()        {}

func (o CaseFound) Summary() string {
	return fmt.Sprintf("case found (%d fields, %d pdfs)", len(o.CaseInfo), len(o.PDFLinks))
}

// DocumentReady points at a generated cause-list PDF on the backend.
type DocumentReady struct {
	PDFReference string `json:"pdf_reference"`
}

func (DocumentReady) Kind() OutcomeKind { return OutcomeDocumentReady }
func (DocumentReady) isOutcome()        {}

func (o DocumentReady) Summary() string {
	return "document ready at " + o.PDFReference
}

// ArchiveReady is a CNR result whose PDFs were bundled into one zip.
type ArchiveReady struct {
	ArchiveReference string            `json:"archive_reference"`
	CaseInfo         map[string]string `json:"case_info"`
	PDFs             []string          `json:"pdfs"`
}

func (ArchiveReady) Kind() OutcomeKind { return OutcomeArchiveReady }
func (ArchiveReady) isOutcome()        {}

func (o ArchiveReady) Summary() string {
	return fmt.Sprintf("archive ready at %s (%s)", o.ArchiveReference, strings.Join(o.PDFs, ", "))
}

// Failed is a normal terminal outcome: a backend error, an unrecognized
// response, or a submit whose round trip broke.
type Failed struct {
	Message string `json:"message"`
}

func (Failed) Kind() OutcomeKind { return OutcomeFailed }
func (Failed) isOutcome()        {}

func (o Failed) Summary() string {
	return "failed: " + o.Message
}

// InitResult is what Initiate hands back: either ChallengeRequired or
// Resolved.
type InitResult interface {
	isInitResult()
}

// ChallengeRequired means the run is pending until Submit is called with
// the session and the user's answer.
type ChallengeRequired struct {
	Session Session
}

func (ChallengeRequired) isInitResult() {}

// Resolved means the init call already finished the run.
type Resolved struct {
	Outcome Outcome
}

func (Resolved) isInitResult() {}
