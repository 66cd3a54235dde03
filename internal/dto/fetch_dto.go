package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type StartCnrRequest struct {
	CNR string `json:"cnr" validate:"required"`
	// SkipDownload asks the backend for case info and links only.
	SkipDownload bool `json:"skip_download"`
}

type StartCourtRequest struct {
	State            string `json:"state" validate:"required"`
	District         string `json:"district" validate:"required"`
	CourtComplexCode string `json:"court_complex_code" validate:"required"`
	CourtName        string `json:"court_name" validate:"required"`
	Date             string `json:"date" validate:"required,datetime=02-01-2006"`
	CaseType         string `json:"case_type" validate:"omitempty,oneof=civ cri civil criminal"`
}

type SubmitCaptchaRequest struct {
	Captcha string `json:"captcha" validate:"required"`
}

type ChallengeResponse struct {
	SessionId    string `json:"session_id"`
	CaptchaImage string `json:"captcha_image"` // base64 PNG
	Workflow     string `json:"workflow"`
	CaseType     string `json:"case_type,omitempty"`
}

type OutcomeResponse struct {
	Kind             string            `json:"kind"`
	Summary          string            `json:"summary"`
	CaseInfo         map[string]string `json:"case_info,omitempty"`
	PDFLinks         []string          `json:"pdf_links,omitempty"`
	PDFReference     string            `json:"pdf_reference,omitempty"`
	ArchiveReference string            `json:"archive_reference,omitempty"`
	PDFs             []string          `json:"pdfs,omitempty"`
	// DownloadPath is what GET /api/fetch/download expects for this outcome.
	DownloadPath string `json:"download_path,omitempty"`
	Message      string `json:"message,omitempty"`
}

type RunResponse struct {
	RunId     uuid.UUID          `json:"run_id"`
	Workflow  string             `json:"workflow"`
	State     string             `json:"state"`
	Challenge *ChallengeResponse `json:"challenge,omitempty"`
	Outcome   *OutcomeResponse   `json:"outcome,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

type RunListResponse struct {
	Runs []*RunResponse `json:"runs"`
}

type RunLogResponse struct {
	RunId uuid.UUID `json:"run_id"`
	Lines []string  `json:"lines"`
}

type HistoryRequest struct {
	Workflow string `query:"workflow" validate:"omitempty,oneof=cnr court"`
	Query    string `query:"q" validate:"omitempty,max=200"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

type FetchRecordResponse struct {
	Id          uuid.UUID       `json:"id"`
	RunId       uuid.UUID       `json:"run_id"`
	Workflow    string          `json:"workflow"`
	OutcomeKind string          `json:"outcome_kind"`
	Summary     string          `json:"summary"`
	Reference   string          `json:"reference,omitempty"`
	Query       json.RawMessage `json:"query"`
	Outcome     json.RawMessage `json:"outcome"`
	CreatedAt   time.Time       `json:"created_at"`
}

type HistoryResponse struct {
	Items []*FetchRecordResponse `json:"items"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

// FetchOutcomeMessage is published on the outcome topic once per resolved run.
type FetchOutcomeMessage struct {
	RunId       uuid.UUID       `json:"run_id"`
	Owner       string          `json:"owner"`
	Workflow    string          `json:"workflow"`
	OutcomeKind string          `json:"outcome_kind"`
	Summary     string          `json:"summary"`
	Reference   string          `json:"reference,omitempty"`
	Query       json.RawMessage `json:"query"`
	Outcome     json.RawMessage `json:"outcome"`
	OccurredAt  time.Time       `json:"occurred_at"`
}
