package fetch

import "encoding/json"

const (
	courtInitPath   = "/fetch_by_court_init"
	courtSubmitPath = "/fetch_by_court_submit"
)

// CourtWorkflow renders a court's cause list for a date.
type CourtWorkflow struct{}

type courtInitRequest struct {
	State            string `json:"state"`
	District         string `json:"district"`
	CourtComplexCode string `json:"court_complex_code"`
	CourtName        string `json:"court_name"`
	Date             string `json:"date"`
}

type courtSubmitRequest struct {
	Captcha   string   `json:"captcha"`
	SessionID string   `json:"session_id"`
	CaseType  CaseType `json:"case_type"`
}

type courtResponse struct {
	CaptchaImage string `json:"captcha_image"`
	SessionID    string `json:"session_id"`
	PDFPath      string `json:"pdf_path"`
	Error        string `json:"error"`
}

func (CourtWorkflow) Kind() WorkflowKind { return KindCourt }
func (CourtWorkflow) InitPath() string   { return courtInitPath }
func (CourtWorkflow) SubmitPath() string { return courtSubmitPath }

func (CourtWorkflow) BuildInitRequest(q Query) (any, error) {
	cq, ok := q.(CourtQuery)
	if !ok {
		return nil, newValidationError("court workflow cannot run a %s query", kindOf(q))
	}
	cq = cq.normalized()
	if err := validateStruct(cq); err != nil {
		return nil, err
	}
	return courtInitRequest{
		State:            cq.State,
		District:         cq.District,
		CourtComplexCode: cq.CourtComplexCode,
		CourtName:        cq.CourtName,
		Date:             cq.Date,
	}, nil
}

func (CourtWorkflow) BuildSubmitRequest(s Session, answer string) any {
	caseType := s.CaseType
	if caseType == "" {
		caseType = CaseTypeCivil
	}
	return courtSubmitRequest{Captcha: answer, SessionID: s.ID, CaseType: caseType}
}

func (CourtWorkflow) ParseInitResponse(q Query, body []byte) InitResult {
	var resp courtResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Resolved{Outcome: unrecognized(KindCourt, "init", err.Error())}
	}
	switch {
	case resp.Error != "":
		return Resolved{Outcome: Failed{Message: resp.Error}}
	case resp.CaptchaImage != "":
		cq, _ := q.(CourtQuery)
		session, err := newSession(KindCourt, resp.SessionID, resp.CaptchaImage, cq.normalized().CaseType)
		if err != nil {
			return Resolved{Outcome: unrecognized(KindCourt, "init", err.Error())}
		}
		return ChallengeRequired{Session: session}
	case resp.PDFPath != "":
		return Resolved{Outcome: DocumentReady{PDFReference: resp.PDFPath}}
	}
	return Resolved{Outcome: unrecognized(KindCourt, "init", "no challenge, pdf_path or error")}
}

func (CourtWorkflow) ParseSubmitResponse(body []byte) Outcome {
	var resp courtResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return unrecognized(KindCourt, "submit", err.Error())
	}
	switch {
	case resp.Error != "":
		return Failed{Message: resp.Error}
	case resp.PDFPath != "":
		return DocumentReady{PDFReference: resp.PDFPath}
	}
	return unrecognized(KindCourt, "submit", "no pdf_path or error")
}
