package fetch

import "encoding/json"

const (
	cnrInitPath   = "/fetch_by_cnr_init"
	cnrSubmitPath = "/fetch_by_cnr_submit"
)

// CnrWorkflow looks up a case by CNR.
type CnrWorkflow struct {
	// SkipDownload asks the backend to return case info only, without
	// downloading and zipping the linked PDFs.
	SkipDownload bool
}

type cnrInitRequest struct {
	CNR string `json:"cnr"`
}

type cnrSubmitRequest struct {
	Captcha     string `json:"captcha"`
	SessionID   string `json:"session_id"`
	DownloadPDF bool   `json:"download_pdf"`
}

type cnrResponse struct {
	CaptchaRequired bool            `json:"captcha_required"`
	CaptchaImage    string          `json:"captcha_image"`
	SessionID       string          `json:"session_id"`
	CaseInfo        json.RawMessage `json:"case_info"`
	PDFLinks        []string        `json:"pdf_links"`
	PDFs            []string        `json:"pdfs"`
	Zip             string          `json:"zip"`
	Error           string          `json:"error"`
}

func (CnrWorkflow) Kind() WorkflowKind { return KindCnr }
func (CnrWorkflow) InitPath() string   { return cnrInitPath }
func (CnrWorkflow) SubmitPath() string { return cnrSubmitPath }

func (CnrWorkflow) BuildInitRequest(q Query) (any, error) {
	cq, ok := q.(CnrQuery)
	if !ok {
		return nil, newValidationError("cnr workflow cannot run a %s query", kindOf(q))
	}
	cq = cq.normalized()
	if err := validateStruct(cq); err != nil {
		return nil, err
	}
	return cnrInitRequest{CNR: cq.CNR}, nil
}

func (w CnrWorkflow) BuildSubmitRequest(s Session, answer string) any {
	return cnrSubmitRequest{Captcha: answer, SessionID: s.ID, DownloadPDF: !w.SkipDownload}
}

func (CnrWorkflow) ParseInitResponse(_ Query, body []byte) InitResult {
	var resp cnrResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Resolved{Outcome: unrecognized(KindCnr, "init", err.Error())}
	}
	switch {
	case resp.Error != "":
		return Resolved{Outcome: Failed{Message: resp.Error}}
	case resp.CaptchaRequired:
		session, err := newSession(KindCnr, resp.SessionID, resp.CaptchaImage, "")
		if err != nil {
			return Resolved{Outcome: unrecognized(KindCnr, "init", err.Error())}
		}
		return ChallengeRequired{Session: session}
	case hasValue(resp.CaseInfo):
		info, err := decodeCaseInfo(resp.CaseInfo)
		if err != nil {
			return Resolved{Outcome: unrecognized(KindCnr, "init", err.Error())}
		}
		return Resolved{Outcome: CaseFound{CaseInfo: info, PDFLinks: nonNil(resp.PDFLinks)}}
	}
	return Resolved{Outcome: unrecognized(KindCnr, "init", "no challenge, case_info or error")}
}

func (CnrWorkflow) ParseSubmitResponse(body []byte) Outcome {
	var resp cnrResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return unrecognized(KindCnr, "submit", err.Error())
	}
	if resp.Error != "" {
		return Failed{Message: resp.Error}
	}
	if !hasValue(resp.CaseInfo) {
		return unrecognized(KindCnr, "submit", "no case_info or error")
	}
	info, err := decodeCaseInfo(resp.CaseInfo)
	if err != nil {
		return unrecognized(KindCnr, "submit", err.Error())
	}
	if resp.Zip != "" {
		return ArchiveReady{ArchiveReference: resp.Zip, CaseInfo: info, PDFs: nonNil(resp.PDFs)}
	}
	return CaseFound{CaseInfo: info, PDFLinks: nonNil(resp.PDFs)}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func kindOf(q Query) string {
	if q == nil {
		return "nil"
	}
	return string(q.Kind())
}
