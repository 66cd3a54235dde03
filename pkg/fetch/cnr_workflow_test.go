package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCnrWorkflow_ParseInitResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want InitResult
	}{
		{
			name: "challenge",
			body: `{"captcha_required":true,"captcha_image":"data:image/png;base64,` + testImage + `","session_id":"CNR1"}`,
			want: ChallengeRequired{Session: Session{
				ID:             "CNR1",
				ChallengeImage: []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
				Kind:           KindCnr,
			}},
		},
		{
			name: "bypass with case info",
			body: `{"session_id":"CNR1","case_info":{"Next Hearing Date":"20th October 2025","Stage":3},"pdf_links":["x.pdf"]}`,
			want: Resolved{Outcome: CaseFound{
				CaseInfo: map[string]string{"Next Hearing Date": "20th October 2025", "Stage": "3"},
				PDFLinks: []string{"x.pdf"},
			}},
		},
		{
			name: "bypass with empty table",
			body: `{"case_info":{}}`,
			want: Resolved{Outcome: CaseFound{CaseInfo: map[string]string{}, PDFLinks: []string{}}},
		},
		{
			name: "error",
			body: `{"error":"CNR is required"}`,
			want: Resolved{Outcome: Failed{Message: "CNR is required"}},
		},
		{
			name: "challenge without session id",
			body: `{"captcha_required":true,"captcha_image":"` + testImage + `"}`,
			want: Resolved{Outcome: Failed{Message: "unrecognized cnr init response: challenge response is missing session_id"}},
		},
		{
			name: "challenge with broken image",
			body: `{"captcha_required":true,"captcha_image":"***","session_id":"CNR1"}`,
			want: Resolved{Outcome: Failed{Message: "unrecognized cnr init response: captcha_image is not valid base64"}},
		},
		{
			name: "empty object",
			body: `{}`,
			want: Resolved{Outcome: Failed{Message: "unrecognized cnr init response: no challenge, case_info or error"}},
		},
		{
			name: "case info is not an object",
			body: `{"case_info":"yes"}`,
			want: Resolved{Outcome: Failed{Message: "unrecognized cnr init response: case_info is not an object"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CnrWorkflow{}.ParseInitResponse(CnrQuery{CNR: "CNR1"}, []byte(tt.body))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCnrWorkflow_ParseInitResponse_WrongShape(t *testing.T) {
	got := CnrWorkflow{}.ParseInitResponse(CnrQuery{CNR: "CNR1"}, []byte(`["not","an","object"]`))

	resolved, ok := got.(Resolved)
	if !ok {
		t.Fatalf("got %T, want Resolved", got)
	}
	failed, ok := resolved.Outcome.(Failed)
	if !ok {
		t.Fatalf("got %T, want Failed", resolved.Outcome)
	}
	assert.Contains(t, failed.Message, "unrecognized cnr init response")
}

func TestCnrWorkflow_ParseSubmitResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Outcome
	}{
		{
			name: "case info with pdfs",
			body: `{"case_info":{"Case Type":"CS"},"pdfs":["CNR1_0.pdf"]}`,
			want: CaseFound{CaseInfo: map[string]string{"Case Type": "CS"}, PDFLinks: []string{"CNR1_0.pdf"}},
		},
		{
			name: "bundled archive",
			body: `{"case_info":{"Case Type":"CS"},"pdfs":["CNR1_0.pdf","CNR1_1.pdf"],"zip":"CNR1_files.zip"}`,
			want: ArchiveReady{
				ArchiveReference: "CNR1_files.zip",
				CaseInfo:         map[string]string{"Case Type": "CS"},
				PDFs:             []string{"CNR1_0.pdf", "CNR1_1.pdf"},
			},
		},
		{
			name: "session expired",
			body: `{"error":"Session expired. Please restart."}`,
			want: Failed{Message: "Session expired. Please restart."},
		},
		{
			name: "error wins over partial data",
			body: `{"error":"timeout","case_info":{}}`,
			want: Failed{Message: "timeout"},
		},
		{
			name: "nothing recognizable",
			body: `{"message":"ok"}`,
			want: Failed{Message: "unrecognized cnr submit response: no case_info or error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CnrWorkflow{}.ParseSubmitResponse([]byte(tt.body)))
		})
	}
}

func TestCnrWorkflow_SkipDownload(t *testing.T) {
	req := CnrWorkflow{SkipDownload: true}.BuildSubmitRequest(Session{ID: "s1"}, "abcd")
	assert.Equal(t, cnrSubmitRequest{Captcha: "abcd", SessionID: "s1", DownloadPDF: false}, req)
}

func TestCnrWorkflow_BuildInitRequestTrims(t *testing.T) {
	req, err := CnrWorkflow{}.BuildInitRequest(CnrQuery{CNR: "  MHPU010012342024 "})
	assert.NoError(t, err)
	assert.Equal(t, cnrInitRequest{CNR: "MHPU010012342024"}, req)
}
