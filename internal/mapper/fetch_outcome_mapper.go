package mapper

import (
	"ecourts-fetcher-be/internal/dto"
	"ecourts-fetcher-be/pkg/fetch"
)

// FetchOutcomeMapper renders engine results for the gateway.
type FetchOutcomeMapper struct {
	downloadDir string
}

func NewFetchOutcomeMapper(downloadDir string) *FetchOutcomeMapper {
	return &FetchOutcomeMapper{downloadDir: downloadDir}
}

func (m *FetchOutcomeMapper) ToChallenge(s fetch.Session) *dto.ChallengeResponse {
	return &dto.ChallengeResponse{
		SessionId:    s.ID,
		CaptchaImage: s.ChallengeImageBase64(),
		Workflow:     string(s.Kind),
		CaseType:     string(s.CaseType),
	}
}

func (m *FetchOutcomeMapper) ToOutcome(o fetch.Outcome) *dto.OutcomeResponse {
	if o == nil {
		return nil
	}
	res := &dto.OutcomeResponse{
		Kind:    string(o.Kind()),
		Summary: o.Summary(),
	}
	switch v := o.(type) {
	case fetch.CaseFound:
		res.CaseInfo = v.CaseInfo
		res.PDFLinks = v.PDFLinks
	case fetch.DocumentReady:
		res.PDFReference = v.PDFReference
		res.DownloadPath = v.PDFReference
	case fetch.ArchiveReady:
		res.ArchiveReference = v.ArchiveReference
		res.CaseInfo = v.CaseInfo
		res.PDFs = v.PDFs
		res.DownloadPath = fetch.ArchivePath(m.downloadDir, v.ArchiveReference)
	case fetch.Failed:
		res.Message = v.Message
	}
	return res
}

// Reference is the downloadable artifact of an outcome, if any.
func (m *FetchOutcomeMapper) Reference(o fetch.Outcome) string {
	switch v := o.(type) {
	case fetch.DocumentReady:
		return v.PDFReference
	case fetch.ArchiveReady:
		return fetch.ArchivePath(m.downloadDir, v.ArchiveReference)
	}
	return ""
}
