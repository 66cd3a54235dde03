package mapper

import (
	"testing"

	"ecourts-fetcher-be/pkg/fetch"

	"github.com/stretchr/testify/assert"
)

func TestFetchOutcomeMapper_ToOutcome(t *testing.T) {
	m := NewFetchOutcomeMapper("/srv/downloads")

	t.Run("archive resolves against download dir", func(t *testing.T) {
		res := m.ToOutcome(fetch.ArchiveReady{
			ArchiveReference: "WXYZ5678.zip",
			CaseInfo:         map[string]string{"Case Type": "CS"},
			PDFs:             []string{"a.pdf"},
		})
		assert.Equal(t, "archive_ready", res.Kind)
		assert.Equal(t, "/srv/downloads/WXYZ5678.zip", res.DownloadPath)
		assert.Equal(t, "WXYZ5678.zip", res.ArchiveReference)
	})

	t.Run("document passes through", func(t *testing.T) {
		res := m.ToOutcome(fetch.DocumentReady{PDFReference: "/tmp/cause.pdf"})
		assert.Equal(t, "/tmp/cause.pdf", res.DownloadPath)
		assert.Equal(t, "/tmp/cause.pdf", m.Reference(fetch.DocumentReady{PDFReference: "/tmp/cause.pdf"}))
	})

	t.Run("failed carries message only", func(t *testing.T) {
		res := m.ToOutcome(fetch.Failed{Message: "captcha mismatch"})
		assert.Equal(t, "captcha mismatch", res.Message)
		assert.Empty(t, res.DownloadPath)
		assert.Empty(t, m.Reference(fetch.Failed{}))
	})

	assert.Nil(t, m.ToOutcome(nil))
}
