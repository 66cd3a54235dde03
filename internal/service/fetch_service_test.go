package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"ecourts-fetcher-be/internal/dto"
	"ecourts-fetcher-be/internal/entity"
	"ecourts-fetcher-be/internal/pkg/serverutils"
	"ecourts-fetcher-be/internal/repository/implementation"
	"ecourts-fetcher-be/pkg/fetch"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cnrRoutes = map[string]string{
	"/fetch_by_cnr_init":   `{"captcha_required": true, "captcha_image": "` + testImage + `", "session_id": "s-cnr"}`,
	"/fetch_by_cnr_submit": `{"case_info": {"Case Type": "CS", "Filing Number": "12/2024"}, "pdfs": ["a.pdf", "b.pdf"], "zip": "WXYZ5678.zip"}`,
}

func TestFetchService_CnrRoundTrip(t *testing.T) {
	f := newFixture(t, cnrRoutes, false)
	ctx := context.Background()

	started, err := f.svc.StartCnr(ctx, "alice", &dto.StartCnrRequest{CNR: " WXYZ5678 "})
	require.NoError(t, err)
	assert.Equal(t, "pending", started.State)
	assert.Equal(t, "cnr", started.Workflow)
	require.NotNil(t, started.Challenge)
	assert.Equal(t, "s-cnr", started.Challenge.SessionId)
	assert.Equal(t, testImage, started.Challenge.CaptchaImage)
	assert.Nil(t, started.Outcome)
	assert.Zero(t, f.publisher.count())

	done, err := f.svc.Submit(ctx, "alice", started.RunId, &dto.SubmitCaptchaRequest{Captcha: "ab12"})
	require.NoError(t, err)
	assert.Equal(t, "resolved", done.State)
	assert.Nil(t, done.Challenge)
	require.NotNil(t, done.Outcome)
	assert.Equal(t, "archive_ready", done.Outcome.Kind)
	assert.Equal(t, "/srv/downloads/WXYZ5678.zip", done.Outcome.DownloadPath)

	require.Equal(t, 1, f.publisher.count())
	var msg dto.FetchOutcomeMessage
	require.NoError(t, json.Unmarshal(f.publisher.last(), &msg))
	assert.Equal(t, started.RunId, msg.RunId)
	assert.Equal(t, "alice", msg.Owner)
	assert.Equal(t, "archive_ready", msg.OutcomeKind)
	assert.Equal(t, "/srv/downloads/WXYZ5678.zip", msg.Reference)
	assert.JSONEq(t, `{"cnr":"WXYZ5678"}`, string(msg.Query))

	log, err := f.svc.GetLog(ctx, "alice", started.RunId)
	require.NoError(t, err)
	require.Len(t, log.Lines, 4)
	assert.Contains(t, log.Lines[0], "query submitted: cnr WXYZ5678")
	assert.Contains(t, log.Lines[3], "resolved: archive ready at WXYZ5678.zip")
}

func TestFetchService_StartRejectsIncompleteQuery(t *testing.T) {
	f := newFixture(t, cnrRoutes, false)

	_, err := f.svc.StartCnr(context.Background(), "alice", &dto.StartCnrRequest{CNR: "  "})
	require.Error(t, err)
	assert.True(t, fetch.IsValidationError(err))
	assert.Zero(t, f.runs.Count())

	_, err = f.svc.StartCourt(context.Background(), "alice", &dto.StartCourtRequest{
		State: "Delhi", District: "New Delhi", CourtComplexCode: "1", CourtName: "Court 1",
		Date: "01-03-2024", CaseType: "family",
	})
	assert.True(t, fetch.IsValidationError(err))
}

func TestFetchService_StartTransportFailure(t *testing.T) {
	f := newFixture(t, map[string]string{}, false)

	_, err := f.svc.StartCnr(context.Background(), "alice", &dto.StartCnrRequest{CNR: "WXYZ5678"})
	require.Error(t, err)
	assert.True(t, fetch.IsTransportError(err))
	assert.Zero(t, f.runs.Count())
}

func TestFetchService_RunsAreOwnerScoped(t *testing.T) {
	f := newFixture(t, cnrRoutes, false)
	ctx := context.Background()

	started, err := f.svc.StartCnr(ctx, "alice", &dto.StartCnrRequest{CNR: "WXYZ5678"})
	require.NoError(t, err)

	_, err = f.svc.GetRun(ctx, "bob", started.RunId)
	assert.True(t, errors.Is(err, serverutils.ErrNotFound))

	_, err = f.svc.Submit(ctx, "bob", started.RunId, &dto.SubmitCaptchaRequest{Captcha: "ab12"})
	assert.True(t, errors.Is(err, serverutils.ErrNotFound))

	_, err = f.svc.GetLog(ctx, "bob", started.RunId)
	assert.True(t, errors.Is(err, serverutils.ErrNotFound))

	_, err = f.svc.GetRun(ctx, "alice", uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)

	time.Sleep(time.Millisecond)
	newer, err := f.svc.StartCnr(ctx, "alice", &dto.StartCnrRequest{CNR: "BBBB0002"})
	require.NoError(t, err)

	list, err := f.svc.ListRuns(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list.Runs, 2)
	assert.Equal(t, newer.RunId, list.Runs[0].RunId)
	assert.Equal(t, started.RunId, list.Runs[1].RunId)
	list, err = f.svc.ListRuns(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, list.Runs)
}

func TestFetchService_DiscardRun(t *testing.T) {
	f := newFixture(t, cnrRoutes, false)
	ctx := context.Background()

	started, err := f.svc.StartCnr(ctx, "alice", &dto.StartCnrRequest{CNR: "WXYZ5678"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DiscardRun(ctx, "bob", started.RunId), ErrRunNotFound)
	require.NoError(t, f.svc.DiscardRun(ctx, "alice", started.RunId))

	_, err = f.svc.GetRun(ctx, "alice", started.RunId)
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = f.svc.Submit(ctx, "alice", started.RunId, &dto.SubmitCaptchaRequest{Captcha: "ab12"})
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, f.svc.DiscardRun(ctx, "alice", started.RunId), ErrRunNotFound)
}

func TestFetchService_WrongCaptchaConsumesSession(t *testing.T) {
	f := newFixture(t, map[string]string{
		"/fetch_by_cnr_init":   cnrRoutes["/fetch_by_cnr_init"],
		"/fetch_by_cnr_submit": `{"error": "Invalid captcha"}`,
	}, false)
	ctx := context.Background()

	started, err := f.svc.StartCnr(ctx, "alice", &dto.StartCnrRequest{CNR: "WXYZ5678"})
	require.NoError(t, err)

	done, err := f.svc.Submit(ctx, "alice", started.RunId, &dto.SubmitCaptchaRequest{Captcha: "zzzz"})
	require.NoError(t, err)
	assert.Equal(t, "failed", done.Outcome.Kind)
	assert.Equal(t, "Invalid captcha", done.Outcome.Message)

	_, err = f.svc.Submit(ctx, "alice", started.RunId, &dto.SubmitCaptchaRequest{Captcha: "ab12"})
	require.Error(t, err)
	assert.ErrorIs(t, err, fetch.ErrNoPendingSession)
	assert.Equal(t, 1, f.publisher.count())
}

func TestFetchService_CourtBypassAndDownload(t *testing.T) {
	f := newFixture(t, map[string]string{
		"/fetch_by_court_init": `{"pdf_path": "/tmp/cause_list.pdf"}`,
	}, false)
	ctx := context.Background()

	res, err := f.svc.StartCourt(ctx, "alice", &dto.StartCourtRequest{
		State: "Delhi", District: "New Delhi", CourtComplexCode: "1", CourtName: "Court 1", Date: "01-03-2024",
	})
	require.NoError(t, err)
	assert.Equal(t, "resolved", res.State)
	assert.Equal(t, "document_ready", res.Outcome.Kind)
	assert.Equal(t, 1, f.publisher.count())

	dl, err := f.svc.Download(ctx, "alice", "/tmp/cause_list.pdf")
	require.NoError(t, err)
	defer dl.Body.Close()
	body, _ := io.ReadAll(dl.Body)
	assert.Equal(t, "%PDF-1.4 /tmp/cause_list.pdf", string(body))
	assert.Equal(t, "cause_list.pdf", dl.Filename)

	_, err = f.svc.Download(ctx, "bob", "/tmp/cause_list.pdf")
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	_, err = f.svc.Download(ctx, "alice", "/etc/passwd")
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	_, err = f.svc.Download(ctx, "alice", " ")
	assert.True(t, fetch.IsValidationError(err))
}

func TestFetchService_DownloadFromHistory(t *testing.T) {
	f := newFixture(t, cnrRoutes, true)
	ctx := context.Background()

	repo := implementation.NewFetchRecordRepository(f.db)
	require.NoError(t, repo.Create(ctx, &entity.FetchRecord{
		RunId: uuid.New(), Owner: "alice", Workflow: "court", OutcomeKind: "document_ready",
		Summary: "document ready at /old/list.pdf", Reference: "/old/list.pdf", CreatedAt: time.Now(),
	}))

	dl, err := f.svc.Download(ctx, "alice", "/old/list.pdf")
	require.NoError(t, err)
	_ = dl.Body.Close()

	_, err = f.svc.Download(ctx, "bob", "/old/list.pdf")
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestFetchService_GetLogFallsBackToMirror(t *testing.T) {
	f := newFixture(t, cnrRoutes, false)
	ctx := context.Background()

	started, err := f.svc.StartCnr(ctx, "alice", &dto.StartCnrRequest{CNR: "WXYZ5678"})
	require.NoError(t, err)
	f.runs.Delete(started.RunId)

	log, err := f.svc.GetLog(ctx, "alice", started.RunId)
	require.NoError(t, err)
	assert.Len(t, log.Lines, 2)

	_, err = f.svc.GetLog(ctx, "bob", started.RunId)
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = f.svc.GetRun(ctx, "alice", started.RunId)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestFetchService_History(t *testing.T) {
	f := newFixture(t, cnrRoutes, true)
	ctx := context.Background()
	repo := implementation.NewFetchRecordRepository(f.db)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, wf := range []string{"cnr", "court", "cnr"} {
		require.NoError(t, repo.Create(ctx, &entity.FetchRecord{
			RunId: uuid.New(), Owner: "alice", Workflow: wf, OutcomeKind: "failed",
			Summary: "failed: x", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(ctx, &entity.FetchRecord{
		RunId: uuid.New(), Owner: "bob", Workflow: "cnr", OutcomeKind: "failed", Summary: "failed: y", CreatedAt: base,
	}))

	res, err := f.svc.History(ctx, "alice", &dto.HistoryRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total)
	require.Len(t, res.Items, 3)
	assert.True(t, res.Items[0].CreatedAt.After(res.Items[2].CreatedAt))

	res, err = f.svc.History(ctx, "alice", &dto.HistoryRequest{Workflow: "cnr", Limit: 1, Page: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, base, res.Items[0].CreatedAt.UTC())

	require.NoError(t, repo.Create(ctx, &entity.FetchRecord{
		RunId: uuid.New(), Owner: "alice", Workflow: "court", OutcomeKind: "document_ready",
		Summary: "document ready at /srv/out/Cause_List.pdf", Reference: "/srv/out/Cause_List.pdf", CreatedAt: base,
	}))
	res, err = f.svc.History(ctx, "alice", &dto.HistoryRequest{Query: "cause_list"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "document_ready", res.Items[0].OutcomeKind)
}

func TestFetchService_HistoryWithoutDatabase(t *testing.T) {
	f := newFixture(t, cnrRoutes, false)

	_, err := f.svc.History(context.Background(), "alice", &dto.HistoryRequest{})
	assert.ErrorIs(t, err, ErrHistoryUnavailable)
	assert.ErrorIs(t, err, serverutils.ErrUnavailable)
}
