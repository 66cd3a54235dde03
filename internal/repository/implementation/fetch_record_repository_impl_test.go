package implementation

import (
	"context"
	"testing"
	"time"

	"ecourts-fetcher-be/internal/entity"
	"ecourts-fetcher-be/internal/model"
	"ecourts-fetcher-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.FetchRecord{}))
	return db
}

func TestFetchRecordRepository_CreateIsIdempotentPerRun(t *testing.T) {
	repo := NewFetchRecordRepository(newTestDB(t))
	ctx := context.Background()
	runID := uuid.New()

	first := &entity.FetchRecord{
		RunId: runID, Owner: "alice", Workflow: "cnr", OutcomeKind: "case_found",
		Summary: "case found (2 fields, 0 pdfs)", Outcome: []byte(`{"case_info":{}}`),
	}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.Id)

	require.NoError(t, repo.Create(ctx, &entity.FetchRecord{
		RunId: runID, Owner: "alice", Workflow: "cnr", OutcomeKind: "failed", Summary: "failed: dup",
	}))

	count, err := repo.Count(ctx, specification.ByRunID{RunID: runID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	got, err := repo.FindOne(ctx, specification.ByRunID{RunID: runID})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "case_found", got.OutcomeKind)
	assert.JSONEq(t, `{"case_info":{}}`, string(got.Outcome))
}

func TestFetchRecordRepository_FindOnePrefersLatest(t *testing.T) {
	repo := NewFetchRecordRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	for i, kind := range []string{"document_ready", "document_ready"} {
		require.NoError(t, repo.Create(ctx, &entity.FetchRecord{
			RunId: uuid.New(), Owner: "alice", Workflow: "court", OutcomeKind: kind,
			Summary: "document ready at /out/list.pdf", Reference: "/out/list.pdf",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	got, err := repo.FindOne(ctx,
		specification.OwnedBy{Owner: "alice"},
		specification.Filter("reference", "/out/list.pdf"),
	)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, base.Add(time.Hour), got.CreatedAt.UTC())

	missing, err := repo.FindOne(ctx, specification.OwnedBy{Owner: "bob"})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFetchRecordRepository_Search(t *testing.T) {
	repo := NewFetchRecordRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.FetchRecord{
		RunId: uuid.New(), Owner: "alice", Workflow: "cnr", OutcomeKind: "archive_ready",
		Summary: "archive ready at WXYZ5678.zip (a.pdf)", Reference: "/srv/downloads/WXYZ5678.zip",
	}))
	require.NoError(t, repo.Create(ctx, &entity.FetchRecord{
		RunId: uuid.New(), Owner: "alice", Workflow: "cnr", OutcomeKind: "failed", Summary: "failed: Invalid CAPTCHA",
	}))

	found, err := repo.FindAll(ctx, specification.OwnedBy{Owner: "alice"}, specification.RecordSearchQuery{Query: "wxyz"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "archive_ready", found[0].OutcomeKind)

	all, err := repo.FindAll(ctx, specification.OwnedBy{Owner: "alice"}, specification.RecordSearchQuery{Query: "  "})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFetchRecordRepository_SearchTreatsWildcardsLiterally(t *testing.T) {
	repo := NewFetchRecordRepository(newTestDB(t))
	ctx := context.Background()

	for _, ref := range []string{"/out/list_2024.pdf", "/out/listA2024.pdf", "/out/100%.pdf", "/out/1000.pdf"} {
		require.NoError(t, repo.Create(ctx, &entity.FetchRecord{
			RunId: uuid.New(), Owner: "alice", Workflow: "court", OutcomeKind: "document_ready",
			Summary: "document ready at " + ref, Reference: ref,
		}))
	}

	found, err := repo.FindAll(ctx, specification.RecordSearchQuery{Query: "list_2024"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "/out/list_2024.pdf", found[0].Reference)

	found, err = repo.FindAll(ctx, specification.RecordSearchQuery{Query: "100%"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "/out/100%.pdf", found[0].Reference)
}
