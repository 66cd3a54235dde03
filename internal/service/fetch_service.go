package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecourts-fetcher-be/internal/dto"
	"ecourts-fetcher-be/internal/entity"
	"ecourts-fetcher-be/internal/mapper"
	"ecourts-fetcher-be/internal/pkg/logger"
	"ecourts-fetcher-be/internal/pkg/serverutils"
	"ecourts-fetcher-be/internal/repository/memory"
	"ecourts-fetcher-be/internal/repository/specification"
	"ecourts-fetcher-be/internal/repository/unitofwork"
	"ecourts-fetcher-be/pkg/fetch"

	"github.com/google/uuid"
)

const defaultHistoryPageSize = 20

var (
	ErrRunNotFound        = fmt.Errorf("run %w", serverutils.ErrNotFound)
	ErrReferenceNotFound  = fmt.Errorf("download reference %w", serverutils.ErrNotFound)
	ErrHistoryUnavailable = fmt.Errorf("fetch history: %w", serverutils.ErrUnavailable)
)

// Backend is the scraping service as seen by the gateway.
type Backend interface {
	fetch.Transport
	Download(ctx context.Context, reference string) (*fetch.Download, error)
}

// RunLogStore mirrors run logs outside the process.
type RunLogStore interface {
	Claim(ctx context.Context, id uuid.UUID, owner string) error
	Owner(ctx context.Context, id uuid.UUID) (string, error)
	Lines(ctx context.Context, id uuid.UUID) ([]string, error)
	Sink(id uuid.UUID) fetch.Sink
}

type IFetchService interface {
	StartCnr(ctx context.Context, owner string, req *dto.StartCnrRequest) (*dto.RunResponse, error)
	StartCourt(ctx context.Context, owner string, req *dto.StartCourtRequest) (*dto.RunResponse, error)
	Submit(ctx context.Context, owner string, runId uuid.UUID, req *dto.SubmitCaptchaRequest) (*dto.RunResponse, error)
	GetRun(ctx context.Context, owner string, runId uuid.UUID) (*dto.RunResponse, error)
	ListRuns(ctx context.Context, owner string) (*dto.RunListResponse, error)
	GetLog(ctx context.Context, owner string, runId uuid.UUID) (*dto.RunLogResponse, error)
	DiscardRun(ctx context.Context, owner string, runId uuid.UUID) error
	Download(ctx context.Context, owner string, reference string) (*fetch.Download, error)
	History(ctx context.Context, owner string, req *dto.HistoryRequest) (*dto.HistoryResponse, error)
}

type fetchService struct {
	backend       Backend
	runs          *memory.RunRepository
	runLogs       RunLogStore
	publisher     IPublisherService
	uowFactory    unitofwork.RepositoryFactory
	logger        logger.ILogger
	fetchLogger   logger.ILogger
	outcomeMapper *mapper.FetchOutcomeMapper
	recordMapper  *mapper.FetchRecordMapper
}

type FetchServiceDeps struct {
	Backend     Backend
	Runs        *memory.RunRepository
	RunLogs     RunLogStore                  // optional
	Publisher   IPublisherService            // optional
	UowFactory  unitofwork.RepositoryFactory // optional
	Logger      logger.ILogger
	FetchLogger logger.ILogger
	DownloadDir string
}

func NewFetchService(deps FetchServiceDeps) IFetchService {
	fetchLogger := deps.FetchLogger
	if fetchLogger == nil {
		fetchLogger = deps.Logger
	}
	return &fetchService{
		backend:       deps.Backend,
		runs:          deps.Runs,
		runLogs:       deps.RunLogs,
		publisher:     deps.Publisher,
		uowFactory:    deps.UowFactory,
		logger:        deps.Logger,
		fetchLogger:   fetchLogger,
		outcomeMapper: mapper.NewFetchOutcomeMapper(deps.DownloadDir),
		recordMapper:  mapper.NewFetchRecordMapper(),
	}
}

func (s *fetchService) StartCnr(ctx context.Context, owner string, req *dto.StartCnrRequest) (*dto.RunResponse, error) {
	q := fetch.CnrQuery{CNR: req.CNR}
	return s.start(ctx, owner, q, fetch.CnrWorkflow{SkipDownload: req.SkipDownload})
}

func (s *fetchService) StartCourt(ctx context.Context, owner string, req *dto.StartCourtRequest) (*dto.RunResponse, error) {
	caseType, err := fetch.ParseCaseType(req.CaseType)
	if err != nil {
		return nil, err
	}
	q := fetch.CourtQuery{
		State:            req.State,
		District:         req.District,
		CourtComplexCode: req.CourtComplexCode,
		CourtName:        req.CourtName,
		Date:             req.Date,
		CaseType:         caseType,
	}
	return s.start(ctx, owner, q, fetch.CourtWorkflow{})
}

func (s *fetchService) start(ctx context.Context, owner string, q fetch.Query, w fetch.Workflow) (*dto.RunResponse, error) {
	// Rejected queries never become runs.
	if err := fetch.Validate(q); err != nil {
		return nil, err
	}

	run := &entity.FetchRun{
		Id:        uuid.New(),
		Owner:     owner,
		Query:     q,
		Log:       fetch.NewLogSink(),
		CreatedAt: time.Now(),
	}

	sinks := fetch.MultiSink{run.Log, logger.NewFetchSink(s.fetchLogger, run.Id.String(), owner)}
	if s.runLogs != nil {
		if err := s.runLogs.Claim(ctx, run.Id, owner); err != nil {
			s.logger.Warn("FetchService", "Failed to claim run log", map[string]interface{}{
				"run_id": run.Id.String(),
				"error":  err.Error(),
			})
		}
		sinks = append(sinks, s.runLogs.Sink(run.Id))
	}
	run.Engine = fetch.NewEngine(w, s.backend, fetch.WithSink(sinks))

	result, err := run.Engine.Initiate(ctx, q)
	if err != nil {
		s.logger.Warn("FetchService", "Run failed to start", map[string]interface{}{
			"run_id":   run.Id.String(),
			"workflow": string(w.Kind()),
			"error":    err.Error(),
		})
		return nil, err
	}
	s.runs.Save(run)

	if r, ok := result.(fetch.Resolved); ok {
		s.publishOutcome(ctx, run, r.Outcome)
	}

	s.logger.Info("FetchService", "Run started", map[string]interface{}{
		"run_id":   run.Id.String(),
		"workflow": string(w.Kind()),
		"state":    run.Engine.State().String(),
	})
	return s.toRunResponse(run), nil
}

func (s *fetchService) Submit(ctx context.Context, owner string, runId uuid.UUID, req *dto.SubmitCaptchaRequest) (*dto.RunResponse, error) {
	run, err := s.ownedRun(owner, runId)
	if err != nil {
		return nil, err
	}

	// With no pending session the engine rejects the zero Session itself.
	session, _ := run.Engine.PendingSession()
	outcome, err := run.Engine.Submit(ctx, session, req.Captcha)
	if outcome != nil {
		// Resolved runs stay readable for a full TTL from resolution.
		s.runs.Save(run)
		s.publishOutcome(ctx, run, outcome)
	}
	if err != nil {
		return nil, err
	}
	return s.toRunResponse(run), nil
}

func (s *fetchService) GetRun(ctx context.Context, owner string, runId uuid.UUID) (*dto.RunResponse, error) {
	run, err := s.ownedRun(owner, runId)
	if err != nil {
		return nil, err
	}
	return s.toRunResponse(run), nil
}

func (s *fetchService) ListRuns(ctx context.Context, owner string) (*dto.RunListResponse, error) {
	runs := s.runs.FindByOwner(owner)
	res := &dto.RunListResponse{Runs: make([]*dto.RunResponse, len(runs))}
	for i, run := range runs {
		res.Runs[i] = s.toRunResponse(run)
	}
	return res, nil
}

// DiscardRun drops a live run. A pending challenge is abandoned without
// telling the backend; the session lapses there on its own.
func (s *fetchService) DiscardRun(ctx context.Context, owner string, runId uuid.UUID) error {
	if _, err := s.ownedRun(owner, runId); err != nil {
		return err
	}
	s.runs.Delete(runId)
	return nil
}

// GetLog serves the in-memory log of a live run, falling back to the redis
// mirror once the run has expired from memory.
func (s *fetchService) GetLog(ctx context.Context, owner string, runId uuid.UUID) (*dto.RunLogResponse, error) {
	if run, ok := s.runs.Get(runId); ok {
		if run.Owner != owner {
			return nil, ErrRunNotFound
		}
		return &dto.RunLogResponse{RunId: runId, Lines: run.Log.Lines()}, nil
	}
	if s.runLogs == nil {
		return nil, ErrRunNotFound
	}

	claimed, err := s.runLogs.Owner(ctx, runId)
	if err != nil {
		return nil, err
	}
	if claimed == "" || claimed != owner {
		return nil, ErrRunNotFound
	}
	lines, err := s.runLogs.Lines(ctx, runId)
	if err != nil {
		return nil, err
	}
	return &dto.RunLogResponse{RunId: runId, Lines: lines}, nil
}

// Download proxies an artifact, but only one produced by the caller's own
// runs: live ones first, then persisted history.
func (s *fetchService) Download(ctx context.Context, owner string, reference string) (*fetch.Download, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, &fetch.ValidationError{Err: errors.New("path is required")}
	}

	allowed := false
	for _, run := range s.runs.FindByOwner(owner) {
		if s.outcomeMapper.Reference(run.Engine.Outcome()) == reference {
			allowed = true
			break
		}
	}
	if !allowed && s.uowFactory != nil {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		record, err := uow.FetchRecordRepository().FindOne(ctx,
			specification.OwnedBy{Owner: owner},
			specification.Filter("reference", reference),
		)
		if err != nil {
			return nil, err
		}
		allowed = record != nil
	}
	if !allowed {
		return nil, ErrReferenceNotFound
	}

	return s.backend.Download(ctx, reference)
}

func (s *fetchService) History(ctx context.Context, owner string, req *dto.HistoryRequest) (*dto.HistoryResponse, error) {
	if s.uowFactory == nil {
		return nil, ErrHistoryUnavailable
	}

	page, limit := req.Page, req.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultHistoryPageSize
	}

	filters := []specification.Specification{
		specification.OwnedBy{Owner: owner},
		specification.ByWorkflow{Workflow: req.Workflow},
		specification.RecordSearchQuery{Query: req.Query},
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	total, err := uow.FetchRecordRepository().Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	specs := append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	records, err := uow.FetchRecordRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.FetchRecordResponse, len(records))
	for i, r := range records {
		items[i] = s.recordMapper.ToResponse(r)
	}
	return &dto.HistoryResponse{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *fetchService) ownedRun(owner string, runId uuid.UUID) (*entity.FetchRun, error) {
	run, ok := s.runs.Get(runId)
	if !ok || run.Owner != owner {
		return nil, ErrRunNotFound
	}
	return run, nil
}

func (s *fetchService) toRunResponse(run *entity.FetchRun) *dto.RunResponse {
	res := &dto.RunResponse{
		RunId:     run.Id,
		Workflow:  string(run.Engine.Workflow()),
		State:     run.Engine.State().String(),
		Outcome:   s.outcomeMapper.ToOutcome(run.Engine.Outcome()),
		CreatedAt: run.CreatedAt,
	}
	if session, ok := run.Engine.PendingSession(); ok {
		res.Challenge = s.outcomeMapper.ToChallenge(session)
	}
	return res
}

// publishOutcome hands the terminal outcome to the consumer for persistence.
// Failures are logged only; the caller already has its answer.
func (s *fetchService) publishOutcome(ctx context.Context, run *entity.FetchRun, outcome fetch.Outcome) {
	if s.publisher == nil || outcome == nil {
		return
	}

	queryJson, err := json.Marshal(run.Query)
	if err != nil {
		queryJson = []byte("null")
	}
	outcomeJson, err := json.Marshal(outcome)
	if err != nil {
		outcomeJson = []byte("null")
	}

	msg := dto.FetchOutcomeMessage{
		RunId:       run.Id,
		Owner:       run.Owner,
		Workflow:    string(run.Engine.Workflow()),
		OutcomeKind: string(outcome.Kind()),
		Summary:     outcome.Summary(),
		Reference:   s.outcomeMapper.Reference(outcome),
		Query:       queryJson,
		Outcome:     outcomeJson,
		OccurredAt:  time.Now(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	if err := s.publisher.Publish(ctx, payload); err != nil {
		s.logger.Error("FetchService", "Failed to publish outcome", map[string]interface{}{
			"run_id": run.Id.String(),
			"error":  err.Error(),
		})
	}
}
