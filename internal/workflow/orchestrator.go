// Package workflow sequences the collaborators of a room redesign run and
// owns the job lifecycle.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"artistry/internal/advise"
	"artistry/internal/domain"
	"artistry/internal/imagegen"
	"artistry/internal/infra"
	"artistry/internal/providers/advisor"
)

// DefaultLightTimeout bounds detection, segmentation, rating, analysis and
// intent calls when no timeout is configured.
const DefaultLightTimeout = 60 * time.Second

// Deps are the collaborators a run needs. Detector, Segmenter, Rater and
// Generator are required.
type Deps struct {
	Detector  Detector
	Segmenter Segmenter
	Rater     ConditionRater
	Generator Generator
	Analyzer  advisor.Analyzer
	Intent    advisor.IntentClassifier
	Catalog   *advise.Catalog
	Stores    domain.Stores
	Artifacts ArtifactStore
	Metrics   *infra.Metrics
	Logger    *infra.Logger

	// LightTimeout applies to every call except generation passes.
	LightTimeout time.Duration
	// Dispatch is infra.DispatchInline (default) or infra.DispatchQueue.
	Dispatch    string
	Concurrency int
}

// Orchestrator runs the eight-stage redesign pipeline.
type Orchestrator struct {
	detector   Detector
	segmenter  Segmenter
	rater      ConditionRater
	generator  Generator
	analyzer   advisor.Analyzer
	intent     advisor.IntentClassifier
	catalog    *advise.Catalog
	stores     domain.Stores
	artifacts  ArtifactStore
	metrics    *infra.Metrics
	logger     infra.Logger
	light      time.Duration
	dispatcher Dispatcher
}

// New wires an orchestrator and its dispatcher.
func New(deps Deps) (*Orchestrator, error) {
	if deps.Detector == nil || deps.Segmenter == nil || deps.Rater == nil || deps.Generator == nil {
		return nil, fmt.Errorf("workflow: %w: detector, segmenter, rater and generator are required", domain.ErrMissingDependency)
	}
	logger := zerolog.New(io.Discard)
	if deps.Logger != nil {
		logger = *deps.Logger
	}
	o := &Orchestrator{
		detector:  deps.Detector,
		segmenter: deps.Segmenter,
		rater:     deps.Rater,
		generator: deps.Generator,
		analyzer:  deps.Analyzer,
		intent:    deps.Intent,
		catalog:   deps.Catalog,
		stores:    deps.Stores,
		artifacts: deps.Artifacts,
		metrics:   deps.Metrics,
		logger:    logger,
		light:     deps.LightTimeout,
	}
	if o.analyzer == nil {
		o.analyzer = advisor.NewStaticAnalyzer()
	}
	if o.intent == nil {
		o.intent = advisor.NewKeywordClassifier()
	}
	if o.catalog == nil {
		o.catalog = advise.DefaultCatalog()
	}
	if o.light <= 0 {
		o.light = DefaultLightTimeout
	}
	switch deps.Dispatch {
	case infra.DispatchQueue:
		o.dispatcher = NewQueueDispatcher(logger)
	case "", infra.DispatchInline:
		o.dispatcher = NewInlineDispatcher(o, deps.Concurrency, logger)
	default:
		return nil, fmt.Errorf("workflow: unknown dispatch mode %q", deps.Dispatch)
	}
	return o, nil
}

// Stores returns the persistence the orchestrator was built with.
func (o *Orchestrator) Stores() domain.Stores {
	return o.stores
}

// Wait blocks until inline jobs finish or ctx expires.
func (o *Orchestrator) Wait(ctx context.Context) error {
	return o.dispatcher.Wait(ctx)
}

// SubmitRequest is an asynchronous redesign request.
type SubmitRequest struct {
	ImageB64 string
	Prompt   string
	Options  domain.JobOptions
}

// Submit validates the request, stores a pending job and dispatches it.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if _, err := imagegen.DecodeImageB64("image_b64", req.ImageB64); err != nil {
		return "", err
	}
	if _, err := domain.ParseBudgetTier(req.Options.Budget); err != nil {
		return "", err
	}
	if _, err := domain.ParseGenerationMode(req.Options.Mode); err != nil {
		return "", err
	}
	if !o.stores.Enabled() {
		return "", fmt.Errorf("submit: %w: job persistence is disabled", domain.ErrConfigurationMissing)
	}
	if req.Options.SessionID != "" {
		if _, err := o.stores.Sessions.GetByID(ctx, req.Options.SessionID); err != nil {
			return "", fmt.Errorf("session %s: %w", req.Options.SessionID, err)
		}
	}

	payload, err := json.Marshal(domain.JobRequest{ImageB64: req.ImageB64, Prompt: req.Prompt, Options: req.Options})
	if err != nil {
		return "", err
	}
	job := &domain.Job{ID: uuid.NewString(), Status: domain.JobStatusPending, Request: payload}
	if err := o.stores.Jobs.Create(ctx, job); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}
	o.metrics.IncJob(string(domain.JobStatusPending))
	o.logger.Info().Str("job_id", job.ID).Msg("workflow: job submitted")
	o.dispatcher.Dispatch(job)
	return job.ID, nil
}

// GetStatus returns the stored job.
func (o *Orchestrator) GetStatus(ctx context.Context, jobID string) (*domain.Job, error) {
	if !o.stores.Enabled() {
		return nil, fmt.Errorf("status: %w: job persistence is disabled", domain.ErrConfigurationMissing)
	}
	return o.stores.Jobs.GetByID(ctx, jobID)
}

// ProcessJob runs a pending (or already claimed) job and records the outcome.
func (o *Orchestrator) ProcessJob(ctx context.Context, job *domain.Job) error {
	if !o.stores.Enabled() {
		return fmt.Errorf("process: %w", domain.ErrConfigurationMissing)
	}
	logger := o.logger.With().Str("job_id", job.ID).Logger()
	if job.Status != domain.JobStatusRunning {
		if err := o.stores.Jobs.UpdateStatus(ctx, job.ID, domain.JobStatusRunning, nil, nil); err != nil {
			return fmt.Errorf("mark running: %w", err)
		}
		job.Status = domain.JobStatusRunning
	}
	o.metrics.IncJob(string(domain.JobStatusRunning))

	result, err := o.runJob(ctx, job)
	// terminal writes must land even when ctx was cancelled mid-run
	finalCtx := context.WithoutCancel(ctx)
	if err != nil {
		return o.failJob(finalCtx, job, err, logger)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return o.failJob(finalCtx, job, fmt.Errorf("encode result: %w", err), logger)
	}
	if err := o.stores.Jobs.UpdateStatus(finalCtx, job.ID, domain.JobStatusDone, nil, payload); err != nil {
		return o.failJob(finalCtx, job, fmt.Errorf("mark done: %w", err), logger)
	}
	job.Status, job.Result = domain.JobStatusDone, payload
	o.metrics.IncJob(string(domain.JobStatusDone))
	logger.Info().Str("strategy", result.Strategy).Int("passes", result.NumPasses).Msg("workflow: job done")
	return nil
}

// failJob records cause on a running job so pollers always see a terminal state.
func (o *Orchestrator) failJob(ctx context.Context, job *domain.Job, cause error, logger zerolog.Logger) error {
	logger.Error().Err(cause).Msg("workflow: job failed")
	msg := cause.Error()
	if err := o.stores.Jobs.UpdateStatus(ctx, job.ID, domain.JobStatusFailed, &msg, nil); err != nil {
		logger.Error().Err(err).Msg("workflow: mark failed")
		return errors.Join(cause, err)
	}
	job.Status, job.Error = domain.JobStatusFailed, &msg
	o.metrics.IncJob(string(domain.JobStatusFailed))
	return cause
}

func (o *Orchestrator) runJob(ctx context.Context, job *domain.Job) (*domain.WorkflowResult, error) {
	var req domain.JobRequest
	if err := json.Unmarshal(job.Request, &req); err != nil {
		return nil, fmt.Errorf("decode job request: %w", err)
	}
	image, err := imagegen.DecodeImageB64("image_b64", req.ImageB64)
	if err != nil {
		return nil, err
	}
	prefs, err := o.jobPreferences(ctx, req.Options)
	if err != nil {
		return nil, err
	}
	mode, err := domain.ParseGenerationMode(req.Options.Mode)
	if err != nil {
		return nil, err
	}
	return o.run(ctx, runInput{
		RunID:  job.ID,
		Image:  image,
		Prompt: req.Prompt,
		Mode:   mode,
		Prefs:  prefs,
	}, nil)
}

// EnhancedRequest is a synchronous redesign request driven by stored preferences.
type EnhancedRequest struct {
	ImageB64   string
	SessionID  string
	BasePrompt string
	Mode       string
}

// RunEnhanced runs the full pipeline synchronously and stores the result.
// With persistence enabled an unknown session fails before any collaborator
// is called.
func (o *Orchestrator) RunEnhanced(ctx context.Context, req EnhancedRequest) (*domain.WorkflowResult, error) {
	image, err := imagegen.DecodeImageB64("image_b64", req.ImageB64)
	if err != nil {
		return nil, err
	}
	mode, err := domain.ParseGenerationMode(req.Mode)
	if err != nil {
		return nil, err
	}
	prefs := defaultPreferences()
	if o.stores.Enabled() && strings.TrimSpace(req.SessionID) != "" {
		session, err := o.stores.Sessions.GetByID(ctx, req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", req.SessionID, err)
		}
		prefs = sessionPreferences(session)
	}

	runID := uuid.NewString()
	return o.run(ctx, runInput{
		RunID:  runID,
		Image:  image,
		Prompt: req.BasePrompt,
		Mode:   mode,
		Prefs:  prefs,
	}, func(ctx context.Context, result *domain.WorkflowResult) error {
		if !o.stores.Enabled() {
			return nil
		}
		payload, err := json.Marshal(result)
		if err != nil {
			return err
		}
		stored := &domain.StoredResult{ID: runID, SessionID: prefs.SessionID, Payload: payload}
		if err := o.stores.Results.Save(ctx, stored); err != nil {
			return err
		}
		result.ResultID = stored.ID
		return nil
	})
}

type preferences struct {
	SessionID string
	Budget    domain.BudgetTier
	Selection []string
	Tips      string
}

func defaultPreferences() preferences {
	return preferences{Budget: domain.BudgetMedium, Selection: []string{}}
}

func sessionPreferences(s *domain.Session) preferences {
	p := preferences{SessionID: s.ID, Budget: s.BudgetRange, Selection: s.ItemReplacement, Tips: s.DesignTips}
	if p.Budget == "" {
		p.Budget = domain.BudgetMedium
	}
	if p.Selection == nil {
		p.Selection = []string{}
	}
	return p
}

// jobPreferences merges explicit job options over the referenced session.
func (o *Orchestrator) jobPreferences(ctx context.Context, opts domain.JobOptions) (preferences, error) {
	prefs := defaultPreferences()
	if opts.SessionID != "" && o.stores.Enabled() {
		session, err := o.stores.Sessions.GetByID(ctx, opts.SessionID)
		if err != nil {
			return prefs, fmt.Errorf("session %s: %w", opts.SessionID, err)
		}
		prefs = sessionPreferences(session)
	}
	if opts.Budget != "" {
		tier, err := domain.ParseBudgetTier(opts.Budget)
		if err != nil {
			return prefs, err
		}
		prefs.Budget = tier
	}
	if len(opts.Items) > 0 {
		prefs.Selection = opts.Items
	}
	return prefs, nil
}
