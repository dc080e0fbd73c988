// Package bootstrap builds the collaborators, persistence and orchestrator
// shared by the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"artistry/internal/adapter/repo"
	"artistry/internal/advise"
	"artistry/internal/imagegen"
	"artistry/internal/infra"
	"artistry/internal/infra/credentials"
	"artistry/internal/providers/advisor"
	"artistry/internal/providers/diffusion"
	"artistry/internal/providers/remote"
	"artistry/internal/providers/vision"
	"artistry/internal/storage"
	"artistry/internal/workflow"
)

// Runtime is everything a binary needs to serve or process room jobs.
type Runtime struct {
	Config       *infra.Config
	Logger       infra.Logger
	Metrics      *infra.Metrics
	Backend      *repo.Backend
	Artifacts    *storage.FileStore
	Catalog      *advise.Catalog
	Generator    *imagegen.Dispatcher
	MultiPass    *imagegen.MultiPass
	Orchestrator *workflow.Orchestrator
}

// Close releases the persistence backend.
func (r *Runtime) Close() {
	if r != nil {
		r.Backend.Close()
	}
}

// Build wires a runtime from cfg. dispatch overrides cfg.JobDispatch when
// non-empty; the worker passes infra.DispatchQueue so it never runs jobs
// behind its own claim loop.
func Build(ctx context.Context, cfg *infra.Config, logger infra.Logger, dispatch string) (*Runtime, error) {
	backend, err := repo.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s persistence: %w", cfg.PersistenceMode, err)
	}
	rt := &Runtime{
		Config:  cfg,
		Logger:  logger,
		Metrics: infra.NewMetrics(),
		Backend: backend,
		Catalog: advise.DefaultCatalog(),
	}

	if path := strings.TrimSpace(cfg.StoragePath); path != "" {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		rt.Artifacts, err = storage.NewFileStore(path)
		if err != nil {
			backend.Close()
			return nil, fmt.Errorf("configure storage: %w", err)
		}
	}

	creds := storedCredentials(ctx, backend, logger)
	model := geminiModel(ctx, cfg, creds[credentials.ProviderGemini].Token, logger)

	lightClient := &http.Client{Timeout: cfg.CollaboratorTimeout}
	visionClient := vision.NewClient(vision.Options{
		DetectURL:    cfg.DetectURL,
		SegmentURL:   cfg.SegmentURL,
		ConditionURL: cfg.ConditionURL,
		RefineEdges:  cfg.SegmentRefineEdges,
		HTTPClient:   lightClient,
		Logger:       &logger,

		DetectAuth:    authFor(creds, credentials.ProviderDetect),
		SegmentAuth:   authFor(creds, credentials.ProviderSegment),
		ConditionAuth: authFor(creds, credentials.ProviderCondition),
	})
	var rater workflow.ConditionRater = visionClient
	if cfg.ConditionProvider == "gemini" {
		if model == nil {
			logger.Warn().Msg("bootstrap: CONDITION_PROVIDER=gemini without an api key, condition rating will fail")
		}
		rater = advisor.NewGeminiConditionRater(model)
	}

	var analyzer advisor.Analyzer = advisor.NewStaticAnalyzer()
	if cfg.AnalyzerProvider == "gemini" {
		analyzer = advisor.NewGeminiAnalyzer(advisor.GeminiAnalyzerOptions{Model: model, Logger: &logger})
	}
	var intent advisor.IntentClassifier = advisor.NewKeywordClassifier()
	if cfg.IntentProvider == "gemini" {
		intent = advisor.NewGeminiClassifier(model, nil, &logger)
	}

	diffusionClient := diffusion.NewClient(diffusion.Options{
		BaseURL:    cfg.GenerateURL,
		HTTPClient: &http.Client{Timeout: cfg.GenerationTimeout},
		Logger:     &logger,
		Auth:       authFor(creds, credentials.ProviderGenerate),
	})
	passOpts := []imagegen.Option{
		imagegen.WithLogger(logger),
		imagegen.WithPassTimeout(cfg.GenerationTimeout),
		imagegen.WithRecorder(rt.Metrics),
	}
	rt.Generator = imagegen.NewDispatcher(diffusionClient, passOpts...)
	rt.MultiPass = imagegen.NewMultiPass(diffusionClient, passOpts...)

	if dispatch == "" {
		dispatch = cfg.JobDispatch
	}
	deps := workflow.Deps{
		Detector:     visionClient,
		Segmenter:    visionClient,
		Rater:        rater,
		Generator:    rt.Generator,
		Analyzer:     analyzer,
		Intent:       intent,
		Catalog:      rt.Catalog,
		Stores:       backend.Stores,
		Metrics:      rt.Metrics,
		Logger:       &logger,
		LightTimeout: cfg.CollaboratorTimeout,
		Dispatch:     dispatch,
		Concurrency:  cfg.JobConcurrency,
	}
	if rt.Artifacts != nil {
		deps.Artifacts = rt.Artifacts
	}
	rt.Orchestrator, err = workflow.New(deps)
	if err != nil {
		backend.Close()
		return nil, err
	}

	logger.Info().
		Str("persistence", cfg.PersistenceMode).
		Str("dispatch", dispatch).
		Str("condition", cfg.ConditionProvider).
		Str("analyzer", cfg.AnalyzerProvider).
		Str("intent", cfg.IntentProvider).
		Bool("gemini", model != nil).
		Int("credentials", len(creds)).
		Bool("artifacts", rt.Artifacts != nil).
		Msg("bootstrap: runtime ready")
	return rt, nil
}

// storedCredentials loads the collaborator credentials saved with roomctl.
// Only the postgres backend persists them.
func storedCredentials(ctx context.Context, backend *repo.Backend, logger infra.Logger) map[credentials.Provider]credentials.Credential {
	if backend.SQL == nil {
		return nil
	}
	creds, err := credentials.NewStore(backend.SQL).ByProvider(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("bootstrap: failed to load collaborator credentials")
		return nil
	}
	return creds
}

func authFor(creds map[credentials.Provider]credentials.Credential, p credentials.Provider) remote.Auth {
	c, ok := creds[p]
	if !ok {
		return remote.Auth{}
	}
	return remote.Auth{Header: c.Header, Value: c.HeaderValue()}
}

// geminiModel returns nil when no key is available. GEMINI_API_KEY wins over
// a stored key.
func geminiModel(ctx context.Context, cfg *infra.Config, storedKey string, logger infra.Logger) advisor.ContentGenerator {
	if cfg.AnalyzerProvider != "gemini" && cfg.ConditionProvider != "gemini" && cfg.IntentProvider != "gemini" {
		return nil
	}
	key := strings.TrimSpace(cfg.GeminiAPIKey)
	if key == "" {
		key = strings.TrimSpace(storedKey)
	}
	if key == "" {
		logger.Warn().Msg("bootstrap: gemini api key missing, using fallbacks")
		return nil
	}
	model, err := advisor.NewGeminiModel(ctx, advisor.GeminiOptions{
		APIKey:     key,
		Model:      cfg.GeminiModel,
		HTTPClient: &http.Client{Timeout: cfg.CollaboratorTimeout},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("bootstrap: gemini client unavailable, using fallbacks")
		return nil
	}
	return model
}
