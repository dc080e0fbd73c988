package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"artistry/internal/advise"
	"artistry/internal/domain"
	"artistry/internal/imagegen"
	"artistry/internal/infra"
	"artistry/internal/middleware"
	"artistry/internal/workflow"
)

// maxBodyBytes bounds JSON request bodies; images travel inline as base64.
const maxBodyBytes = 32 << 20

// Workflow is the orchestrator surface the room and workflow handlers use.
type Workflow interface {
	Submit(ctx context.Context, req workflow.SubmitRequest) (string, error)
	GetStatus(ctx context.Context, jobID string) (*domain.Job, error)
	RunEnhanced(ctx context.Context, req workflow.EnhancedRequest) (*domain.WorkflowResult, error)
}

// BudgetGenerator runs budget-aware generation.
type BudgetGenerator interface {
	Generate(ctx context.Context, req imagegen.BudgetRequest) (*domain.GenerationResult, error)
}

// PassRunner runs explicit multi-pass inpainting.
type PassRunner interface {
	Run(ctx context.Context, base []byte, masks imagegen.MaskSet, steps []domain.InpaintingStep, opts imagegen.RunOptions) (*domain.GenerationResult, error)
}

// ArtifactReader reads stored room images.
type ArtifactReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// App carries the dependencies shared by every handler.
type App struct {
	Workflow        Workflow
	Sessions        domain.SessionRepository
	PersistenceMode string
	Catalog         *advise.Catalog
	Generator       BudgetGenerator
	MultiPass       PassRunner
	Artifacts       ArtifactReader
	Metrics         *infra.Metrics
	Logger          infra.Logger
}

func NewApp(app App) *App {
	if app.Catalog == nil {
		app.Catalog = advise.DefaultCatalog()
	}
	return &app
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorBody{Error: errCode, Message: message})
}

// decode reads a JSON body into dst. Unknown fields are tolerated.
func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		msg := "invalid payload"
		if errors.Is(err, io.EOF) {
			msg = "empty payload"
		}
		a.error(w, http.StatusBadRequest, "bad_request", msg)
		return false
	}
	return true
}

// fail maps a domain error onto the HTTP error body.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		a.json(w, http.StatusUnprocessableEntity, errorBody{Error: "validation_failed", Message: validation.Message, Field: validation.Field})
		return
	case errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
		return
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
		return
	case errors.Is(err, domain.ErrModelNotLoaded):
		a.error(w, http.StatusServiceUnavailable, "model_not_loaded", err.Error())
		return
	case errors.Is(err, domain.ErrConfigurationMissing):
		a.error(w, http.StatusServiceUnavailable, "persistence_unavailable", err.Error())
		return
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		a.error(w, http.StatusBadGateway, "upstream_unavailable", err.Error())
		return
	}
	a.logger(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	a.error(w, http.StatusInternalServerError, "internal", "internal error")
}

func (a *App) logger(r *http.Request) *zerolog.Logger {
	l := a.Logger.With().Str("request_id", middleware.RequestIDFromContext(r.Context())).Logger()
	return &l
}
