package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"artistry/internal/domain"
	"artistry/internal/storage"
	"artistry/internal/workflow"
	"artistry/pkg/zip"
)

type roomSubmitRequest struct {
	ImageB64 string            `json:"image_b64"`
	Prompt   string            `json:"prompt"`
	Options  domain.JobOptions `json:"options"`
}

type jobResponse struct {
	JobID     string          `json:"job_id"`
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result"`
	Error     *string         `json:"error"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

// SubmitRoom queues an asynchronous redesign job.
func (a *App) SubmitRoom(w http.ResponseWriter, r *http.Request) {
	var req roomSubmitRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ImageB64) == "" {
		a.fail(w, r, domain.NewValidationError("image_b64", "is required"))
		return
	}
	jobID, err := a.Workflow.Submit(r.Context(), workflow.SubmitRequest{
		ImageB64: req.ImageB64,
		Prompt:   req.Prompt,
		Options:  req.Options,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, jobResponse{JobID: jobID, Status: string(domain.JobStatusPending)})
}

// RoomStatus reports a job's state and, once done, its result.
func (a *App) RoomStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	job, err := a.Workflow.GetStatus(r.Context(), jobID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	resp := jobResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		Error:     job.Error,
		CreatedAt: &job.CreatedAt,
		UpdatedAt: &job.UpdatedAt,
	}
	if len(job.Result) > 0 {
		resp.Result = job.Result
	}
	a.json(w, http.StatusOK, resp)
}

// RoomPasses streams a zip of the stored images of a job.
func (a *App) RoomPasses(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	if a.Artifacts == nil {
		a.fail(w, r, fmt.Errorf("passes: %w: artifact storage is disabled", domain.ErrConfigurationMissing))
		return
	}
	keys, err := a.Artifacts.List(r.Context(), storage.RoomPrefix(jobID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "no images stored for job")
			return
		}
		a.fail(w, r, err)
		return
	}
	assets := make([]zip.Asset, 0, len(keys))
	for _, key := range keys {
		if !storage.IsPassKey(key) && key != storage.FinalKey(jobID) {
			continue
		}
		data, err := a.Artifacts.Read(r.Context(), key)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		assets = append(assets, zip.Asset{Filename: path.Base(key), Data: data})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no images stored for job")
		return
	}
	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=room-%s.zip", jobID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
