package handlers

import (
	"net/http"
	"strings"

	"artistry/internal/domain"
	"artistry/internal/workflow"
)

type enhancedRequest struct {
	ImageB64   string `json:"image_b64"`
	SessionID  string `json:"session_id"`
	BasePrompt string `json:"base_prompt"`
	Mode       string `json:"mode"`
}

// EnhancedWorkflow runs the full redesign pipeline synchronously.
func (a *App) EnhancedWorkflow(w http.ResponseWriter, r *http.Request) {
	var req enhancedRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ImageB64) == "" {
		a.fail(w, r, domain.NewValidationError("image_b64", "is required"))
		return
	}
	result, err := a.Workflow.RunEnhanced(r.Context(), workflow.EnhancedRequest{
		ImageB64:   req.ImageB64,
		SessionID:  strings.TrimSpace(req.SessionID),
		BasePrompt: req.BasePrompt,
		Mode:       req.Mode,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, result)
}
