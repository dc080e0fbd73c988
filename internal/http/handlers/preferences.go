package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"artistry/internal/domain"
)

type preferencesRequest struct {
	SessionID       string   `json:"session_id"`
	BudgetRange     string   `json:"budget_range"`
	DesignTips      string   `json:"design_tips"`
	ItemReplacement []string `json:"item_replacement"`
}

type preferencesResponse struct {
	SessionID   string          `json:"session_id"`
	Preferences *domain.Session `json:"preferences"`
	Persisted   bool            `json:"persisted"`
}

// CollectPreferences creates or updates a preference session. Without
// persistence the preferences are echoed back with persisted=false.
func (a *App) CollectPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if !a.decode(w, r, &req) {
		return
	}
	tier, err := domain.ParseBudgetTier(req.BudgetRange)
	if err != nil {
		a.fail(w, r, &domain.ValidationError{Field: "budget_range", Message: "must be one of low, medium, high"})
		return
	}
	session := &domain.Session{
		ID:              strings.TrimSpace(req.SessionID),
		BudgetRange:     tier,
		DesignTips:      strings.TrimSpace(req.DesignTips),
		ItemReplacement: cleanItems(req.ItemReplacement),
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	if a.Sessions == nil {
		a.json(w, http.StatusOK, preferencesResponse{SessionID: session.ID, Preferences: session})
		return
	}

	ctx := r.Context()
	existing, err := a.Sessions.GetByID(ctx, session.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		err = a.Sessions.Create(ctx, session)
	case err == nil:
		session.CreatedAt = existing.CreatedAt
		err = a.Sessions.Update(ctx, session)
	}
	if err != nil {
		a.fail(w, r, fmt.Errorf("save preferences: %w", err))
		return
	}
	a.logger(r).Info().Str("session_id", session.ID).Str("budget", string(session.BudgetRange)).Msg("preferences saved")
	a.json(w, http.StatusOK, preferencesResponse{SessionID: session.ID, Preferences: session, Persisted: true})
}

// GetPreferences returns a stored session.
func (a *App) GetPreferences(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	if sessionID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "session_id required")
		return
	}
	if a.Sessions == nil {
		a.fail(w, r, fmt.Errorf("preferences: %w: session persistence is disabled", domain.ErrConfigurationMissing))
		return
	}
	session, err := a.Sessions.GetByID(r.Context(), sessionID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, session)
}

// cleanItems trims entries and drops blanks and case-insensitive duplicates.
func cleanItems(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := domain.CanonicalItem(item)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
