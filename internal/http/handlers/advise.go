package handlers

import (
	"net/http"

	"artistry/internal/advise"
	"artistry/internal/domain"
)

type reasonRequest struct {
	ItemConditions map[string]string `json:"item_conditions"`
	UserSelection  []string          `json:"user_selection"`
	Budget         string            `json:"budget"`
}

// ReasonUpgrades decides replace or keep for every rated or selected item.
func (a *App) ReasonUpgrades(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if !a.decode(w, r, &req) {
		return
	}
	tier, err := domain.ParseBudgetTier(req.Budget)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	conditions := make(map[string]domain.Condition, len(req.ItemConditions))
	for item, raw := range req.ItemConditions {
		cond, err := domain.ParseCondition(raw)
		if err != nil {
			a.fail(w, r, domain.NewValidationError("item_conditions."+item, err.Error()))
			return
		}
		conditions[item] = cond
	}
	a.json(w, http.StatusOK, advise.Reason(conditions, req.UserSelection, tier))
}

type refineRequest struct {
	BaseDesign    string   `json:"base_design"`
	Budget        string   `json:"budget"`
	ItemSelection []string `json:"item_selection"`
}

type refineResponse struct {
	BaseDesign string `json:"base_design,omitempty"`
	advise.Refinement
}

// RefineBudget resolves materials for the selected items at a budget tier.
func (a *App) RefineBudget(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if !a.decode(w, r, &req) {
		return
	}
	tier, err := domain.ParseBudgetTier(req.Budget)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, refineResponse{
		BaseDesign: req.BaseDesign,
		Refinement: a.Catalog.RefineBudget(req.ItemSelection, string(tier)),
	})
}
