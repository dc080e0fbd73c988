package domain

import "time"

// Session holds the preferences a user submitted before running a redesign.
type Session struct {
	ID              string     `json:"session_id"`
	BudgetRange     BudgetTier `json:"budget_range"`
	DesignTips      string     `json:"design_tips"`
	ItemReplacement []string   `json:"item_replacement"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// StoredResult is a persisted enhanced workflow outcome.
type StoredResult struct {
	ID        string
	SessionID string
	Payload   []byte
	CreatedAt time.Time
}
