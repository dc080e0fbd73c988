package domain

import (
	"fmt"
	"strings"
)

// BudgetTier selects the material quality band.
type BudgetTier string

const (
	BudgetLow    BudgetTier = "low"
	BudgetMedium BudgetTier = "medium"
	BudgetHigh   BudgetTier = "high"
)

// ParseBudgetTier normalises user input. Empty input yields BudgetMedium.
func ParseBudgetTier(raw string) (BudgetTier, error) {
	switch BudgetTier(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return BudgetMedium, nil
	case BudgetLow:
		return BudgetLow, nil
	case BudgetMedium:
		return BudgetMedium, nil
	case BudgetHigh:
		return BudgetHigh, nil
	}
	return "", NewValidationError("budget", "must be one of low, medium, high")
}

// Condition is the rated wear of a visible item.
type Condition string

const (
	ConditionOld        Condition = "old"
	ConditionAcceptable Condition = "acceptable"
	ConditionNew        Condition = "new"
)

// ParseCondition maps a rating and its common synonyms onto the three known
// values. Empty input is acceptable; anything else unrecognised is an error
// the caller classifies (validation for requests, upstream for collaborators).
func ParseCondition(raw string) (Condition, error) {
	switch Condition(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ConditionAcceptable, "fair", "ok":
		return ConditionAcceptable, nil
	case ConditionOld, "worn", "damaged", "poor":
		return ConditionOld, nil
	case ConditionNew, "excellent", "like new":
		return ConditionNew, nil
	}
	return "", fmt.Errorf("unknown condition %q, want old, acceptable or new", strings.TrimSpace(raw))
}

// Decision is the outcome of upgrade reasoning for one item.
type Decision string

const (
	DecisionReplace Decision = "replace"
	DecisionKeep    Decision = "keep"
)

// GenerationMode controls how aggressively generation departs from the input.
type GenerationMode string

const (
	ModeSubtle   GenerationMode = "subtle"
	ModeBalanced GenerationMode = "balanced"
	ModeBold     GenerationMode = "bold"
)

// ParseGenerationMode defaults to balanced on empty input.
func ParseGenerationMode(raw string) (GenerationMode, error) {
	switch GenerationMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return ModeBalanced, nil
	case ModeSubtle:
		return ModeSubtle, nil
	case ModeBalanced:
		return ModeBalanced, nil
	case ModeBold:
		return ModeBold, nil
	}
	return "", NewValidationError("mode", "must be one of subtle, balanced, bold")
}

var itemAliases = map[string]string{
	"couch":        "sofa",
	"dining table": "table",
	"light":        "lighting",
	"lamp":         "lighting",
	"carpet":       "rug",
	"curtain":      "curtains",
	"wall":         "walls",
	"paint":        "walls",
	"wall paint":   "walls",
	"floor":        "flooring",
}

// CanonicalItem lowercases and trims a label and folds known aliases so that
// detector labels, user selections and catalog keys line up.
func CanonicalItem(label string) string {
	key := strings.Join(strings.Fields(strings.ToLower(label)), " ")
	if alias, ok := itemAliases[key]; ok {
		return alias
	}
	return key
}

// Box is a pixel-space bounding box.
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// DetectedObject is one detector hit.
type DetectedObject struct {
	Label string  `json:"label"`
	Box   Box     `json:"box"`
	Score float64 `json:"score"`
}

// ObjectMask is a segmentation mask encoded as PNG.
type ObjectMask struct {
	Label string `json:"label"`
	Box   Box    `json:"box"`
	PNG   []byte `json:"-"`
}

// ConditionRating is the condition collaborator's verdict on one item.
type ConditionRating struct {
	Item       string    `json:"item"`
	Condition  Condition `json:"condition"`
	Reasoning  string    `json:"reasoning"`
	Confidence float64   `json:"confidence"`
}

// UpgradeDecision explains whether one item is replaced or kept.
type UpgradeDecision struct {
	Item      string   `json:"item"`
	Decision  Decision `json:"decision"`
	Priority  int      `json:"priority"`
	Reasoning string   `json:"reasoning"`
}

// CostBreakdown is an indicative price in INR.
type CostBreakdown struct {
	MaterialCost int `json:"material_cost" yaml:"material_cost"`
	LaborCost    int `json:"labor_cost" yaml:"labor_cost"`
	Total        int `json:"total" yaml:"total"`
}

// MaterialSpec describes the material chosen for an item at a budget tier.
type MaterialSpec struct {
	Item          string        `json:"item"`
	Material      string        `json:"material"`
	Finish        string        `json:"finish"`
	QualityTier   string        `json:"quality_tier"`
	EstimatedCost string        `json:"estimated_cost"`
	Description   string        `json:"description,omitempty"`
	Cost          CostBreakdown `json:"cost"`
}

// InpaintingStep is one masked generation pass.
type InpaintingStep struct {
	Object   string  `json:"object"`
	Prompt   string  `json:"prompt"`
	Strength float64 `json:"strength"`
}

// ShoppingItem is post-generation metadata for one visible item.
type ShoppingItem struct {
	ItemType string `json:"item_type"`
	Style    string `json:"style"`
	Material string `json:"material"`
	Color    string `json:"color"`
}

// Generation strategies reported with every generation result.
const (
	StrategyMultiPass           = "multi_pass"
	StrategyStructurePreserving = "structure_preserving"
	StrategyTwoPass             = "two_pass"
)

// GenerationResult is the outcome of one generation dispatch.
type GenerationResult struct {
	Image      []byte
	Passes     [][]byte
	NumPasses  int
	Skipped    []string
	Strategy   string
	PromptUsed string
}

// WorkflowResult is returned by the enhanced workflow and stored in results.
type WorkflowResult struct {
	ResultID          string                     `json:"result_id,omitempty"`
	SessionID         string                     `json:"session_id,omitempty"`
	GeneratedImage    string                     `json:"generated_image"`
	ObjectsDetected   []DetectedObject           `json:"objects_detected"`
	ConditionAnalysis map[string]ConditionRating `json:"condition_analysis"`
	ItemsReplaced     []string                   `json:"items_replaced"`
	ItemsKept         []string                   `json:"items_kept"`
	BudgetApplied     BudgetTier                 `json:"budget_applied"`
	MaterialsUsed     map[string]MaterialSpec    `json:"materials_used"`
	ShoppingMetadata  []ShoppingItem             `json:"shopping_metadata"`
	OverallStyle      string                     `json:"overall_style"`
	Decisions         []UpgradeDecision          `json:"decisions"`
	Strategy          string                     `json:"strategy"`
	NumPasses         int                        `json:"num_passes"`
	PassKeys          []string                   `json:"pass_keys,omitempty"`
}
