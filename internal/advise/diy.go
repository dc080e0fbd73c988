package advise

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"artistry/internal/domain"
)

//go:embed diy.yaml
var diyYAML []byte

// Tool is something a DIY guide needs on hand.
type Tool struct {
	Name     string `yaml:"name" json:"name"`
	CostINR  int    `yaml:"cost_inr" json:"cost_inr"`
	Where    string `yaml:"where" json:"where,omitempty"`
	Optional bool   `yaml:"optional" json:"optional,omitempty"`
}

// GuideStep is one numbered instruction.
type GuideStep struct {
	Step            int      `yaml:"-" json:"step"`
	Title           string   `yaml:"title" json:"title"`
	Description     string   `yaml:"description" json:"description,omitempty"`
	DurationMinutes int      `yaml:"duration_minutes" json:"duration_minutes,omitempty"`
	Tips            []string `yaml:"tips" json:"tips,omitempty"`
	VideoURL        string   `yaml:"video_url" json:"video_url,omitempty"`
	SafetyWarning   string   `yaml:"safety_warning" json:"safety_warning,omitempty"`
	Note            string   `yaml:"note" json:"note,omitempty"`
}

// ChecklistItem is a material to buy before starting.
type ChecklistItem struct {
	Item        string `yaml:"item" json:"item"`
	BudgetRange string `yaml:"budget_range" json:"budget_range"`
	Where       string `yaml:"where" json:"where,omitempty"`
}

// DIYGuide is a do-it-yourself walkthrough for one item. Detailed is false
// for the generic guide returned when the item has none.
type DIYGuide struct {
	Item           string          `yaml:"-" json:"item"`
	Detailed       bool            `yaml:"-" json:"detailed"`
	Difficulty     string          `yaml:"difficulty" json:"difficulty"`
	EstimatedHours float64         `yaml:"estimated_time_hours" json:"estimated_time_hours"`
	SkillLevel     string          `yaml:"skill_level" json:"skill_level,omitempty"`
	Tools          []Tool          `yaml:"tools_needed" json:"tools_needed,omitempty"`
	Steps          []GuideStep     `yaml:"steps" json:"steps,omitempty"`
	Materials      []ChecklistItem `yaml:"materials_checklist" json:"materials_checklist,omitempty"`
	SafetyTips     []string        `yaml:"safety_tips" json:"safety_tips,omitempty"`
	CommonMistakes []string        `yaml:"common_mistakes" json:"common_mistakes,omitempty"`
	ProTips        []string        `yaml:"pro_tips" json:"pro_tips,omitempty"`
	Note           string          `yaml:"-" json:"note,omitempty"`
	Recommendation string          `yaml:"-" json:"recommendation,omitempty"`
}

// ToolCost sums the non-optional tools.
func (g DIYGuide) ToolCost() int {
	total := 0
	for _, t := range g.Tools {
		if !t.Optional {
			total += t.CostINR
		}
	}
	return total
}

// LoadGuides parses a YAML guide table and attaches it to the catalog.
func (c *Catalog) LoadGuides(raw []byte) error {
	parsed := map[string]DIYGuide{}
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parse diy guides: %w", err)
	}
	guides := make(map[string]DIYGuide, len(parsed))
	for key, g := range parsed {
		if len(g.Steps) == 0 {
			return fmt.Errorf("diy guide %s: at least one step is required", key)
		}
		item := domain.CanonicalItem(key)
		g.Item = item
		g.Detailed = true
		for i := range g.Steps {
			g.Steps[i].Step = i + 1
		}
		guides[item] = g
	}
	c.guides = guides
	return nil
}

// Guide returns the DIY walkthrough for item, or a generic one recommending
// professional installation.
func (c *Catalog) Guide(item string) DIYGuide {
	key := domain.CanonicalItem(item)
	if g, ok := c.guides[key]; ok {
		return g
	}
	name := strings.TrimSpace(item)
	if name == "" {
		name = "this item"
	}
	return DIYGuide{
		Item:           key,
		Difficulty:     "intermediate",
		EstimatedHours: 2,
		Note:           fmt.Sprintf("Detailed instructions for %s not available. Consult product manual or hire professional.", name),
		Recommendation: "Professional installation recommended",
	}
}
