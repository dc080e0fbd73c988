package advise

import (
	_ "embed"
	"fmt"
	"math"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"artistry/internal/domain"
)

//go:embed catalog.yaml
var catalogYAML []byte

type tierEntry struct {
	Material     string   `yaml:"material"`
	Finish       string   `yaml:"finish"`
	Description  string   `yaml:"description"`
	MaterialCost int      `yaml:"material_cost"`
	LaborCost    int      `yaml:"labor_cost"`
	Total        int      `yaml:"total"`
	Brands       []string `yaml:"brands"`
	WhereToBuy   []string `yaml:"where_to_buy"`
}

// Timeline is an indicative duration in days.
type Timeline struct {
	DIY          float64 `yaml:"diy" json:"diy"`
	Professional float64 `yaml:"professional" json:"professional"`
}

type itemEntry struct {
	Timeline Timeline             `yaml:"timeline_days"`
	Tiers    map[string]tierEntry `yaml:"tiers"`
}

// Catalog is a static item → budget tier → material table.
type Catalog struct {
	items   map[string]itemEntry
	guides  map[string]DIYGuide
	printer *message.Printer
}

// LoadCatalog parses a YAML catalog.
func LoadCatalog(raw []byte) (*Catalog, error) {
	items := map[string]itemEntry{}
	if err := yaml.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	normalised := make(map[string]itemEntry, len(items))
	for key, entry := range items {
		for tier, te := range entry.Tiers {
			if strings.TrimSpace(te.Material) == "" || strings.TrimSpace(te.Finish) == "" {
				return nil, fmt.Errorf("catalog %s/%s: material and finish are required", key, tier)
			}
		}
		normalised[domain.CanonicalItem(key)] = entry
	}
	return &Catalog{items: normalised, printer: message.NewPrinter(language.English)}, nil
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := LoadCatalog(catalogYAML)
		if err != nil {
			panic(err)
		}
		if err := c.LoadGuides(diyYAML); err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Items lists the canonical items the catalog knows.
func (c *Catalog) Items() []string {
	out := make([]string, 0, len(c.items))
	for key := range c.items {
		out = append(out, key)
	}
	return out
}

func normaliseTier(tier string) string {
	t := strings.ToLower(strings.TrimSpace(tier))
	if t == "" {
		return string(domain.BudgetMedium)
	}
	return t
}

func (c *Catalog) lookup(item, tier string) (string, tierEntry, bool) {
	key := domain.CanonicalItem(item)
	entry, ok := c.items[key]
	if !ok {
		return key, tierEntry{}, false
	}
	te, ok := entry.Tiers[normaliseTier(tier)]
	return key, te, ok
}

// Resolve returns the material spec for item at tier. Unknown items or tiers
// produce a generic spec; Resolve never fails.
func (c *Catalog) Resolve(item, tier string) domain.MaterialSpec {
	t := normaliseTier(tier)
	key, te, ok := c.lookup(item, t)
	if !ok {
		name := strings.TrimSpace(item)
		if name == "" {
			name = "item"
		}
		if key == "" {
			key = name
		}
		return domain.MaterialSpec{
			Item:          key,
			Material:      "standard " + name,
			Finish:        "standard finish",
			QualityTier:   t,
			EstimatedCost: "unknown",
		}
	}
	return domain.MaterialSpec{
		Item:          key,
		Material:      te.Material,
		Finish:        te.Finish,
		QualityTier:   t,
		EstimatedCost: c.printer.Sprintf("INR %d", te.Total),
		Description:   te.Description,
		Cost: domain.CostBreakdown{
			MaterialCost: te.MaterialCost,
			LaborCost:    te.LaborCost,
			Total:        te.Total,
		},
	}
}

// Savings compares hiring a professional against doing the work yourself.
type Savings struct {
	ProfessionalCost  int     `json:"professional_cost"`
	DIYCost           int     `json:"diy_cost"`
	Savings           int     `json:"savings"`
	SavingsPercentage float64 `json:"savings_percentage"`
}

// DIYSavings reports the labour share of an item's total price. Unknown items
// yield zero savings.
func (c *Catalog) DIYSavings(item, tier string) Savings {
	_, te, ok := c.lookup(item, tier)
	if !ok || te.Total <= 0 {
		return Savings{}
	}
	pct := float64(te.LaborCost) / float64(te.Total) * 100
	return Savings{
		ProfessionalCost:  te.Total,
		DIYCost:           te.MaterialCost,
		Savings:           te.LaborCost,
		SavingsPercentage: math.Round(pct*10) / 10,
	}
}

// DetailedSpec extends a MaterialSpec with buying hints and a DIY guide.
type DetailedSpec struct {
	domain.MaterialSpec
	Brands     []string  `json:"brands,omitempty"`
	WhereToBuy []string  `json:"where_to_buy,omitempty"`
	DIY        Savings   `json:"diy_savings"`
	Timeline   *Timeline `json:"timeline_days,omitempty"`
	Guide      DIYGuide  `json:"diy_guide"`
}

// Refinement is the result of RefineBudget.
type Refinement struct {
	Budget        string                         `json:"budget"`
	Materials     map[string]domain.MaterialSpec `json:"materials"`
	DetailedSpecs []DetailedSpec                 `json:"detailed_specs"`
	TotalCost     int                            `json:"total_cost"`
}

// RefineBudget resolves every item at tier.
func (c *Catalog) RefineBudget(items []string, tier string) Refinement {
	out := Refinement{
		Budget:        normaliseTier(tier),
		Materials:     make(map[string]domain.MaterialSpec, len(items)),
		DetailedSpecs: make([]DetailedSpec, 0, len(items)),
	}
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		spec := c.Resolve(item, tier)
		if _, dup := out.Materials[spec.Item]; dup {
			continue
		}
		out.Materials[spec.Item] = spec
		detail := DetailedSpec{MaterialSpec: spec, DIY: c.DIYSavings(item, tier), Guide: c.Guide(item)}
		if key, te, ok := c.lookup(item, tier); ok {
			detail.Brands = te.Brands
			detail.WhereToBuy = te.WhereToBuy
			tl := c.items[key].Timeline
			detail.Timeline = &tl
		}
		out.DetailedSpecs = append(out.DetailedSpecs, detail)
		out.TotalCost += spec.Cost.Total
	}
	return out
}
