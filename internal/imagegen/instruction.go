package imagegen

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"artistry/internal/domain"
)

var upperCaser = cases.Upper(language.English)

// sentenceCase upper-cases the first rune only.
func sentenceCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return upperCaser.String(s[:size]) + s[size:]
}

var budgetDescriptors = map[domain.BudgetTier]string{
	domain.BudgetLow:    "budget-friendly",
	domain.BudgetMedium: "mid-range",
	domain.BudgetHigh:   "premium luxury",
}

// BudgetDescriptor returns the prompt wording for a budget tier.
func BudgetDescriptor(tier domain.BudgetTier) string {
	if d, ok := budgetDescriptors[tier]; ok {
		return d
	}
	return budgetDescriptors[domain.BudgetMedium]
}

var (
	maskedStrength = map[domain.GenerationMode]float64{
		domain.ModeSubtle:   0.45,
		domain.ModeBalanced: 0.60,
		domain.ModeBold:     0.75,
	}
	globalStrength = map[domain.GenerationMode]float64{
		domain.ModeSubtle:   0.30,
		domain.ModeBalanced: 0.55,
		domain.ModeBold:     0.70,
	}
)

// MaskedStrength is the per-object inpainting strength for mode.
func MaskedStrength(mode domain.GenerationMode) float64 {
	if s, ok := maskedStrength[mode]; ok {
		return s
	}
	return maskedStrength[domain.ModeBalanced]
}

// GlobalStrength is the whole-image strength for mode.
func GlobalStrength(mode domain.GenerationMode) float64 {
	if s, ok := globalStrength[mode]; ok {
		return s
	}
	return globalStrength[domain.ModeBalanced]
}

// Painting order: room shell first, lighting last.
const (
	layerShell = iota
	layerLargeFurniture
	layerSmallFurniture
	layerTextiles
	layerLighting
)

var itemLayers = map[string]int{
	"walls":       layerShell,
	"flooring":    layerShell,
	"ceiling":     layerShell,
	"bed":         layerLargeFurniture,
	"sofa":        layerLargeFurniture,
	"wardrobe":    layerLargeFurniture,
	"table":       layerLargeFurniture,
	"desk":        layerLargeFurniture,
	"cabinet":     layerLargeFurniture,
	"bookshelf":   layerLargeFurniture,
	"dresser":     layerLargeFurniture,
	"chair":       layerSmallFurniture,
	"nightstand":  layerSmallFurniture,
	"stool":       layerSmallFurniture,
	"ottoman":     layerSmallFurniture,
	"side table":  layerSmallFurniture,
	"shelf":       layerSmallFurniture,
	"curtains":    layerTextiles,
	"rug":         layerTextiles,
	"cushion":     layerTextiles,
	"pillow":      layerTextiles,
	"bedding":     layerTextiles,
	"plant":       layerTextiles,
	"mirror":      layerTextiles,
	"artwork":     layerTextiles,
	"lighting":    layerLighting,
	"chandelier":  layerLighting,
	"ceiling fan": layerLighting,
}

func layerOf(item string) int {
	if l, ok := itemLayers[domain.CanonicalItem(item)]; ok {
		return l
	}
	return layerTextiles
}

// OrderByLayer sorts steps so that surfaces are painted before furniture and
// lighting comes last. Items on the same layer keep their input order.
func OrderByLayer(steps []domain.InpaintingStep) []domain.InpaintingStep {
	out := append([]domain.InpaintingStep(nil), steps...)
	sort.SliceStable(out, func(i, j int) bool {
		return layerOf(out[i].Object) < layerOf(out[j].Object)
	})
	return out
}

// BuildStepPrompt assembles the prompt for one masked object.
func BuildStepPrompt(spec domain.MaterialSpec, tier domain.BudgetTier, basePrompt, style string) string {
	parts := []string{}
	item := strings.TrimSpace(spec.Item)
	if material := strings.TrimSpace(spec.Material); material != "" {
		parts = append(parts, fmt.Sprintf("%s %s made of %s", BudgetDescriptor(tier), item, material))
	} else {
		parts = append(parts, fmt.Sprintf("%s %s", BudgetDescriptor(tier), item))
	}
	if finish := strings.TrimSpace(spec.Finish); finish != "" {
		parts[0] += ", " + finish + " finish"
	}
	parts[0] += "."
	if desc := strings.TrimSpace(spec.Description); desc != "" {
		parts = append(parts, desc+".")
	}
	if base := strings.TrimSpace(basePrompt); base != "" {
		parts = append(parts, base+".")
	}
	if style = strings.TrimSpace(style); style != "" {
		parts = append(parts, style+" style.")
	}
	parts = append(parts, "Photorealistic, natural lighting, matching perspective.")
	return strings.Join(parts, " ")
}

// BuildGlobalPrompt assembles the prompt for a whole-image pass.
func BuildGlobalPrompt(basePrompt string, tier domain.BudgetTier, replace []string, materials map[string]domain.MaterialSpec, style string) string {
	parts := []string{}
	if base := strings.TrimSpace(basePrompt); base != "" {
		parts = append(parts, base+".")
	} else {
		parts = append(parts, "A redesigned interior of the same room.")
	}
	parts = append(parts, fmt.Sprintf("%s interior.", sentenceCase(BudgetDescriptor(tier))))
	for _, item := range replace {
		key := domain.CanonicalItem(item)
		spec, ok := materials[key]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("New %s in %s with %s finish.", key, spec.Material, spec.Finish))
	}
	if style = strings.TrimSpace(style); style != "" {
		parts = append(parts, style+" style.")
	}
	parts = append(parts, "Keep the room layout, walls and camera angle unchanged.")
	return strings.Join(parts, " ")
}
