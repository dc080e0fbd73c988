package advisor

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

var analysisPrompt = dedent.Dedent(`
	You are an interior design assistant. Look at the redesigned room in the
	image and describe the visible furnishings so a shopper can find them.

	Focus on these items: %s.

	Respond ONLY with JSON matching this schema:
	{"overall_style": string, "items": [{"item_type": string, "style": string, "material": string, "color": string}]}
`)

var conditionPrompt = dedent.Dedent(`
	You are inspecting a photo of a room before a renovation. Rate the physical
	condition of each listed item as exactly one of "old", "acceptable" or "new".
	Old means visibly worn, stained, damaged or dated.

	Items: %s.

	Respond ONLY with JSON matching this schema:
	{"conditions": [{"item": string, "condition": "old"|"acceptable"|"new", "reasoning": string, "confidence": number}]}
`)

var intentPrompt = dedent.Dedent(`
	Classify the interior design intent of this request: %q

	Respond ONLY with JSON matching this schema:
	{"style": string, "mood": string, "keywords": [string]}
	Use a short style name such as "modern", "scandinavian", "industrial" or "bohemian".
`)

func buildAnalysisPrompt(items []string) string {
	list := "all visible furniture"
	if len(items) > 0 {
		list = strings.Join(items, ", ")
	}
	return strings.TrimSpace(fmt.Sprintf(analysisPrompt, list))
}

func buildConditionPrompt(items []string) string {
	return strings.TrimSpace(fmt.Sprintf(conditionPrompt, strings.Join(items, ", ")))
}

func buildIntentPrompt(text string) string {
	return strings.TrimSpace(fmt.Sprintf(intentPrompt, text))
}
