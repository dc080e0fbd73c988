package advisor

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"artistry/internal/infra"
)

// Intent is the design direction read from a free-text prompt.
type Intent struct {
	Style    string   `json:"style"`
	Mood     string   `json:"mood,omitempty"`
	Keywords []string `json:"keywords"`
	Provider string   `json:"provider"`
}

// IntentClassifier reads design intent from user text.
type IntentClassifier interface {
	Classify(ctx context.Context, text string) (Intent, error)
}

// DefaultStyle is reported when no style keyword matches.
const DefaultStyle = "contemporary"

var styleKeywords = map[string][]string{
	"modern":       {"modern", "sleek", "clean lines"},
	"minimalist":   {"minimal", "minimalist", "simple", "clutter-free"},
	"scandinavian": {"scandinavian", "nordic", "scandi", "hygge"},
	"industrial":   {"industrial", "loft", "exposed brick", "metal"},
	"bohemian":     {"boho", "bohemian", "eclectic"},
	"traditional":  {"traditional", "classic", "ethnic", "heritage"},
	"luxury":       {"luxury", "luxurious", "opulent", "glam"},
	"rustic":       {"rustic", "farmhouse", "cottage"},
	"coastal":      {"coastal", "beach", "nautical"},
	"mid-century":  {"mid-century", "retro", "vintage"},
}

var moodKeywords = map[string][]string{
	"cozy":   {"cozy", "cosy", "warm", "snug"},
	"bright": {"bright", "airy", "light-filled", "sunny"},
	"calm":   {"calm", "serene", "relaxing", "peaceful"},
	"bold":   {"bold", "vibrant", "colorful", "dramatic"},
}

// KeywordClassifier matches prompt words against a fixed vocabulary.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (k *KeywordClassifier) Classify(ctx context.Context, text string) (Intent, error) {
	lower := strings.ToLower(text)
	style, styleHits := bestMatch(lower, styleKeywords)
	mood, moodHits := bestMatch(lower, moodKeywords)
	keywords := append(styleHits, moodHits...)
	sort.Strings(keywords)
	if keywords == nil {
		keywords = []string{}
	}
	return Intent{
		Style:    coalesce(style, DefaultStyle),
		Mood:     mood,
		Keywords: keywords,
		Provider: keywordProviderName,
	}, nil
}

func bestMatch(text string, table map[string][]string) (string, []string) {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	best, bestCount := "", 0
	var hits []string
	for _, name := range names {
		count := 0
		for _, kw := range table[name] {
			if strings.Contains(text, kw) {
				count++
				hits = append(hits, kw)
			}
		}
		if count > bestCount {
			best, bestCount = name, count
		}
	}
	return best, hits
}

type intentPayload struct {
	Style    string   `json:"style"`
	Mood     string   `json:"mood"`
	Keywords []string `json:"keywords"`
}

// GeminiClassifier asks Gemini for the intent and falls back to keywords.
type GeminiClassifier struct {
	model    ContentGenerator
	fallback IntentClassifier
	logger   *infra.Logger
}

func NewGeminiClassifier(model ContentGenerator, fallback IntentClassifier, logger *infra.Logger) *GeminiClassifier {
	if fallback == nil {
		fallback = NewKeywordClassifier()
	}
	if logger == nil {
		discard := infra.Logger(zerolog.New(io.Discard))
		logger = &discard
	}
	return &GeminiClassifier{model: model, fallback: fallback, logger: logger}
}

func (g *GeminiClassifier) Classify(ctx context.Context, text string) (Intent, error) {
	if strings.TrimSpace(text) == "" || g.model == nil {
		return g.fallback.Classify(ctx, text)
	}
	raw, err := g.model.GenerateJSON(ctx, buildIntentPrompt(text), nil, "")
	if err != nil {
		g.logger.Warn().Err(err).Msg("intent: gemini failed, using keywords")
		return g.fallback.Classify(ctx, text)
	}
	parsed, err := parseModelPayload[intentPayload](raw)
	if err != nil || strings.TrimSpace(parsed.Style) == "" {
		g.logger.Warn().Err(err).Msg("intent: unusable gemini answer, using keywords")
		return g.fallback.Classify(ctx, text)
	}
	keywords := parsed.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return Intent{
		Style:    strings.ToLower(strings.TrimSpace(parsed.Style)),
		Mood:     strings.ToLower(strings.TrimSpace(parsed.Mood)),
		Keywords: keywords,
		Provider: geminiProviderName,
	}, nil
}

var (
	_ IntentClassifier = (*KeywordClassifier)(nil)
	_ IntentClassifier = (*GeminiClassifier)(nil)
)
