package advisor

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"artistry/internal/domain"
	"artistry/internal/infra"
)

// Analysis describes a generated room for shopping.
type Analysis struct {
	OverallStyle   string                `json:"overall_style"`
	Items          []domain.ShoppingItem `json:"items"`
	Provider       string                `json:"provider"`
	FallbackReason string                `json:"fallback_reason,omitempty"`
}

// AnalyzeRequest is the input of post-generation analysis.
type AnalyzeRequest struct {
	Image     []byte
	Items     []string
	Materials map[string]domain.MaterialSpec
	Style     string
}

// Analyzer extracts shopping metadata from a generated image.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error)
}

// StaticAnalyzer derives metadata from the materials that were requested.
type StaticAnalyzer struct{}

func NewStaticAnalyzer() *StaticAnalyzer {
	return &StaticAnalyzer{}
}

func (s *StaticAnalyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	style := coalesce(req.Style, "contemporary")
	items := append([]string(nil), req.Items...)
	if len(items) == 0 {
		for item := range req.Materials {
			items = append(items, item)
		}
		sort.Strings(items)
	}
	out := &Analysis{OverallStyle: style, Items: []domain.ShoppingItem{}, Provider: staticProviderName}
	for _, item := range items {
		key := domain.CanonicalItem(item)
		material := "unspecified"
		if spec, ok := req.Materials[key]; ok {
			material = coalesce(spec.Material, material)
		}
		out.Items = append(out.Items, domain.ShoppingItem{
			ItemType: key,
			Style:    style,
			Material: material,
			Color:    "neutral",
		})
	}
	return out, nil
}

type analysisPayload struct {
	OverallStyle string `json:"overall_style"`
	Items        []struct {
		ItemType string `json:"item_type"`
		Style    string `json:"style"`
		Material string `json:"material"`
		Color    string `json:"color"`
	} `json:"items"`
}

// GeminiAnalyzerOptions configures the Gemini analyzer.
type GeminiAnalyzerOptions struct {
	Model      ContentGenerator
	Fallback   Analyzer
	Logger     *infra.Logger
	OnFallback func(reason string, err error)
}

// GeminiAnalyzer asks Gemini to describe the generated image and falls back
// to another analyzer when the call or its answer is unusable.
type GeminiAnalyzer struct {
	model      ContentGenerator
	fallback   Analyzer
	logger     *infra.Logger
	onFallback func(reason string, err error)
}

func NewGeminiAnalyzer(opts GeminiAnalyzerOptions) *GeminiAnalyzer {
	fallback := opts.Fallback
	if fallback == nil {
		fallback = NewStaticAnalyzer()
	}
	logger := opts.Logger
	if logger == nil {
		discard := infra.Logger(zerolog.New(io.Discard))
		logger = &discard
	}
	return &GeminiAnalyzer{model: opts.Model, fallback: fallback, logger: logger, onFallback: opts.OnFallback}
}

func (g *GeminiAnalyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	if g.model == nil {
		return g.useFallback(ctx, req, "missing_model", ErrMissingAPIKey)
	}
	text, err := g.model.GenerateJSON(ctx, buildAnalysisPrompt(req.Items), req.Image, "image/png")
	if err != nil {
		return g.useFallback(ctx, req, "model_request", err)
	}
	parsed, err := parseModelPayload[analysisPayload](text)
	if err != nil {
		return g.useFallback(ctx, req, "parse_response", err)
	}
	out := &Analysis{
		OverallStyle: coalesce(parsed.OverallStyle, req.Style, "contemporary"),
		Items:        []domain.ShoppingItem{},
		Provider:     geminiProviderName,
	}
	for _, it := range parsed.Items {
		itemType := strings.TrimSpace(it.ItemType)
		if itemType == "" {
			continue
		}
		out.Items = append(out.Items, domain.ShoppingItem{
			ItemType: domain.CanonicalItem(itemType),
			Style:    coalesce(it.Style, out.OverallStyle),
			Material: coalesce(it.Material, "unspecified"),
			Color:    coalesce(it.Color, "unspecified"),
		})
	}
	if len(out.Items) == 0 {
		return g.useFallback(ctx, req, "empty_items", nil)
	}
	return out, nil
}

func (g *GeminiAnalyzer) useFallback(ctx context.Context, req AnalyzeRequest, reason string, cause error) (*Analysis, error) {
	g.logger.Warn().Err(cause).Str("reason", reason).Msg("analyzer: falling back")
	if g.onFallback != nil {
		g.onFallback(reason, cause)
	}
	res, err := g.fallback.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	res.FallbackReason = reason
	return res, nil
}

var (
	_ Analyzer = (*StaticAnalyzer)(nil)
	_ Analyzer = (*GeminiAnalyzer)(nil)
)
