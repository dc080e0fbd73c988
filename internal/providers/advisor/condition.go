package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"artistry/internal/domain"
)

// GeminiConditionRater rates item condition with Gemini vision.
type GeminiConditionRater struct {
	model ContentGenerator
}

func NewGeminiConditionRater(model ContentGenerator) *GeminiConditionRater {
	return &GeminiConditionRater{model: model}
}

type conditionPayload struct {
	Conditions []struct {
		Item       string  `json:"item"`
		Condition  string  `json:"condition"`
		Reasoning  string  `json:"reasoning"`
		Confidence float64 `json:"confidence"`
	} `json:"conditions"`
}

// RateConditions returns one rating per item Gemini answered for. Failures
// are reported as upstream errors; there is no fallback.
func (g *GeminiConditionRater) RateConditions(ctx context.Context, image []byte, items []string) ([]domain.ConditionRating, error) {
	if g.model == nil {
		return nil, &domain.UpstreamError{Service: "condition", Err: ErrMissingAPIKey}
	}
	if len(items) == 0 {
		return []domain.ConditionRating{}, nil
	}
	text, err := g.model.GenerateJSON(ctx, buildConditionPrompt(items), image, "image/png")
	if err != nil {
		return nil, &domain.UpstreamError{Service: "condition", Err: err}
	}
	parsed, err := parseModelPayload[conditionPayload](text)
	if err != nil {
		return nil, &domain.UpstreamError{Service: "condition", Err: err}
	}
	if len(parsed.Conditions) == 0 {
		return nil, &domain.UpstreamError{Service: "condition", Err: errors.New("no ratings in response")}
	}
	out := make([]domain.ConditionRating, 0, len(parsed.Conditions))
	for _, c := range parsed.Conditions {
		if strings.TrimSpace(c.Item) == "" {
			continue
		}
		conf := c.Confidence
		if conf < 0 {
			conf = 0
		} else if conf > 1 {
			conf = 1
		}
		cond, err := domain.ParseCondition(c.Condition)
		if err != nil {
			return nil, &domain.UpstreamError{Service: "condition", Err: fmt.Errorf("item %s: %w", c.Item, err)}
		}
		out = append(out, domain.ConditionRating{
			Item:       domain.CanonicalItem(c.Item),
			Condition:  cond,
			Reasoning:  strings.TrimSpace(c.Reasoning),
			Confidence: conf,
		})
	}
	return out, nil
}
