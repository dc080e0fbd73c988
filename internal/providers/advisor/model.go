// Package advisor wraps the language-model backed helpers of a redesign run:
// design intent classification, condition rating and post-generation
// analysis. Every model-backed helper has a deterministic fallback.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// ErrMissingAPIKey indicates that Gemini was selected without credentials.
var ErrMissingAPIKey = errors.New("gemini: api key is required")

// ContentGenerator produces a text answer for a prompt and an optional image.
type ContentGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// GeminiOptions configures the Gemini client.
type GeminiOptions struct {
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// GeminiModel calls Gemini through the genai SDK.
type GeminiModel struct {
	client *genai.Client
	model  string
}

func NewGeminiModel(ctx context.Context, opts GeminiOptions) (*GeminiModel, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

// Model returns the configured model identifier.
func (g *GeminiModel) Model() string {
	return g.model
}

func (g *GeminiModel) GenerateJSON(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if len(image) > 0 {
		if mimeType == "" {
			mimeType = "image/png"
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: image, MIMEType: mimeType}})
	}
	config := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	result, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}, config)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: empty response")
	}
	return result.Text(), nil
}

var _ ContentGenerator = (*GeminiModel)(nil)
