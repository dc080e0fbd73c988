package jsoncfg

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GenerationOptions are the diffusion knobs accepted on generation requests.
type GenerationOptions struct {
	GuidanceScale     float64 `json:"guidance_scale"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	NegativePrompt    string  `json:"negative_prompt"`
}

const (
	// DefaultGuidanceScale is applied when the request omits guidance_scale.
	DefaultGuidanceScale = 7.5
	// DefaultInferenceSteps is applied when the request omits num_inference_steps.
	DefaultInferenceSteps = 30
	// MaxInferenceSteps bounds the work a single pass may request.
	MaxInferenceSteps = 150
	// MaxGuidanceScale bounds classifier-free guidance.
	MaxGuidanceScale = 30.0
	// DefaultNegativePrompt keeps generations clean when nothing else is given.
	DefaultNegativePrompt = "blurry, distorted, low quality, deformed, watermark, text"
)

// Normalize fills defaults and clamps the step count.
func (o *GenerationOptions) Normalize() {
	if o == nil {
		return
	}
	if o.GuidanceScale <= 0 {
		o.GuidanceScale = DefaultGuidanceScale
	}
	if o.NumInferenceSteps <= 0 {
		o.NumInferenceSteps = DefaultInferenceSteps
	}
	if o.NumInferenceSteps > MaxInferenceSteps {
		o.NumInferenceSteps = MaxInferenceSteps
	}
	if strings.TrimSpace(o.NegativePrompt) == "" {
		o.NegativePrompt = DefaultNegativePrompt
	}
}

// Validate checks values after Normalize.
func (o GenerationOptions) Validate() error {
	if o.GuidanceScale <= 0 || o.GuidanceScale > MaxGuidanceScale {
		return fmt.Errorf("guidance_scale must be in (0, %.0f]", MaxGuidanceScale)
	}
	if o.NumInferenceSteps < 1 || o.NumInferenceSteps > MaxInferenceSteps {
		return fmt.Errorf("num_inference_steps must be between 1 and %d", MaxInferenceSteps)
	}
	return nil
}

// ValidateStrength checks a denoising strength.
func ValidateStrength(strength float64) error {
	if strength < 0 || strength > 1 {
		return fmt.Errorf("strength must be between 0 and 1")
	}
	return nil
}

func MustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("json marshal: %w", err))
	}
	return b
}
