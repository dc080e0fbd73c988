package jsoncfg

import "testing"

func TestGenerationOptionsNormalizeDefaults(t *testing.T) {
	o := &GenerationOptions{}
	o.Normalize()

	if o.GuidanceScale != DefaultGuidanceScale {
		t.Fatalf("GuidanceScale = %v, want %v", o.GuidanceScale, DefaultGuidanceScale)
	}
	if o.NumInferenceSteps != DefaultInferenceSteps {
		t.Fatalf("NumInferenceSteps = %d, want %d", o.NumInferenceSteps, DefaultInferenceSteps)
	}
	if o.NegativePrompt != DefaultNegativePrompt {
		t.Fatalf("NegativePrompt = %q, want default", o.NegativePrompt)
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate after Normalize: %v", err)
	}
}

func TestGenerationOptionsNormalizeClampsSteps(t *testing.T) {
	o := &GenerationOptions{GuidanceScale: 9, NumInferenceSteps: 500}
	o.Normalize()

	if o.NumInferenceSteps != MaxInferenceSteps {
		t.Fatalf("NumInferenceSteps clamp = %d, want %d", o.NumInferenceSteps, MaxInferenceSteps)
	}
	if o.GuidanceScale != 9 {
		t.Fatalf("GuidanceScale should keep explicit value, got %v", o.GuidanceScale)
	}
}

func TestGenerationOptionsValidateRejectsGuidance(t *testing.T) {
	o := GenerationOptions{GuidanceScale: 45, NumInferenceSteps: 20}
	if err := o.Validate(); err == nil {
		t.Fatal("expected guidance_scale error")
	}
}

func TestValidateStrength(t *testing.T) {
	for _, s := range []float64{0, 0.45, 1} {
		if err := ValidateStrength(s); err != nil {
			t.Fatalf("ValidateStrength(%v) = %v", s, err)
		}
	}
	for _, s := range []float64{-0.1, 1.2} {
		if err := ValidateStrength(s); err == nil {
			t.Fatalf("ValidateStrength(%v) expected error", s)
		}
	}
}
