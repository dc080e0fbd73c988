package imagegen

import (
	"context"
	"fmt"
	"time"

	"artistry/internal/domain"
)

// Stage settings for the global two-pass refinement.
const (
	structureLockStrength = 0.30
	structureLockWeight   = 0.90
	styleStrength         = 0.60
	styleWeight           = 0.35
	singlePassWeight      = 0.8
)

// TwoPass restyles the whole image in two structure-conditioned passes: a
// low-strength structure lock followed by a stronger style pass on its output.
type TwoPass struct {
	gen StructureGenerator
	cfg passConfig
}

func NewTwoPass(gen StructureGenerator, opts ...Option) *TwoPass {
	return &TwoPass{gen: gen, cfg: newPassConfig(opts)}
}

func (t *TwoPass) Run(ctx context.Context, base []byte, prompt string, opts RunOptions) (*domain.GenerationResult, error) {
	stages := []struct {
		name     string
		strength float64
		weight   float64
	}{
		{"structure_lock", structureLockStrength, structureLockWeight},
		{"style", styleStrength, styleWeight},
	}
	result := &domain.GenerationResult{Strategy: domain.StrategyTwoPass, PromptUsed: prompt}
	working, err := PrepareCanvas(base)
	if err != nil {
		return nil, domain.NewValidationError("image", err.Error())
	}
	control, err := EdgeMapPNG(working)
	if err != nil {
		return nil, err
	}
	for i, st := range stages {
		out, err := structurePass(ctx, t.gen, t.cfg, working, control, prompt, st.strength, st.weight, opts, i)
		if err != nil {
			return nil, fmt.Errorf("pass %d (%s): %w", i+1, st.name, err)
		}
		working = out
		result.Passes = append(result.Passes, out)
	}
	result.Image = working
	result.NumPasses = len(result.Passes)
	return result, nil
}

func structurePass(ctx context.Context, gen StructureGenerator, cfg passConfig, image, control []byte, prompt string, strength, weight float64, opts RunOptions, index int) ([]byte, error) {
	if gen == nil {
		return nil, fmt.Errorf("structure generator: %w", domain.ErrMissingDependency)
	}
	opts = opts.normalised()
	passCtx, cancel := cfg.passContext(ctx)
	defer cancel()
	started := time.Now()
	out, err := gen.Structure(passCtx, StructureRequest{
		Image:           image,
		Control:         control,
		Prompt:          prompt,
		NegativePrompt:  opts.NegativePrompt,
		Strength:        strength,
		StructureWeight: weight,
		GuidanceScale:   opts.GuidanceScale,
		Steps:           opts.NumInferenceSteps,
		Seed:            deterministicSeed(opts.RunID, "structure", index),
	})
	if err != nil {
		cfg.record(passFailed)
		return nil, err
	}
	out, err = PrepareCanvas(out)
	if err != nil {
		cfg.record(passFailed)
		return nil, &domain.UpstreamError{Service: "generate", Err: err}
	}
	cfg.record(passOK)
	cfg.logger.Debug().Str("run_id", opts.RunID).Int("pass", index+1).Dur("took", time.Since(started)).Msg("structure pass done")
	return out, nil
}
