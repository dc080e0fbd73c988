package imagegen

import (
	"context"
	"fmt"
	"strings"

	"artistry/internal/domain"
)

// BudgetRequest is the input of budget-aware generation.
type BudgetRequest struct {
	Image        []byte
	BasePrompt   string
	Materials    map[string]domain.MaterialSpec
	ReplaceItems []string
	Budget       domain.BudgetTier
	Masks        MaskSet
	Mode         domain.GenerationMode
	Refine       bool
	Style        string
	Options      RunOptions
}

// Dispatcher picks a generation strategy for a budget-aware request and runs it.
type Dispatcher struct {
	multi     *MultiPass
	twoPass   *TwoPass
	structure StructureGenerator
	cfg       passConfig
}

func NewDispatcher(gen Generator, opts ...Option) *Dispatcher {
	return &Dispatcher{
		multi:     NewMultiPass(gen, opts...),
		twoPass:   NewTwoPass(gen, opts...),
		structure: gen,
		cfg:       newPassConfig(opts),
	}
}

// PlanSteps builds one inpainting step per replace item that has a mask,
// ordered by painting layer.
func PlanSteps(req BudgetRequest) []domain.InpaintingStep {
	strength := MaskedStrength(req.Mode)
	seen := map[string]bool{}
	steps := []domain.InpaintingStep{}
	for _, item := range req.ReplaceItems {
		key := domain.CanonicalItem(item)
		if key == "" || seen[key] || !req.Masks.Has(key) {
			continue
		}
		seen[key] = true
		spec, ok := req.Materials[key]
		if !ok {
			spec = domain.MaterialSpec{Item: key}
		}
		if spec.Item == "" {
			spec.Item = key
		}
		steps = append(steps, domain.InpaintingStep{
			Object:   key,
			Prompt:   BuildStepPrompt(spec, req.Budget, req.BasePrompt, req.Style),
			Strength: strength,
		})
	}
	return OrderByLayer(steps)
}

// Generate runs masked multi-pass inpainting when at least one replace item
// has a mask and a whole-image structure-preserving pass otherwise.
func (d *Dispatcher) Generate(ctx context.Context, req BudgetRequest) (*domain.GenerationResult, error) {
	if len(req.Image) == 0 {
		return nil, domain.NewValidationError("image", "is required")
	}
	if steps := PlanSteps(req); len(steps) > 0 {
		d.cfg.logger.Info().Str("run_id", req.Options.RunID).Int("steps", len(steps)).Msg("budget generation: multi-pass")
		return d.multi.Run(ctx, req.Image, req.Masks, steps, req.Options)
	}

	prompt := BuildGlobalPrompt(req.BasePrompt, req.Budget, req.ReplaceItems, req.Materials, req.Style)
	if req.Refine {
		d.cfg.logger.Info().Str("run_id", req.Options.RunID).Msg("budget generation: two-pass")
		return d.twoPass.Run(ctx, req.Image, prompt, req.Options)
	}

	d.cfg.logger.Info().Str("run_id", req.Options.RunID).Msg("budget generation: structure preserving")
	canvas, err := PrepareCanvas(req.Image)
	if err != nil {
		return nil, domain.NewValidationError("image", err.Error())
	}
	control, err := EdgeMapPNG(canvas)
	if err != nil {
		return nil, err
	}
	out, err := structurePass(ctx, d.structure, d.cfg, canvas, control, prompt, GlobalStrength(req.Mode), singlePassWeight, req.Options, 0)
	if err != nil {
		return nil, fmt.Errorf("pass 1 (structure): %w", err)
	}
	return &domain.GenerationResult{
		Image:      out,
		Passes:     [][]byte{out},
		NumPasses:  1,
		Strategy:   domain.StrategyStructurePreserving,
		PromptUsed: strings.TrimSpace(prompt),
	}, nil
}
