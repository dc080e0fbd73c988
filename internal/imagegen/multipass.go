package imagegen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"artistry/internal/domain"
	"artistry/internal/domain/jsoncfg"
	"artistry/internal/infra"
)

// Option configures the pass runners.
type Option func(*passConfig)

type passConfig struct {
	logger   *infra.Logger
	timeout  time.Duration
	recorder PassRecorder
}

// WithLogger sets the logger used for pass progress and skipped steps.
func WithLogger(logger infra.Logger) Option {
	return func(c *passConfig) { c.logger = &logger }
}

// WithPassTimeout bounds every single generation call.
func WithPassTimeout(d time.Duration) Option {
	return func(c *passConfig) { c.timeout = d }
}

// WithRecorder registers a pass outcome observer.
func WithRecorder(r PassRecorder) Option {
	return func(c *passConfig) { c.recorder = r }
}

func newPassConfig(opts []Option) passConfig {
	cfg := passConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		discard := infra.Logger(zerolog.New(io.Discard))
		cfg.logger = &discard
	}
	return cfg
}

func (c passConfig) record(outcome string) {
	if c.recorder != nil {
		c.recorder.RecordPass(outcome)
	}
}

func (c passConfig) passContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// RunOptions carries per-run generation settings.
type RunOptions struct {
	RunID string
	jsoncfg.GenerationOptions
}

func (o RunOptions) normalised() RunOptions {
	o.GenerationOptions.Normalize()
	return o
}

// MultiPass applies one masked inpainting pass per step, feeding each pass
// the previous pass's output.
type MultiPass struct {
	inpainter Inpainter
	cfg       passConfig
}

func NewMultiPass(inpainter Inpainter, opts ...Option) *MultiPass {
	return &MultiPass{inpainter: inpainter, cfg: newPassConfig(opts)}
}

// ValidateSteps rejects the whole plan before any pass reaches the collaborator.
func ValidateSteps(steps []domain.InpaintingStep) error {
	for i, step := range steps {
		field := fmt.Sprintf("steps[%d]", i)
		if domain.CanonicalItem(step.Object) == "" {
			return domain.NewValidationError(field+".object", "object is required")
		}
		if strings.TrimSpace(step.Prompt) == "" {
			return domain.NewValidationError(field+".prompt", "prompt is required")
		}
		if err := jsoncfg.ValidateStrength(step.Strength); err != nil {
			return domain.NewValidationError(field+".strength", err.Error())
		}
	}
	return nil
}

// Run executes steps in order. Steps whose object has no mask are skipped.
func (m *MultiPass) Run(ctx context.Context, base []byte, masks MaskSet, steps []domain.InpaintingStep, opts RunOptions) (*domain.GenerationResult, error) {
	if m == nil || m.inpainter == nil {
		return nil, fmt.Errorf("inpainter: %w", domain.ErrMissingDependency)
	}
	if err := ValidateSteps(steps); err != nil {
		return nil, err
	}
	opts = opts.normalised()
	working, err := PrepareCanvas(base)
	if err != nil {
		return nil, domain.NewValidationError("image", err.Error())
	}
	logger := m.cfg.logger.With().Str("run_id", opts.RunID).Logger()

	result := &domain.GenerationResult{Strategy: domain.StrategyMultiPass}
	for i, step := range steps {
		object := domain.CanonicalItem(step.Object)
		mask, ok, err := masks.PNG(object)
		if err != nil {
			return nil, fmt.Errorf("pass %d (%s): %w", i+1, object, err)
		}
		if !ok {
			logger.Warn().Str("object", object).Int("pass", i+1).Msg("no mask for object, skipping pass")
			result.Skipped = append(result.Skipped, object)
			m.cfg.record(passSkipped)
			continue
		}

		passCtx, cancel := m.cfg.passContext(ctx)
		started := time.Now()
		out, err := m.inpainter.Inpaint(passCtx, InpaintRequest{
			Image:          working,
			Mask:           mask,
			Prompt:         step.Prompt,
			NegativePrompt: opts.NegativePrompt,
			Strength:       step.Strength,
			GuidanceScale:  opts.GuidanceScale,
			Steps:          opts.NumInferenceSteps,
			Seed:           deterministicSeed(opts.RunID, object, i),
		})
		cancel()
		if err != nil {
			m.cfg.record(passFailed)
			if errors.Is(err, domain.ErrModelNotLoaded) {
				logger.Error().Err(err).Str("object", object).Int("pass", i+1).Msg("generation model not loaded")
			}
			return nil, fmt.Errorf("pass %d (%s): %w", i+1, object, err)
		}
		out, err = PrepareCanvas(out)
		if err != nil {
			m.cfg.record(passFailed)
			return nil, fmt.Errorf("pass %d (%s): %w", i+1, object, &domain.UpstreamError{Service: "generate", Err: err})
		}
		m.cfg.record(passOK)
		logger.Debug().Str("object", object).Int("pass", i+1).Dur("took", time.Since(started)).Msg("inpaint pass done")

		working = out
		result.Passes = append(result.Passes, out)
		if result.PromptUsed == "" {
			result.PromptUsed = step.Prompt
		} else {
			result.PromptUsed += " | " + step.Prompt
		}
	}
	result.Image = working
	result.NumPasses = len(result.Passes)
	return result, nil
}
