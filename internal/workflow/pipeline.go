package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"artistry/internal/advise"
	"artistry/internal/domain"
	"artistry/internal/imagegen"
	"artistry/internal/providers/advisor"
	"artistry/internal/storage"
)

const defaultBasePrompt = "a tastefully redesigned interior"

type runInput struct {
	RunID  string
	Image  []byte
	Prompt string
	Mode   domain.GenerationMode
	Prefs  preferences
}

// persistFunc stores the finished result; it may set ResultID.
type persistFunc func(ctx context.Context, result *domain.WorkflowResult) error

// stage runs fn as the named stage: it records the duration and wraps any
// error in a StageError.
func (o *Orchestrator) stage(ctx context.Context, runID string, name Stage, fn func(ctx context.Context) error) error {
	started := time.Now()
	err := fn(ctx)
	o.metrics.ObserveStage(string(name), started, err)
	event := o.logger.Debug()
	if err != nil {
		event = o.logger.Warn().Err(err)
	}
	event.Str("run_id", runID).Str("stage", string(name)).Dur("took", time.Since(started)).Msg("workflow: stage finished")
	if err != nil {
		return &StageError{Stage: name, Err: err}
	}
	return nil
}

func (o *Orchestrator) lightContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.light)
}

// run executes the stages strictly in order; the first failure ends the run.
func (o *Orchestrator) run(ctx context.Context, in runInput, persist persistFunc) (*domain.WorkflowResult, error) {
	canvas, err := imagegen.PrepareCanvas(in.Image)
	if err != nil {
		return nil, domain.NewValidationError("image_b64", err.Error())
	}

	var (
		objects    []domain.DetectedObject
		masks      imagegen.MaskSet
		ratings    map[string]domain.ConditionRating
		upgrade    advise.Upgrade
		refinement advise.Refinement
		generated  *domain.GenerationResult
		analysis   *advisor.Analysis
	)

	if err := o.stage(ctx, in.RunID, StageDetect, func(ctx context.Context) error {
		cctx, cancel := o.lightContext(ctx)
		defer cancel()
		objects, err = o.detector.Detect(cctx, canvas)
		return err
	}); err != nil {
		return nil, err
	}

	if err := o.stage(ctx, in.RunID, StageSegment, func(ctx context.Context) error {
		masks = imagegen.MaskSet{}
		if len(objects) == 0 {
			return nil
		}
		cctx, cancel := o.lightContext(ctx)
		defer cancel()
		raw, err := o.segmenter.Segment(cctx, canvas, objects)
		if err != nil {
			return err
		}
		masks, err = imagegen.BuildMaskSet(raw)
		return err
	}); err != nil {
		return nil, err
	}

	if err := o.stage(ctx, in.RunID, StageRateCondition, func(ctx context.Context) error {
		ratings = map[string]domain.ConditionRating{}
		items := detectedItems(objects)
		if len(items) == 0 {
			return nil
		}
		cctx, cancel := o.lightContext(ctx)
		defer cancel()
		rated, err := o.rater.RateConditions(cctx, canvas, items)
		if err != nil {
			return err
		}
		for _, r := range rated {
			ratings[domain.CanonicalItem(r.Item)] = r
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := o.stage(ctx, in.RunID, StageReasonUpgrades, func(ctx context.Context) error {
		conditions := make(map[string]domain.Condition, len(ratings))
		for item, r := range ratings {
			conditions[item] = r.Condition
		}
		for _, item := range detectedItems(objects) {
			if _, ok := conditions[item]; !ok {
				conditions[item] = domain.ConditionAcceptable
			}
		}
		upgrade = advise.Reason(conditions, in.Prefs.Selection, in.Prefs.Budget)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := o.stage(ctx, in.RunID, StageResolveMaterials, func(ctx context.Context) error {
		refinement = o.catalog.RefineBudget(upgrade.Replace, string(in.Prefs.Budget))
		return nil
	}); err != nil {
		return nil, err
	}

	basePrompt := firstNonEmpty(in.Prompt, in.Prefs.Tips, defaultBasePrompt)
	if err := o.stage(ctx, in.RunID, StageGenerate, func(ctx context.Context) error {
		style := o.classify(ctx, strings.TrimSpace(in.Prompt+" "+in.Prefs.Tips))
		var err error
		generated, err = o.generator.Generate(ctx, imagegen.BudgetRequest{
			Image:        canvas,
			BasePrompt:   basePrompt,
			Materials:    refinement.Materials,
			ReplaceItems: upgrade.Replace,
			Budget:       in.Prefs.Budget,
			Masks:        masks,
			Mode:         in.Mode,
			Style:        style,
			Options:      imagegen.RunOptions{RunID: in.RunID},
		})
		return err
	}); err != nil {
		return nil, err
	}

	if err := o.stage(ctx, in.RunID, StageAnalyze, func(ctx context.Context) error {
		cctx, cancel := o.lightContext(ctx)
		defer cancel()
		var err error
		analysis, err = o.analyzer.Analyze(cctx, advisor.AnalyzeRequest{
			Image:     generated.Image,
			Items:     upgrade.Replace,
			Materials: refinement.Materials,
		})
		return err
	}); err != nil {
		return nil, err
	}

	result := &domain.WorkflowResult{
		SessionID:         in.Prefs.SessionID,
		GeneratedImage:    imagegen.EncodeBase64(generated.Image),
		ObjectsDetected:   nonNilObjects(objects),
		ConditionAnalysis: ratings,
		ItemsReplaced:     upgrade.Replace,
		ItemsKept:         upgrade.Keep,
		BudgetApplied:     in.Prefs.Budget,
		MaterialsUsed:     refinement.Materials,
		ShoppingMetadata:  analysis.Items,
		OverallStyle:      analysis.OverallStyle,
		Decisions:         upgrade.Decisions,
		Strategy:          generated.Strategy,
		NumPasses:         generated.NumPasses,
	}

	if err := o.stage(ctx, in.RunID, StagePersist, func(ctx context.Context) error {
		keys, err := o.storeArtifacts(ctx, in.RunID, generated)
		if err != nil {
			return err
		}
		result.PassKeys = keys
		if persist != nil {
			return persist(ctx, result)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// classify never fails the run: intent only flavours prompts.
func (o *Orchestrator) classify(ctx context.Context, text string) string {
	cctx, cancel := o.lightContext(ctx)
	defer cancel()
	intent, err := o.intent.Classify(cctx, text)
	if err != nil {
		o.logger.Warn().Err(err).Msg("workflow: intent classification failed")
		return advisor.DefaultStyle
	}
	return intent.Style
}

func (o *Orchestrator) storeArtifacts(ctx context.Context, runID string, gen *domain.GenerationResult) ([]string, error) {
	if o.artifacts == nil {
		return nil, nil
	}
	keys := make([]string, 0, len(gen.Passes))
	for i, pass := range gen.Passes {
		key, err := o.artifacts.Write(ctx, storage.PassKey(runID, i), pass)
		if err != nil {
			return nil, fmt.Errorf("store pass %d: %w", i+1, err)
		}
		keys = append(keys, key)
	}
	if _, err := o.artifacts.Write(ctx, storage.FinalKey(runID), gen.Image); err != nil {
		return nil, fmt.Errorf("store final image: %w", err)
	}
	return keys, nil
}

// detectedItems lists canonical labels in detection order without repeats.
func detectedItems(objects []domain.DetectedObject) []string {
	seen := map[string]bool{}
	var items []string
	for _, obj := range objects {
		key := domain.CanonicalItem(obj.Label)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, key)
	}
	return items
}

func nonNilObjects(objects []domain.DetectedObject) []domain.DetectedObject {
	if objects == nil {
		return []domain.DetectedObject{}
	}
	return objects
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
