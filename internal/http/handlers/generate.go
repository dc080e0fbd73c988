package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"artistry/internal/domain"
	"artistry/internal/domain/jsoncfg"
	"artistry/internal/imagegen"
)

type inpaintMultiRequest struct {
	Image string                  `json:"image"`
	Masks map[string]string       `json:"masks"`
	Steps []domain.InpaintingStep `json:"steps"`
	jsoncfg.GenerationOptions
}

type inpaintMultiResponse struct {
	FinalImage         string   `json:"final_image"`
	IntermediatePasses []string `json:"intermediate_passes"`
	NumPasses          int      `json:"num_passes"`
	Skipped            []string `json:"skipped"`
}

// InpaintMulti runs caller-supplied masked steps in order.
func (a *App) InpaintMulti(w http.ResponseWriter, r *http.Request) {
	var req inpaintMultiRequest
	if !a.decode(w, r, &req) {
		return
	}
	if a.MultiPass == nil {
		a.fail(w, r, fmt.Errorf("inpaint: %w", domain.ErrMissingDependency))
		return
	}
	image, err := imagegen.DecodeImageB64("image", req.Image)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if len(req.Steps) == 0 {
		a.fail(w, r, domain.NewValidationError("steps", "at least one step is required"))
		return
	}
	opts, err := runOptions(req.GenerationOptions)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	masks, err := imagegen.MaskSetFromBase64(req.Masks)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := imagegen.ValidateSteps(req.Steps); err != nil {
		a.fail(w, r, err)
		return
	}
	result, err := a.MultiPass.Run(r.Context(), image, masks, req.Steps, opts)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	resp := inpaintMultiResponse{
		FinalImage:         imagegen.EncodeBase64(result.Image),
		IntermediatePasses: make([]string, 0, len(result.Passes)),
		NumPasses:          result.NumPasses,
		Skipped:            result.Skipped,
	}
	if resp.Skipped == nil {
		resp.Skipped = []string{}
	}
	for _, pass := range result.Passes {
		resp.IntermediatePasses = append(resp.IntermediatePasses, imagegen.EncodeBase64(pass))
	}
	a.json(w, http.StatusOK, resp)
}

type budgetAwareRequest struct {
	Image         string                         `json:"image"`
	BasePrompt    string                         `json:"base_prompt"`
	MaterialSpecs map[string]domain.MaterialSpec `json:"material_specs"`
	ReplaceItems  []string                       `json:"replace_items"`
	Budget        string                         `json:"budget"`
	Masks         map[string]string              `json:"masks"`
	Mode          string                         `json:"mode"`
	Refine        bool                           `json:"refine"`
	Style         string                         `json:"style"`
	jsoncfg.GenerationOptions
}

type budgetAwareResponse struct {
	Image            string                         `json:"image"`
	PromptUsed       string                         `json:"prompt_used"`
	Budget           domain.BudgetTier              `json:"budget"`
	MaterialsApplied map[string]domain.MaterialSpec `json:"materials_applied"`
	ItemsReplaced    []string                       `json:"items_replaced"`
	Strategy         string                         `json:"strategy"`
	NumPasses        int                            `json:"num_passes"`
}

// BudgetAwareGenerate picks masked multi-pass or whole-image generation.
func (a *App) BudgetAwareGenerate(w http.ResponseWriter, r *http.Request) {
	var req budgetAwareRequest
	if !a.decode(w, r, &req) {
		return
	}
	if a.Generator == nil {
		a.fail(w, r, fmt.Errorf("generate: %w", domain.ErrMissingDependency))
		return
	}
	image, err := imagegen.DecodeImageB64("image", req.Image)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	tier, err := domain.ParseBudgetTier(req.Budget)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	mode, err := domain.ParseGenerationMode(req.Mode)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	opts, err := runOptions(req.GenerationOptions)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	masks, err := imagegen.MaskSetFromBase64(req.Masks)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	materials := make(map[string]domain.MaterialSpec, len(req.ReplaceItems))
	for key, spec := range req.MaterialSpecs {
		materials[domain.CanonicalItem(key)] = spec
	}
	replace := make([]string, 0, len(req.ReplaceItems))
	for _, item := range req.ReplaceItems {
		key := domain.CanonicalItem(item)
		if key == "" {
			continue
		}
		replace = append(replace, key)
		if _, ok := materials[key]; !ok {
			materials[key] = a.Catalog.Resolve(key, string(tier))
		}
	}

	result, err := a.Generator.Generate(r.Context(), imagegen.BudgetRequest{
		Image:        image,
		BasePrompt:   req.BasePrompt,
		Materials:    materials,
		ReplaceItems: replace,
		Budget:       tier,
		Masks:        masks,
		Mode:         mode,
		Refine:       req.Refine,
		Style:        strings.TrimSpace(req.Style),
		Options:      opts,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, budgetAwareResponse{
		Image:            imagegen.EncodeBase64(result.Image),
		PromptUsed:       result.PromptUsed,
		Budget:           tier,
		MaterialsApplied: materials,
		ItemsReplaced:    replace,
		Strategy:         result.Strategy,
		NumPasses:        result.NumPasses,
	})
}

func runOptions(gen jsoncfg.GenerationOptions) (imagegen.RunOptions, error) {
	gen.Normalize()
	if err := gen.Validate(); err != nil {
		return imagegen.RunOptions{}, domain.NewValidationError("options", err.Error())
	}
	return imagegen.RunOptions{RunID: uuid.NewString(), GenerationOptions: gen}, nil
}
