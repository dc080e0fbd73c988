package imagegen

import "context"

// InpaintRequest is one masked diffusion pass on a canvas-sized PNG.
type InpaintRequest struct {
	Image          []byte
	Mask           []byte
	Prompt         string
	NegativePrompt string
	Strength       float64
	GuidanceScale  float64
	Steps          int
	Seed           int64
}

// StructureRequest is one whole-image pass conditioned on an edge map.
type StructureRequest struct {
	Image           []byte
	Control         []byte
	Prompt          string
	NegativePrompt  string
	Strength        float64
	StructureWeight float64
	GuidanceScale   float64
	Steps           int
	Seed            int64
}

// Inpainter regenerates the masked region of an image.
type Inpainter interface {
	Inpaint(ctx context.Context, req InpaintRequest) ([]byte, error)
}

// StructureGenerator restyles a whole image while following a control map.
type StructureGenerator interface {
	Structure(ctx context.Context, req StructureRequest) ([]byte, error)
}

// Generator is implemented by the diffusion collaborator client.
type Generator interface {
	Inpainter
	StructureGenerator
}

// PassRecorder observes the outcome of each generation pass. Outcomes are
// "ok", "skipped" and "failed".
type PassRecorder interface {
	RecordPass(outcome string)
}

const (
	passOK      = "ok"
	passSkipped = "skipped"
	passFailed  = "failed"
)
