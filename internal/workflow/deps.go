package workflow

import (
	"context"

	"artistry/internal/domain"
	"artistry/internal/imagegen"
)

// Detector finds furniture boxes in a room image.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]domain.DetectedObject, error)
}

// Segmenter turns boxes into object masks.
type Segmenter interface {
	Segment(ctx context.Context, image []byte, objects []domain.DetectedObject) ([]domain.ObjectMask, error)
}

// ConditionRater rates the condition of the named items.
type ConditionRater interface {
	RateConditions(ctx context.Context, image []byte, items []string) ([]domain.ConditionRating, error)
}

// Generator runs budget-aware generation.
type Generator interface {
	Generate(ctx context.Context, req imagegen.BudgetRequest) (*domain.GenerationResult, error)
}

// ArtifactStore keeps final and intermediate images.
type ArtifactStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

var _ Generator = (*imagegen.Dispatcher)(nil)
