// Package vision talks to the detection, segmentation and condition rating
// collaborators.
package vision

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"artistry/internal/domain"
	"artistry/internal/infra"
	"artistry/internal/providers/remote"
)

// Options configures the collaborator endpoints.
type Options struct {
	DetectURL    string
	SegmentURL   string
	ConditionURL string
	RefineEdges  bool
	HTTPClient   *http.Client
	Logger       *infra.Logger

	// Per-collaborator auth headers; zero values send none.
	DetectAuth    remote.Auth
	SegmentAuth   remote.Auth
	ConditionAuth remote.Auth
}

// Client calls the vision collaborators over HTTP.
type Client struct {
	opts      Options
	detect    *resty.Client
	segment   *resty.Client
	condition *resty.Client
	logger    *infra.Logger
}

type wireBox struct {
	Label string  `json:"label,omitempty"`
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
	Score float64 `json:"score,omitempty"`
}

type detectRequest struct {
	ImageB64 string `json:"image_b64"`
}

type detectResponse struct {
	BBoxes []wireBox `json:"bboxes"`
}

type segmentRequest struct {
	ImageB64    string    `json:"image_b64"`
	BBoxes      []wireBox `json:"bboxes"`
	RefineEdges bool      `json:"refine_edges"`
}

type segmentResponse struct {
	Masks []struct {
		BBox    wireBox `json:"bbox"`
		Label   string  `json:"label"`
		MaskB64 string  `json:"mask_b64"`
	} `json:"masks"`
}

type conditionRequest struct {
	ImageB64 string   `json:"image_b64"`
	Objects  []string `json:"objects"`
}

type conditionResponse struct {
	Conditions []struct {
		Item       string  `json:"item"`
		Condition  string  `json:"condition"`
		Reasoning  string  `json:"reasoning"`
		Confidence float64 `json:"confidence"`
	} `json:"conditions"`
}

func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		discard := infra.Logger(zerolog.New(io.Discard))
		logger = &discard
	}
	return &Client{
		opts:      opts,
		detect:    opts.DetectAuth.Apply(remote.New(opts.DetectURL, opts.HTTPClient)),
		segment:   opts.SegmentAuth.Apply(remote.New(opts.SegmentURL, opts.HTTPClient)),
		condition: opts.ConditionAuth.Apply(remote.New(opts.ConditionURL, opts.HTTPClient)),
		logger:    logger,
	}
}

// Detect returns the objects found in image.
func (c *Client) Detect(ctx context.Context, image []byte) ([]domain.DetectedObject, error) {
	if err := remote.Configured("detect", c.opts.DetectURL); err != nil {
		return nil, err
	}
	var out detectResponse
	res, err := remote.JSON(ctx, c.detect, detectRequest{ImageB64: remote.EncodeImage(image)}, &out).
		Post("/detect")
	if err := remote.Check("detect", res, err); err != nil {
		return nil, err
	}
	objects := make([]domain.DetectedObject, 0, len(out.BBoxes))
	for _, b := range out.BBoxes {
		label := strings.TrimSpace(b.Label)
		if label == "" {
			continue
		}
		objects = append(objects, domain.DetectedObject{
			Label: label,
			Box:   domain.Box{X1: b.X1, Y1: b.Y1, X2: b.X2, Y2: b.Y2},
			Score: clamp01(b.Score),
		})
	}
	c.logger.Debug().Int("objects", len(objects)).Msg("detect: done")
	return objects, nil
}

// Segment returns one mask per detected object. Masks without a label take
// the label of the box they were requested for.
func (c *Client) Segment(ctx context.Context, image []byte, objects []domain.DetectedObject) ([]domain.ObjectMask, error) {
	if err := remote.Configured("segment", c.opts.SegmentURL); err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, nil
	}
	boxes := make([]wireBox, 0, len(objects))
	for _, o := range objects {
		boxes = append(boxes, wireBox{Label: o.Label, X1: o.Box.X1, Y1: o.Box.Y1, X2: o.Box.X2, Y2: o.Box.Y2, Score: o.Score})
	}
	var out segmentResponse
	res, err := remote.JSON(ctx, c.segment, segmentRequest{ImageB64: remote.EncodeImage(image), BBoxes: boxes, RefineEdges: c.opts.RefineEdges}, &out).
		Post("/segment")
	if err := remote.Check("segment", res, err); err != nil {
		return nil, err
	}
	masks := make([]domain.ObjectMask, 0, len(out.Masks))
	for i, m := range out.Masks {
		data, err := remote.DecodeImage(m.MaskB64)
		if err != nil {
			return nil, &domain.UpstreamError{Service: "segment", Err: fmt.Errorf("mask %d: %w", i, err)}
		}
		box := domain.Box{X1: m.BBox.X1, Y1: m.BBox.Y1, X2: m.BBox.X2, Y2: m.BBox.Y2}
		label := firstNonEmpty(m.Label, m.BBox.Label, labelForBox(objects, box, i))
		masks = append(masks, domain.ObjectMask{Label: label, Box: box, PNG: data})
	}
	return masks, nil
}

// RateConditions asks the condition collaborator to rate every item.
func (c *Client) RateConditions(ctx context.Context, image []byte, items []string) ([]domain.ConditionRating, error) {
	if err := remote.Configured("condition", c.opts.ConditionURL); err != nil {
		return nil, err
	}
	var out conditionResponse
	res, err := remote.JSON(ctx, c.condition, conditionRequest{ImageB64: remote.EncodeImage(image), Objects: items}, &out).
		Post("/analyze-condition")
	if err := remote.Check("condition", res, err); err != nil {
		return nil, err
	}
	ratings := make([]domain.ConditionRating, 0, len(out.Conditions))
	for _, r := range out.Conditions {
		if strings.TrimSpace(r.Item) == "" {
			continue
		}
		cond, err := domain.ParseCondition(r.Condition)
		if err != nil {
			return nil, &domain.UpstreamError{Service: "condition", Err: fmt.Errorf("item %s: %w", r.Item, err)}
		}
		ratings = append(ratings, domain.ConditionRating{
			Item:       domain.CanonicalItem(r.Item),
			Condition:  cond,
			Reasoning:  r.Reasoning,
			Confidence: clamp01(r.Confidence),
		})
	}
	return ratings, nil
}

func labelForBox(objects []domain.DetectedObject, box domain.Box, index int) string {
	for _, o := range objects {
		if o.Box == box {
			return o.Label
		}
	}
	if index < len(objects) {
		return objects[index].Label
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
