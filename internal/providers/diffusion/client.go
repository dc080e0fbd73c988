// Package diffusion is the client of the generation collaborator that runs
// inpainting and structure-conditioned diffusion.
package diffusion

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"artistry/internal/domain"
	"artistry/internal/imagegen"
	"artistry/internal/infra"
	"artistry/internal/providers/remote"
)

const service = "generate"

// Options configures the generation collaborator client.
type Options struct {
	BaseURL    string
	Auth       remote.Auth
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client implements imagegen.Generator over HTTP.
type Client struct {
	baseURL string
	http    *resty.Client
	logger  *infra.Logger
}

type inpaintRequest struct {
	ImageB64          string  `json:"image_b64"`
	MaskB64           string  `json:"mask_b64"`
	Prompt            string  `json:"prompt"`
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
	Strength          float64 `json:"strength"`
	GuidanceScale     float64 `json:"guidance_scale"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	Seed              int64   `json:"seed"`
}

type structureRequest struct {
	ImageB64                    string  `json:"image_b64"`
	ControlImageB64             string  `json:"control_image_b64"`
	Prompt                      string  `json:"prompt"`
	NegativePrompt              string  `json:"negative_prompt,omitempty"`
	Strength                    float64 `json:"strength"`
	ControlnetConditioningScale float64 `json:"controlnet_conditioning_scale"`
	GuidanceScale               float64 `json:"guidance_scale"`
	NumInferenceSteps           int     `json:"num_inference_steps"`
	Seed                        int64   `json:"seed"`
}

type imageResponse struct {
	ImageB64 string `json:"image_b64"`
}

func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		discard := infra.Logger(zerolog.New(io.Discard))
		logger = &discard
	}
	return &Client{
		baseURL: strings.TrimSpace(opts.BaseURL),
		http:    opts.Auth.Apply(remote.New(opts.BaseURL, opts.HTTPClient)),
		logger:  logger,
	}
}

// Inpaint regenerates the masked region of req.Image.
func (c *Client) Inpaint(ctx context.Context, req imagegen.InpaintRequest) ([]byte, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("diffusion: prompt is required")
	}
	return c.post(ctx, "/inpaint", inpaintRequest{
		ImageB64:          remote.EncodeImage(req.Image),
		MaskB64:           remote.EncodeImage(req.Mask),
		Prompt:            req.Prompt,
		NegativePrompt:    req.NegativePrompt,
		Strength:          req.Strength,
		GuidanceScale:     req.GuidanceScale,
		NumInferenceSteps: req.Steps,
		Seed:              req.Seed,
	})
}

// Structure restyles req.Image while following the req.Control edge map.
func (c *Client) Structure(ctx context.Context, req imagegen.StructureRequest) ([]byte, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("diffusion: prompt is required")
	}
	return c.post(ctx, "/structure", structureRequest{
		ImageB64:                    remote.EncodeImage(req.Image),
		ControlImageB64:             remote.EncodeImage(req.Control),
		Prompt:                      req.Prompt,
		NegativePrompt:              req.NegativePrompt,
		Strength:                    req.Strength,
		ControlnetConditioningScale: req.StructureWeight,
		GuidanceScale:               req.GuidanceScale,
		NumInferenceSteps:           req.Steps,
		Seed:                        req.Seed,
	})
}

func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	if err := remote.Configured(service, c.baseURL); err != nil {
		return nil, err
	}
	var out imageResponse
	res, err := remote.JSON(ctx, c.http, body, &out).
		Post(path)
	if err := remote.Check(service, res, err); err != nil {
		if errors.Is(err, domain.ErrModelNotLoaded) {
			c.logger.Warn().Str("path", path).Msg("diffusion: model not loaded")
		}
		return nil, err
	}
	data, err := remote.DecodeImage(out.ImageB64)
	if err != nil {
		return nil, &domain.UpstreamError{Service: service, StatusCode: res.StatusCode(), Err: err}
	}
	c.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("diffusion: image received")
	return data, nil
}

var _ imagegen.Generator = (*Client)(nil)
