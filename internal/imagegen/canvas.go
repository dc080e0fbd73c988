package imagegen

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"strings"

	xdraw "golang.org/x/image/draw"

	"artistry/internal/domain"
)

// CanvasSize is the square edge every image and mask is brought to before a
// generation pass.
const CanvasSize = 512

var canvasRect = image.Rect(0, 0, CanvasSize, CanvasSize)

// DecodeBase64 accepts standard base64 with or without a data URL prefix.
func DecodeBase64(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "data:") {
		if idx := strings.Index(s, ","); idx >= 0 {
			s = s[idx+1:]
		}
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, fmt.Errorf("empty base64 payload")
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); rawErr == nil {
			return raw, nil
		}
		return nil, err
	}
	return data, nil
}

// EncodeBase64 encodes bytes with standard padding.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// PrepareCanvas returns data as a canvas-sized PNG. A PNG that already has the
// canvas size is returned unchanged.
func PrepareCanvas(data []byte) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if format == "png" && cfg.Width == CanvasSize && cfg.Height == CanvasSize {
		return data, nil
	}
	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	return encodePNG(toCanvas(img))
}

// DecodeImageB64 decodes a base64 image and prepares it as a canvas PNG. Bad
// input is reported as a validation error on field.
func DecodeImageB64(field, raw string) ([]byte, error) {
	data, err := DecodeBase64(raw)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be base64 encoded")
	}
	canvas, err := PrepareCanvas(data)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be a PNG or JPEG image")
	}
	return canvas, nil
}

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func toCanvas(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds() == canvasRect {
		return rgba
	}
	dst := image.NewRGBA(canvasRect)
	xdraw.CatmullRom.Scale(dst, canvasRect, img, img.Bounds(), xdraw.Src, nil)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeMask decodes a PNG mask, resizes it to the canvas with nearest
// neighbour sampling and binarises it at 127.
func DecodeMask(data []byte) (*image.Gray, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("mask: %w", err)
	}
	dst := image.NewGray(canvasRect)
	xdraw.NearestNeighbor.Scale(dst, canvasRect, img, img.Bounds(), xdraw.Src, nil)
	for i, v := range dst.Pix {
		if v > 127 {
			dst.Pix[i] = 255
		} else {
			dst.Pix[i] = 0
		}
	}
	return dst, nil
}

func coverage(m *image.Gray) int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// MaskSet maps canonical item names to binary canvas masks.
type MaskSet map[string]*image.Gray

// Add merges mask into the entry for label. Empty masks are ignored.
func (s MaskSet) Add(label string, mask *image.Gray) {
	key := domain.CanonicalItem(label)
	if key == "" || mask == nil || coverage(mask) == 0 {
		return
	}
	existing, ok := s[key]
	if !ok {
		s[key] = mask
		return
	}
	for i, v := range mask.Pix {
		if v != 0 {
			existing.Pix[i] = 255
		}
	}
}

// Has reports whether item has a usable mask.
func (s MaskSet) Has(item string) bool {
	_, ok := s[domain.CanonicalItem(item)]
	return ok
}

// Labels returns the canonical items with a mask.
func (s MaskSet) Labels() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

// PNG encodes the mask for item.
func (s MaskSet) PNG(item string) ([]byte, bool, error) {
	m, ok := s[domain.CanonicalItem(item)]
	if !ok {
		return nil, false, nil
	}
	data, err := encodePNG(m)
	return data, true, err
}

// BuildMaskSet folds segmentation output into a MaskSet.
func BuildMaskSet(masks []domain.ObjectMask) (MaskSet, error) {
	set := MaskSet{}
	for _, m := range masks {
		gray, err := DecodeMask(m.PNG)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Label, err)
		}
		set.Add(m.Label, gray)
	}
	return set, nil
}

// MaskSetFromBase64 decodes a label → base64 PNG map.
func MaskSetFromBase64(raw map[string]string) (MaskSet, error) {
	set := MaskSet{}
	for label, b64 := range raw {
		data, err := DecodeBase64(b64)
		if err != nil {
			return nil, domain.NewValidationError("masks."+label, "must be base64 encoded")
		}
		gray, err := DecodeMask(data)
		if err != nil {
			return nil, domain.NewValidationError("masks."+label, "must be a PNG image")
		}
		set.Add(label, gray)
	}
	return set, nil
}

// BoxMask paints a filled rectangle on a canvas-sized mask. Box coordinates
// are given in the source image space of size w×h.
func BoxMask(box domain.Box, w, h int) *image.Gray {
	m := image.NewGray(canvasRect)
	if w <= 0 || h <= 0 {
		return m
	}
	r := image.Rect(
		box.X1*CanvasSize/w, box.Y1*CanvasSize/h,
		box.X2*CanvasSize/w, box.Y2*CanvasSize/h,
	).Intersect(canvasRect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return m
}
