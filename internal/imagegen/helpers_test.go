package imagegen

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
)

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// versioned returns a canvas PNG whose top-left red channel carries version.
func versioned(t *testing.T, version uint8) []byte {
	return solidPNG(t, CanvasSize, CanvasSize, color.RGBA{R: version, G: 10, B: 20, A: 255})
}

func versionOf(t *testing.T, data []byte) uint8 {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	r, _, _, _ := img.At(0, 0).RGBA()
	return uint8(r >> 8)
}

func boxMaskPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, BoxMask(testBox, CanvasSize, CanvasSize)); err != nil {
		t.Fatalf("encode mask: %v", err)
	}
	return buf.Bytes()
}

type fakeGenerator struct {
	mu         sync.Mutex
	t          *testing.T
	version    uint8
	inputs     []uint8
	inpaints   []InpaintRequest
	structures []StructureRequest
	outputs    [][]byte
	failAt     int
	failErr    error
}

func (f *fakeGenerator) next(input []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, versionOf(f.t, input))
	if f.failAt > 0 && len(f.inputs) == f.failAt {
		return nil, f.failErr
	}
	f.version++
	out := versioned(f.t, f.version)
	f.outputs = append(f.outputs, out)
	return out, nil
}

func (f *fakeGenerator) Inpaint(ctx context.Context, req InpaintRequest) ([]byte, error) {
	f.mu.Lock()
	f.inpaints = append(f.inpaints, req)
	f.mu.Unlock()
	return f.next(req.Image)
}

func (f *fakeGenerator) Structure(ctx context.Context, req StructureRequest) ([]byte, error) {
	f.mu.Lock()
	f.structures = append(f.structures, req)
	f.mu.Unlock()
	return f.next(req.Image)
}

type countingRecorder struct {
	counts map[string]int
}

func (c *countingRecorder) RecordPass(outcome string) {
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[outcome]++
}
