package imagegen

import (
	"image"
	"image/color"
	"math"
)

// EdgeMap computes a Sobel gradient magnitude map of img on the canvas. The
// result is used as the control image for structure-preserving passes.
func EdgeMap(img image.Image) *image.Gray {
	src := image.NewGray(canvasRect)
	rgba := toCanvas(img)
	for y := 0; y < CanvasSize; y++ {
		for x := 0; x < CanvasSize; x++ {
			src.SetGray(x, y, color.GrayModel.Convert(rgba.At(x, y)).(color.Gray))
		}
	}

	out := image.NewGray(canvasRect)
	at := func(x, y int) float64 {
		if x < 0 {
			x = 0
		} else if x >= CanvasSize {
			x = CanvasSize - 1
		}
		if y < 0 {
			y = 0
		} else if y >= CanvasSize {
			y = CanvasSize - 1
		}
		return float64(src.Pix[y*src.Stride+x])
	}
	for y := 0; y < CanvasSize; y++ {
		for x := 0; x < CanvasSize; x++ {
			gx := -at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1) +
				at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			mag := math.Hypot(gx, gy)
			if mag > 255 {
				mag = 255
			}
			out.Pix[y*out.Stride+x] = uint8(mag)
		}
	}
	return out
}

// EdgeMapPNG decodes a canvas PNG and returns its edge map as PNG.
func EdgeMapPNG(data []byte) ([]byte, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	return encodePNG(EdgeMap(img))
}
