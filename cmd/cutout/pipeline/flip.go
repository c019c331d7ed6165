package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
)

// FlipHorizontal mirrors the image left-to-right and re-encodes to the
// canonical format. Runs after normalization, so the input is PNG.
type FlipHorizontal struct{}

// NewFlipHorizontal creates the flip step
func NewFlipHorizontal() *FlipHorizontal {
	return &FlipHorizontal{}
}

// Name identifies the step
func (s *FlipHorizontal) Name() string {
	return "flip_horizontal"
}

// Process mirrors the buffer horizontally
func (s *FlipHorizontal) Process(ctx context.Context, input []byte) ([]byte, *StepError) {
	img, _, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, newStepError(s.Name(), CodeFlipFailed,
			"failed to decode buffer for flip", err)
	}

	bounds := img.Bounds()
	flipped := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			flipped.Set(bounds.Max.X-1-(x-bounds.Min.X), y, img.At(x, y))
		}
	}

	var out bytes.Buffer
	if err := png.Encode(&out, flipped); err != nil {
		return nil, newStepError(s.Name(), CodeFlipFailed,
			"failed to encode flipped image", err)
	}

	return out.Bytes(), nil
}
