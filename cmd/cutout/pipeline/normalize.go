package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"

	// Registered input decoders. The pipeline accepts these and re-encodes
	// everything to PNG.
	_ "image/gif"
	_ "image/jpeg"
)

// NormalizeFormat decodes any supported input encoding and re-encodes to
// PNG, the pipeline's internal format. Malformed input will not become
// valid on retry, so this step never retries.
type NormalizeFormat struct{}

// NewNormalizeFormat creates the normalization step
func NewNormalizeFormat() *NormalizeFormat {
	return &NormalizeFormat{}
}

// Name identifies the step
func (s *NormalizeFormat) Name() string {
	return "normalize_format"
}

// Process decodes and re-encodes the buffer
func (s *NormalizeFormat) Process(ctx context.Context, input []byte) ([]byte, *StepError) {
	img, _, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, newStepError(s.Name(), CodeNormalizationFailed,
			"input is not a decodable image", err)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, newStepError(s.Name(), CodeNormalizationFailed,
			"failed to encode canonical format", err)
	}

	return out.Bytes(), nil
}
