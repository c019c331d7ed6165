// Package pipeline implements the image transformation chain: an ordered
// list of steps that each take a byte buffer and return a new one. Steps own
// their failure policy; the pipeline itself only sequences them.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
)

// CanonicalContentType is the pipeline's internal raster format. PNG keeps
// the alpha channel produced by background removal.
const CanonicalContentType = "image/png"

// Step is a single transformation in the pipeline
type Step interface {
	// Name identifies the step in errors and logs
	Name() string

	// Process transforms the input buffer. The input is never mutated.
	// Every failure, expected or not, comes back as a *StepError.
	Process(ctx context.Context, input []byte) ([]byte, *StepError)
}

// Step error codes
const (
	CodeNormalizationFailed    = "NORMALIZATION_FAILED"
	CodeBGRemovalInvalidImage  = "BG_REMOVAL_INVALID_IMAGE"
	CodeBGRemovalQuotaExceeded = "BG_REMOVAL_QUOTA_EXCEEDED"
	CodeBGRemovalRateLimited   = "BG_REMOVAL_RATE_LIMITED"
	CodeBGRemovalUnavailable   = "BG_REMOVAL_SERVICE_UNAVAILABLE"
	CodeBGRemovalNetworkError  = "BG_REMOVAL_NETWORK_ERROR"
	CodeBGRemovalUnexpected    = "BG_REMOVAL_UNEXPECTED_ERROR"
	CodeFlipFailed             = "FLIP_FAILED"
)

// transientCodes are retried by the owning step before surfacing
var transientCodes = map[string]bool{
	CodeBGRemovalRateLimited:  true,
	CodeBGRemovalUnavailable:  true,
	CodeBGRemovalNetworkError: true,
}

// IsTransient reports whether a code is worth retrying
func IsTransient(code string) bool {
	return transientCodes[code]
}

// StepError is the typed failure every step normalizes into
type StepError struct {
	Step    string
	Code    string
	Status  int // HTTP status hint for the route boundary
	Message string
	Err     error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("step %s: %s: %v", e.Step, e.Message, e.Err)
	}
	return fmt.Sprintf("step %s: %s", e.Step, e.Message)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// newStepError builds a StepError with a status derived from the code
func newStepError(step, code, message string, cause error) *StepError {
	return &StepError{
		Step:    step,
		Code:    code,
		Status:  statusForCode(code),
		Message: message,
		Err:     cause,
	}
}

func statusForCode(code string) int {
	switch code {
	case CodeNormalizationFailed, CodeBGRemovalInvalidImage:
		return http.StatusBadRequest
	case CodeBGRemovalQuotaExceeded, CodeBGRemovalRateLimited,
		CodeBGRemovalUnavailable, CodeBGRemovalNetworkError:
		// Upstream dependency failures, not the caller's fault
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
