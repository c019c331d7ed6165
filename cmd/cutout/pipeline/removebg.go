package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/snipline/cutout/common/config"
	"github.com/snipline/cutout/common/logger"
)

// RemoveBackground posts the buffer to the external background-removal
// service. It owns its retry policy: transient failures (network, 5xx,
// rate-limit) are retried with linear backoff before ever surfacing;
// everything else fails immediately.
type RemoveBackground struct {
	baseURL    string
	apiKey     string
	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration
	client     *http.Client
	log        *logger.Logger
}

// NewRemoveBackground creates the background-removal step
func NewRemoveBackground(cfg config.BackgroundRemovalConfig, log *logger.Logger) *RemoveBackground {
	return &RemoveBackground{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		timeout:    cfg.Timeout,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// Name identifies the step
func (s *RemoveBackground) Name() string {
	return "remove_background"
}

// Process calls the removal service, retrying transient failures up to
// maxRetries times with linear backoff (attempt x baseDelay). One overall
// deadline spans all attempts.
func (s *RemoveBackground) Process(ctx context.Context, input []byte) ([]byte, *StepError) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var lastErr *StepError
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			if stepErr := s.wait(ctx, time.Duration(attempt)*s.baseDelay); stepErr != nil {
				return nil, stepErr
			}
			s.log.Info("retrying background removal",
				"attempt", attempt+1,
				"last_code", lastErr.Code)
		}

		out, stepErr := s.callOnce(ctx, input)
		if stepErr == nil {
			return out, nil
		}

		lastErr = stepErr
		if !IsTransient(stepErr.Code) {
			return nil, stepErr
		}
	}

	return nil, lastErr
}

// wait suspends between attempts, honoring cancellation
func (s *RemoveBackground) wait(ctx context.Context, d time.Duration) *StepError {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return newStepError(s.Name(), CodeBGRemovalNetworkError,
			"background removal cancelled while waiting to retry", ctx.Err())
	}
}

// callOnce performs a single request and normalizes every outcome into
// either a buffer or a StepError
func (s *RemoveBackground) callOnce(ctx context.Context, input []byte) ([]byte, *StepError) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image_file", "image.png")
	if err != nil {
		return nil, newStepError(s.Name(), CodeBGRemovalUnexpected,
			"failed to build request body", err)
	}
	if _, err := part.Write(input); err != nil {
		return nil, newStepError(s.Name(), CodeBGRemovalUnexpected,
			"failed to build request body", err)
	}
	if err := writer.Close(); err != nil {
		return nil, newStepError(s.Name(), CodeBGRemovalUnexpected,
			"failed to build request body", err)
	}

	url := fmt.Sprintf("%s/removebg", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, newStepError(s.Name(), CodeBGRemovalUnexpected,
			"failed to build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, newStepError(s.Name(), CodeBGRemovalNetworkError,
			"background removal service unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		out, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, newStepError(s.Name(), CodeBGRemovalUnexpected,
				"failed to read response body", err)
		}
		if len(out) == 0 {
			return nil, newStepError(s.Name(), CodeBGRemovalUnexpected,
				"background removal returned an empty body", nil)
		}
		return out, nil

	case resp.StatusCode == http.StatusBadRequest:
		return nil, newStepError(s.Name(), CodeBGRemovalInvalidImage,
			"upstream rejected the image", nil)

	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, newStepError(s.Name(), CodeBGRemovalQuotaExceeded,
			"background removal quota exhausted", nil)

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, newStepError(s.Name(), CodeBGRemovalRateLimited,
			"background removal rate limited", nil)

	case resp.StatusCode >= 500:
		return nil, newStepError(s.Name(), CodeBGRemovalUnavailable,
			fmt.Sprintf("background removal unavailable (status %d)", resp.StatusCode), nil)

	default:
		return nil, newStepError(s.Name(), CodeBGRemovalUnexpected,
			fmt.Sprintf("unexpected response status %d", resp.StatusCode), nil)
	}
}
