package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/snipline/cutout/cmd/cutout/pipeline"
	"github.com/snipline/cutout/cmd/cutout/service"
	"github.com/snipline/cutout/common/blob"
	"github.com/snipline/cutout/common/logger"
)

// envelope is the wire format every JSON endpoint speaks
type envelope struct {
	Success bool           `json:"success"`
	Data    interface{}    `json:"data,omitempty"`
	Error   *envelopeError `json:"error,omitempty"`
}

type envelopeError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// respondOK writes a success envelope
func respondOK(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

// respondError writes a failure envelope
func respondError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, envelope{
		Success: false,
		Error:   &envelopeError{Message: message, Code: code},
	})
}

// respondFromError maps domain errors onto the envelope. Statuses ride on
// the typed errors themselves; nothing here string-matches messages.
func respondFromError(c echo.Context, log *logger.Logger, err error) error {
	var authzErr *service.AuthzError
	if errors.As(err, &authzErr) {
		return respondError(c, authzErr.Status, authzErr.Code, authzErr.Message)
	}

	var valErr *service.ValidationError
	if errors.As(err, &valErr) {
		return respondError(c, http.StatusBadRequest, valErr.Code, valErr.Message)
	}

	var stepErr *pipeline.StepError
	if errors.As(err, &stepErr) {
		return respondError(c, stepErr.Status, stepErr.Code, stepErr.Message)
	}

	var opErr *blob.OpError
	if errors.As(err, &opErr) {
		// Never echo storage internals back to the caller
		log.Error("storage operation failed", "op", opErr.Op, "error", err)
		return respondError(c, http.StatusInternalServerError, "STORAGE_FAILED", "storage operation failed")
	}

	log.Error("unhandled error", "error", err)
	return respondError(c, http.StatusInternalServerError, "INTERNAL", "internal error")
}
