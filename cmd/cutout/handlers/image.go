package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/snipline/cutout/cmd/cutout/auth"
	"github.com/snipline/cutout/cmd/cutout/middleware"
	"github.com/snipline/cutout/cmd/cutout/models"
	"github.com/snipline/cutout/cmd/cutout/service"
	"github.com/snipline/cutout/common/config"
	"github.com/snipline/cutout/common/logger"
)

// allowed upload content types, by sniffed type
var allowedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ImageHandler handles image upload, metadata, and byte-serving requests
type ImageHandler struct {
	images     *service.ImageService
	identities *service.IdentityService
	anon       *auth.AnonTokenCodec
	cfg        *config.Config
	log        *logger.Logger
}

// NewImageHandler creates a new image handler
func NewImageHandler(images *service.ImageService, identities *service.IdentityService, anon *auth.AnonTokenCodec, cfg *config.Config, log *logger.Logger) *ImageHandler {
	return &ImageHandler{
		images:     images,
		identities: identities,
		anon:       anon,
		cfg:        cfg,
		log:        log,
	}
}

// Upload accepts a multipart image, runs the pipeline, and creates a record
// POST /api/v1/images
func (h *ImageHandler) Upload(c echo.Context) error {
	ctx := c.Request().Context()

	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "FILE_REQUIRED", "multipart field 'file' is required")
	}

	if file.Size > h.cfg.Upload.MaxSizeBytes {
		return respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("file exceeds %d bytes", h.cfg.Upload.MaxSizeBytes))
	}

	src, err := file.Open()
	if err != nil {
		return respondError(c, http.StatusBadRequest, "FILE_REQUIRED", "could not read uploaded file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.cfg.Upload.MaxSizeBytes+1))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "FILE_REQUIRED", "could not read uploaded file")
	}
	if int64(len(data)) > h.cfg.Upload.MaxSizeBytes {
		return respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("file exceeds %d bytes", h.cfg.Upload.MaxSizeBytes))
	}
	if len(data) == 0 {
		return respondError(c, http.StatusBadRequest, "FILE_REQUIRED", "uploaded file is empty")
	}

	contentType := http.DetectContentType(data)
	if !allowedUploadTypes[contentType] {
		return respondError(c, http.StatusBadRequest, "UNSUPPORTED_MEDIA_TYPE",
			"only JPEG and PNG uploads are supported")
	}

	identity, err := h.ensureIdentity(c)
	if err != nil {
		return respondFromError(c, h.log, err)
	}

	record, err := h.images.Upload(ctx, identity, file.Filename, contentType, data)
	if err != nil {
		return respondFromError(c, h.log, err)
	}

	return respondOK(c, http.StatusCreated, record.Project())
}

// List returns the caller's records, newest first
// GET /api/v1/images
func (h *ImageHandler) List(c echo.Context) error {
	records, err := h.images.List(c.Request().Context(), middleware.GetIdentity(c))
	if err != nil {
		return respondFromError(c, h.log, err)
	}

	projections := make([]models.ImageProjection, 0, len(records))
	for _, record := range records {
		projections = append(projections, record.Project())
	}

	return respondOK(c, http.StatusOK, projections)
}

// Get returns one record's public projection
// GET /api/v1/images/:id
func (h *ImageHandler) Get(c echo.Context) error {
	record, err := h.images.Get(c.Request().Context(), middleware.GetIdentity(c), c.Param("id"))
	if err != nil {
		return respondFromError(c, h.log, err)
	}

	return respondOK(c, http.StatusOK, record.Project())
}

// Rename updates a record's display name
// PATCH /api/v1/images/:id
func (h *ImageHandler) Rename(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	record, err := h.images.Rename(c.Request().Context(), middleware.GetIdentity(c), c.Param("id"), req.Name)
	if err != nil {
		return respondFromError(c, h.log, err)
	}

	return respondOK(c, http.StatusOK, record.Project())
}

// Delete removes a record and both stored blobs
// DELETE /api/v1/images/:id
func (h *ImageHandler) Delete(c echo.Context) error {
	if err := h.images.Delete(c.Request().Context(), middleware.GetIdentity(c), c.Param("id")); err != nil {
		return respondFromError(c, h.log, err)
	}

	return respondOK(c, http.StatusOK, map[string]string{"id": c.Param("id")})
}

// ServeOriginal streams the original bytes to the owner
// GET /api/v1/images/:id/original
func (h *ImageHandler) ServeOriginal(c echo.Context) error {
	return h.serve(c, service.VariantOriginal)
}

// ServeProcessed streams the processed bytes to the owner
// GET /api/v1/images/:id/processed
func (h *ImageHandler) ServeProcessed(c echo.Context) error {
	return h.serve(c, service.VariantProcessed)
}

func (h *ImageHandler) serve(c echo.Context, variant service.BlobVariant) error {
	content, err := h.images.Serve(c.Request().Context(), middleware.GetIdentity(c), c.Param("id"), variant)
	if err != nil {
		// Byte endpoints fall back to the JSON envelope on failure
		return respondFromError(c, h.log, err)
	}

	c.Response().Header().Set("Cache-Control", "private")
	c.Response().Header().Set("Content-Disposition",
		fmt.Sprintf("inline; filename=%q", content.Filename))
	// c.Blob alone leaves the length unset, so large bodies would go
	// out chunked
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(content.Data)))
	return c.Blob(http.StatusOK, content.ContentType, content.Data)
}

// ensureIdentity returns the resolved identity, creating a new anonymous
// one (and setting its cookie) on first contact
func (h *ImageHandler) ensureIdentity(c echo.Context) (*models.Identity, error) {
	if identity := middleware.GetIdentity(c); identity != nil {
		return identity, nil
	}

	identity, err := h.identities.CreateAnonymous(c.Request().Context())
	if err != nil {
		return nil, err
	}

	token, err := h.anon.Sign(identity.ID)
	if err != nil {
		return nil, err
	}
	middleware.SetAnonCookie(c, token, h.cfg.Auth.AnonTokenTTL)

	return identity, nil
}
