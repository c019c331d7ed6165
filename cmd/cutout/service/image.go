package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/snipline/cutout/cmd/cutout/models"
	"github.com/snipline/cutout/cmd/cutout/pipeline"
	"github.com/snipline/cutout/cmd/cutout/repository"
	"github.com/snipline/cutout/common/blob"
	"github.com/snipline/cutout/common/logger"
)

const maxDisplayNameLen = 255

// BlobVariant selects which stored bytes to serve
type BlobVariant string

const (
	VariantOriginal  BlobVariant = "original"
	VariantProcessed BlobVariant = "processed"
)

// ImageStore is the repository surface the image service needs
type ImageStore interface {
	Create(ctx context.Context, record *models.ImageRecord) error
	GetByID(ctx context.Context, imageID string) (*models.ImageRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.ImageRecord, error)
	UpdateDisplayName(ctx context.Context, imageID, name string) (*models.ImageRecord, error)
	DeleteByID(ctx context.Context, imageID string) error
}

// Executor runs the transformation pipeline
type Executor interface {
	Execute(ctx context.Context, input []byte) ([]byte, *pipeline.StepError)
}

// Content is a blob plus the headers the proxy serves it with
type Content struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ImageService owns the upload flow, record mutation, and the
// authenticated content proxy
type ImageService struct {
	images ImageStore
	blobs  blob.Store
	pipe   Executor
	log    *logger.Logger
}

// NewImageService creates a new image service
func NewImageService(images ImageStore, blobs blob.Store, pipe Executor, log *logger.Logger) *ImageService {
	return &ImageService{
		images: images,
		blobs:  blobs,
		pipe:   pipe,
		log:    log,
	}
}

// Upload persists the original, runs the pipeline, persists the result,
// and creates the record linking owner, both addresses, and metadata.
// Either everything lands or the stored blobs are cleaned up.
func (s *ImageService) Upload(ctx context.Context, owner *models.Identity, displayName, contentType string, data []byte) (*models.ImageRecord, error) {
	imageID := uuid.New().String()
	log := s.log.WithImageID(imageID)

	originalRef, err := s.blobs.Upload(ctx, data, pathHint(imageID, VariantOriginal), contentType)
	if err != nil {
		return nil, err
	}

	processed, stepErr := s.pipe.Execute(ctx, data)
	if stepErr != nil {
		s.cleanupBlobs(ctx, originalRef.Address)
		return nil, stepErr
	}

	processedRef, err := s.blobs.Upload(ctx, processed, pathHint(imageID, VariantProcessed), pipeline.CanonicalContentType)
	if err != nil {
		s.cleanupBlobs(ctx, originalRef.Address)
		return nil, err
	}

	record := &models.ImageRecord{
		ID:                   imageID,
		OwnerID:              owner.ID,
		OriginalAddress:      originalRef.Address,
		ProcessedAddress:     processedRef.Address,
		OriginalContentType:  contentType,
		ProcessedContentType: pipeline.CanonicalContentType,
		DisplayName:          displayName,
		SizeBytes:            originalRef.Size,
		CreatedAt:            time.Now(),
	}

	if err := s.images.Create(ctx, record); err != nil {
		s.cleanupBlobs(ctx, originalRef.Address, processedRef.Address)
		return nil, fmt.Errorf("create image record: %w", err)
	}

	log.Info("image uploaded",
		"owner_id", owner.ID,
		"size_bytes", record.SizeBytes,
		"content_type", contentType)
	return record, nil
}

// Authorize is the single ownership gate used by every read and mutation.
// Checks run in a fixed order, each a hard boundary.
func (s *ImageService) Authorize(ctx context.Context, identity *models.Identity, imageID string) (*models.ImageRecord, error) {
	if imageID == "" {
		return nil, errIDRequired()
	}
	if identity == nil {
		return nil, errUnauthenticated()
	}

	record, err := s.images.GetByID(ctx, imageID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("load image record: %w", err)
	}

	if record.OwnerID != identity.ID {
		return nil, errForbidden()
	}

	return record, nil
}

// Get returns a record after authorization
func (s *ImageService) Get(ctx context.Context, identity *models.Identity, imageID string) (*models.ImageRecord, error) {
	return s.Authorize(ctx, identity, imageID)
}

// List returns the identity's records, newest first
func (s *ImageService) List(ctx context.Context, identity *models.Identity) ([]*models.ImageRecord, error) {
	if identity == nil {
		return nil, errUnauthenticated()
	}
	return s.images.ListByOwner(ctx, identity.ID)
}

// Rename updates a record's display name after trimming and validating it
func (s *ImageService) Rename(ctx context.Context, identity *models.Identity, imageID, name string) (*models.ImageRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Code: CodeNameRequired, Message: "name is required"}
	}
	if len(name) > maxDisplayNameLen {
		return nil, &ValidationError{Code: CodeNameTooLong, Message: fmt.Sprintf("name exceeds %d characters", maxDisplayNameLen)}
	}

	if _, err := s.Authorize(ctx, identity, imageID); err != nil {
		return nil, err
	}

	record, err := s.images.UpdateDisplayName(ctx, imageID, name)
	if err != nil {
		return nil, fmt.Errorf("rename image: %w", err)
	}

	return record, nil
}

// Delete removes the record and then both blobs. The record goes first:
// an orphan blob is harmless to callers, a surviving record pointing at
// deleted bytes is not.
func (s *ImageService) Delete(ctx context.Context, identity *models.Identity, imageID string) error {
	record, err := s.Authorize(ctx, identity, imageID)
	if err != nil {
		return err
	}

	if err := s.images.DeleteByID(ctx, imageID); err != nil {
		return fmt.Errorf("delete image record: %w", err)
	}

	s.cleanupBlobs(ctx, record.OriginalAddress, record.ProcessedAddress)

	s.log.Info("image deleted", "image_id", imageID, "owner_id", identity.ID)
	return nil
}

// Serve authorizes the caller and returns the selected blob with its
// headers. The storage address never leaves this method.
func (s *ImageService) Serve(ctx context.Context, identity *models.Identity, imageID string, variant BlobVariant) (*Content, error) {
	record, err := s.Authorize(ctx, identity, imageID)
	if err != nil {
		return nil, err
	}

	address := record.OriginalAddress
	contentType := record.OriginalContentType
	if variant == VariantProcessed {
		address = record.ProcessedAddress
		contentType = record.ProcessedContentType
	}

	data, err := s.blobs.Fetch(ctx, address)
	if err != nil {
		return nil, err
	}

	return &Content{
		Data:        data,
		ContentType: contentType,
		Filename:    record.DisplayName,
	}, nil
}

// cleanupBlobs best-effort deletes blobs that no record points at anymore
func (s *ImageService) cleanupBlobs(ctx context.Context, addresses ...string) {
	for _, address := range addresses {
		if err := s.blobs.Delete(ctx, address); err != nil {
			s.log.Warn("failed to delete orphaned blob", "error", err)
		}
	}
}

func pathHint(imageID string, variant BlobVariant) string {
	return fmt.Sprintf("images/%s/%s", imageID, variant)
}
