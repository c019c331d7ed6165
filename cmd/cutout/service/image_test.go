package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/snipline/cutout/cmd/cutout/models"
	"github.com/snipline/cutout/cmd/cutout/pipeline"
	"github.com/snipline/cutout/cmd/cutout/repository"
	"github.com/snipline/cutout/common/blob"
	"github.com/snipline/cutout/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeImageStore is an in-memory ImageStore
type fakeImageStore struct {
	records   map[string]*models.ImageRecord
	createErr error
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{records: make(map[string]*models.ImageRecord)}
}

func (s *fakeImageStore) Create(ctx context.Context, record *models.ImageRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.records[record.ID] = record
	return nil
}

func (s *fakeImageStore) GetByID(ctx context.Context, imageID string) (*models.ImageRecord, error) {
	record, ok := s.records[imageID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return record, nil
}

func (s *fakeImageStore) ListByOwner(ctx context.Context, ownerID string) ([]*models.ImageRecord, error) {
	var out []*models.ImageRecord
	for _, record := range s.records {
		if record.OwnerID == ownerID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeImageStore) UpdateDisplayName(ctx context.Context, imageID, name string) (*models.ImageRecord, error) {
	record, ok := s.records[imageID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	record.DisplayName = name
	return record, nil
}

func (s *fakeImageStore) DeleteByID(ctx context.Context, imageID string) error {
	delete(s.records, imageID)
	return nil
}

// fakeExecutor tags the buffer or fails with a fixed step error
type fakeExecutor struct {
	fail *pipeline.StepError
}

func (e *fakeExecutor) Execute(ctx context.Context, input []byte) ([]byte, *pipeline.StepError) {
	if e.fail != nil {
		return nil, e.fail
	}
	return append([]byte("processed:"), input...), nil
}

func owner(id string) *models.Identity {
	return &models.Identity{ID: id, Kind: models.IdentityAnonymous, CreatedAt: time.Now()}
}

func newImageFixture(exec *fakeExecutor) (*ImageService, *fakeImageStore, *blob.MemoryStore) {
	store := newFakeImageStore()
	blobs := blob.NewMemoryStore()
	svc := NewImageService(store, blobs, exec, logger.New("error", "json"))
	return svc, store, blobs
}

func TestUpload_CreatesRecordAndBlobs(t *testing.T) {
	svc, store, blobs := newImageFixture(&fakeExecutor{})

	record, err := svc.Upload(context.Background(), owner("me"), "cat.jpg", "image/jpeg", []byte("jpeg-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "me", record.OwnerID)
	assert.Equal(t, "image/jpeg", record.OriginalContentType)
	assert.Equal(t, pipeline.CanonicalContentType, record.ProcessedContentType)
	assert.Equal(t, int64(len("jpeg-bytes")), record.SizeBytes)
	assert.Contains(t, store.records, record.ID)
	assert.Equal(t, 2, blobs.Len())

	original, err := blobs.Fetch(context.Background(), record.OriginalAddress)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(original))

	processed, err := blobs.Fetch(context.Background(), record.ProcessedAddress)
	require.NoError(t, err)
	assert.Equal(t, "processed:jpeg-bytes", string(processed))
}

func TestUpload_PipelineFailureCleansUpOriginal(t *testing.T) {
	boom := &pipeline.StepError{Step: "remove_background", Code: pipeline.CodeBGRemovalQuotaExceeded, Status: 502, Message: "quota"}
	svc, store, blobs := newImageFixture(&fakeExecutor{fail: boom})

	_, err := svc.Upload(context.Background(), owner("me"), "cat.jpg", "image/jpeg", []byte("jpeg-bytes"))
	require.Error(t, err)

	var stepErr *pipeline.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, pipeline.CodeBGRemovalQuotaExceeded, stepErr.Code)
	assert.Empty(t, store.records)
	assert.Zero(t, blobs.Len(), "original blob must not be left behind")
}

func TestUpload_RecordFailureCleansUpBothBlobs(t *testing.T) {
	svc, store, blobs := newImageFixture(&fakeExecutor{})
	store.createErr = assert.AnError

	_, err := svc.Upload(context.Background(), owner("me"), "cat.jpg", "image/jpeg", []byte("x"))
	require.Error(t, err)
	assert.Zero(t, blobs.Len())
}

func TestAuthorize_GateOrder(t *testing.T) {
	svc, _, _ := newImageFixture(&fakeExecutor{})
	me := owner("me")

	record, err := svc.Upload(context.Background(), me, "cat.jpg", "image/jpeg", []byte("x"))
	require.NoError(t, err)

	var authzErr *AuthzError

	// Empty id beats everything
	_, err = svc.Authorize(context.Background(), nil, "")
	require.ErrorAs(t, err, &authzErr)
	assert.Equal(t, CodeIDRequired, authzErr.Code)

	// Unresolved identity
	_, err = svc.Authorize(context.Background(), nil, record.ID)
	require.ErrorAs(t, err, &authzErr)
	assert.Equal(t, CodeUnauthenticated, authzErr.Code)

	// Missing record is NotFound regardless of identity
	_, err = svc.Authorize(context.Background(), me, "no-such-id")
	require.ErrorAs(t, err, &authzErr)
	assert.Equal(t, CodeNotFound, authzErr.Code)

	// Existing record owned by someone else is Forbidden, never NotFound
	_, err = svc.Authorize(context.Background(), owner("them"), record.ID)
	require.ErrorAs(t, err, &authzErr)
	assert.Equal(t, CodeForbidden, authzErr.Code)

	// Owner passes
	got, err := svc.Authorize(context.Background(), me, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
}

func TestRename_Validation(t *testing.T) {
	svc, store, _ := newImageFixture(&fakeExecutor{})
	me := owner("me")

	record, err := svc.Upload(context.Background(), me, "cat.jpg", "image/jpeg", []byte("x"))
	require.NoError(t, err)

	var valErr *ValidationError

	_, err = svc.Rename(context.Background(), me, record.ID, "   ")
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, CodeNameRequired, valErr.Code)
	assert.Equal(t, "cat.jpg", store.records[record.ID].DisplayName, "no mutation on validation failure")

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Rename(context.Background(), me, record.ID, string(long))
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, CodeNameTooLong, valErr.Code)

	renamed, err := svc.Rename(context.Background(), me, record.ID, "  new name  ")
	require.NoError(t, err)
	assert.Equal(t, "new name", renamed.DisplayName)
}

func TestDelete_RemovesBlobsAndRecord(t *testing.T) {
	svc, store, blobs := newImageFixture(&fakeExecutor{})
	me := owner("me")

	record, err := svc.Upload(context.Background(), me, "cat.jpg", "image/jpeg", []byte("x"))
	require.NoError(t, err)
	require.Equal(t, 2, blobs.Len())

	require.NoError(t, svc.Delete(context.Background(), me, record.ID))
	assert.Zero(t, blobs.Len())
	assert.Empty(t, store.records)

	var authzErr *AuthzError
	_, err = svc.Get(context.Background(), me, record.ID)
	require.ErrorAs(t, err, &authzErr)
	assert.Equal(t, CodeNotFound, authzErr.Code)
}

// brokenDeleteStore refuses blob deletion but stores normally
type brokenDeleteStore struct {
	*blob.MemoryStore
}

func (s *brokenDeleteStore) Delete(ctx context.Context, address string) error {
	return assert.AnError
}

func TestDelete_BlobFailureStillRemovesRecord(t *testing.T) {
	store := newFakeImageStore()
	blobs := &brokenDeleteStore{MemoryStore: blob.NewMemoryStore()}
	svc := NewImageService(store, blobs, &fakeExecutor{}, logger.New("error", "json"))
	me := owner("me")

	record, err := svc.Upload(context.Background(), me, "cat.jpg", "image/jpeg", []byte("x"))
	require.NoError(t, err)
	require.Equal(t, 2, blobs.Len())

	// The record must never survive a delete, even when the blob store is
	// down. The blobs become orphans; that direction is recoverable.
	require.NoError(t, svc.Delete(context.Background(), me, record.ID))
	assert.Empty(t, store.records)
	assert.Equal(t, 2, blobs.Len())

	var authzErr *AuthzError
	_, err = svc.Get(context.Background(), me, record.ID)
	require.ErrorAs(t, err, &authzErr)
	assert.Equal(t, CodeNotFound, authzErr.Code)
}

func TestServe_SelectsVariantAndHidesAddress(t *testing.T) {
	svc, _, _ := newImageFixture(&fakeExecutor{})
	me := owner("me")

	record, err := svc.Upload(context.Background(), me, "cat.jpg", "image/jpeg", []byte("orig"))
	require.NoError(t, err)

	original, err := svc.Serve(context.Background(), me, record.ID, VariantOriginal)
	require.NoError(t, err)
	assert.Equal(t, "orig", string(original.Data))
	assert.Equal(t, "image/jpeg", original.ContentType)
	assert.Equal(t, "cat.jpg", original.Filename)

	processed, err := svc.Serve(context.Background(), me, record.ID, VariantProcessed)
	require.NoError(t, err)
	assert.Equal(t, "processed:orig", string(processed.Data))
	assert.Equal(t, pipeline.CanonicalContentType, processed.ContentType)

	var authzErr *AuthzError
	_, err = svc.Serve(context.Background(), owner("them"), record.ID, VariantOriginal)
	require.ErrorAs(t, err, &authzErr)
	assert.Equal(t, CodeForbidden, authzErr.Code)
}
