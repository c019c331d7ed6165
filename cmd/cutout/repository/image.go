package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/snipline/cutout/cmd/cutout/models"
	"github.com/snipline/cutout/common/db"
)

// ImageRepository handles database operations for image records
type ImageRepository struct {
	db *db.DB
}

// NewImageRepository creates a new image repository
func NewImageRepository(database *db.DB) *ImageRepository {
	return &ImageRepository{db: database}
}

const imageColumns = `
	image_id, owner_id, original_address, processed_address,
	original_content_type, processed_content_type, display_name,
	size_bytes, created_at
`

func scanImage(row pgx.Row) (*models.ImageRecord, error) {
	record := &models.ImageRecord{}
	err := row.Scan(
		&record.ID,
		&record.OwnerID,
		&record.OriginalAddress,
		&record.ProcessedAddress,
		&record.OriginalContentType,
		&record.ProcessedContentType,
		&record.DisplayName,
		&record.SizeBytes,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Create inserts a new image record
func (r *ImageRepository) Create(ctx context.Context, record *models.ImageRecord) error {
	query := `
		INSERT INTO image (
			image_id, owner_id, original_address, processed_address,
			original_content_type, processed_content_type, display_name,
			size_bytes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.OwnerID,
		record.OriginalAddress,
		record.ProcessedAddress,
		record.OriginalContentType,
		record.ProcessedContentType,
		record.DisplayName,
		record.SizeBytes,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create image record: %w", err)
	}

	return nil
}

// GetByID retrieves an image record by its ID
func (r *ImageRepository) GetByID(ctx context.Context, imageID string) (*models.ImageRecord, error) {
	query := `SELECT ` + imageColumns + ` FROM image WHERE image_id = $1`

	record, err := scanImage(r.db.QueryRow(ctx, query, imageID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image record: %w", err)
	}

	return record, nil
}

// ListByOwner lists an identity's image records, newest first
func (r *ImageRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.ImageRecord, error) {
	query := `SELECT ` + imageColumns + ` FROM image WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list image records: %w", err)
	}
	defer rows.Close()

	var records []*models.ImageRecord
	for rows.Next() {
		record, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating image records: %w", err)
	}

	return records, nil
}

// UpdateDisplayName renames an image record
func (r *ImageRepository) UpdateDisplayName(ctx context.Context, imageID, name string) (*models.ImageRecord, error) {
	query := `
		UPDATE image SET display_name = $2
		WHERE image_id = $1
		RETURNING ` + imageColumns

	record, err := scanImage(r.db.QueryRow(ctx, query, imageID, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rename image record: %w", err)
	}

	return record, nil
}

// DeleteByID removes an image record
func (r *ImageRepository) DeleteByID(ctx context.Context, imageID string) error {
	query := `DELETE FROM image WHERE image_id = $1`

	if _, err := r.db.Exec(ctx, query, imageID); err != nil {
		return fmt.Errorf("failed to delete image record: %w", err)
	}

	return nil
}

// ReassignOwnerTx moves every record owned by fromID to toID inside the
// supplied transaction and returns the number of rows moved
func (r *ImageRepository) ReassignOwnerTx(ctx context.Context, tx pgx.Tx, fromID, toID string) (int64, error) {
	query := `UPDATE image SET owner_id = $2 WHERE owner_id = $1`

	tag, err := tx.Exec(ctx, query, fromID, toID)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign image records: %w", err)
	}

	return tag.RowsAffected(), nil
}
