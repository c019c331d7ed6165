package models

import (
	"fmt"
	"time"
)

// ImageRecord links an owner identity to original and processed blob
// addresses. Maps to: image table
//
// The blob addresses are internal: they never appear in API responses,
// which carry proxy URLs instead.
type ImageRecord struct {
	ID                   string    `db:"image_id" json:"image_id"`
	OwnerID              string    `db:"owner_id" json:"owner_id"`
	OriginalAddress      string    `db:"original_address" json:"-"`
	ProcessedAddress     string    `db:"processed_address" json:"-"`
	OriginalContentType  string    `db:"original_content_type" json:"original_content_type"`
	ProcessedContentType string    `db:"processed_content_type" json:"processed_content_type"`
	DisplayName          string    `db:"display_name" json:"display_name"`
	SizeBytes            int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// ImageProjection is the public view of an ImageRecord
type ImageProjection struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	SizeBytes    int64     `json:"size_bytes"`
	OriginalURL  string    `json:"original_url"`
	ProcessedURL string    `json:"processed_url"`
	CreatedAt    time.Time `json:"created_at"`
}

// Project builds the public view, substituting proxy URLs for addresses
func (r *ImageRecord) Project() ImageProjection {
	return ImageProjection{
		ID:           r.ID,
		DisplayName:  r.DisplayName,
		SizeBytes:    r.SizeBytes,
		OriginalURL:  fmt.Sprintf("/api/v1/images/%s/original", r.ID),
		ProcessedURL: fmt.Sprintf("/api/v1/images/%s/processed", r.ID),
		CreatedAt:    r.CreatedAt,
	}
}
