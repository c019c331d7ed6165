package db

import (
	"context"
	"fmt"
)

// schema statements are idempotent so startup can re-run them safely.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS identity (
		identity_id TEXT PRIMARY KEY,
		kind        TEXT NOT NULL CHECK (kind IN ('anonymous', 'authenticated')),
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS image (
		image_id               TEXT PRIMARY KEY,
		owner_id               TEXT NOT NULL REFERENCES identity(identity_id),
		original_address       TEXT NOT NULL,
		processed_address      TEXT NOT NULL,
		original_content_type  TEXT NOT NULL,
		processed_content_type TEXT NOT NULL,
		display_name           TEXT NOT NULL,
		size_bytes             BIGINT NOT NULL,
		created_at             TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_image_owner ON image(owner_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS blob (
		address      TEXT PRIMARY KEY,
		content_type TEXT NOT NULL,
		size_bytes   BIGINT NOT NULL,
		content      BYTEA NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
}

// InitSchema creates the service tables if they do not exist
func InitSchema(ctx context.Context, database *DB) error {
	for _, stmt := range schema {
		if _, err := database.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
