package blob

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/snipline/cutout/common/db"
	"github.com/snipline/cutout/common/logger"
)

// PostgresStore keeps blob content in a bytea column. Suitable for
// single-region deployments; swap in an object-store backend behind the
// same interface for anything larger.
type PostgresStore struct {
	db  *db.DB
	log *logger.Logger
}

// NewPostgresStore creates a Postgres-backed blob store
func NewPostgresStore(database *db.DB, log *logger.Logger) *PostgresStore {
	return &PostgresStore{db: database, log: log}
}

// Upload stores content and returns its address
func (s *PostgresStore) Upload(ctx context.Context, data []byte, pathHint, contentType string) (Ref, error) {
	address := newAddress("pg", pathHint)

	query := `
		INSERT INTO blob (address, content_type, size_bytes, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.Exec(ctx, query, address, contentType, int64(len(data)), data, time.Now())
	if err != nil {
		return Ref{}, &OpError{Op: "upload", Err: err}
	}

	s.log.Debug("blob stored", "backend", "postgres", "size_bytes", len(data))
	return Ref{Address: address, Size: int64(len(data))}, nil
}

// Fetch retrieves content by address
func (s *PostgresStore) Fetch(ctx context.Context, address string) ([]byte, error) {
	query := `SELECT content FROM blob WHERE address = $1`

	var content []byte
	err := s.db.QueryRow(ctx, query, address).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &OpError{Op: "fetch", Err: ErrNotFound}
	}
	if err != nil {
		return nil, &OpError{Op: "fetch", Err: err}
	}

	return content, nil
}

// Delete removes content by address
func (s *PostgresStore) Delete(ctx context.Context, address string) error {
	query := `DELETE FROM blob WHERE address = $1`

	if _, err := s.db.Exec(ctx, query, address); err != nil {
		return &OpError{Op: "delete", Err: err}
	}

	return nil
}

// Type returns the backend type identifier
func (s *PostgresStore) Type() string {
	return "postgres"
}
