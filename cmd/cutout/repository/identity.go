package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/snipline/cutout/cmd/cutout/models"
	"github.com/snipline/cutout/common/db"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// IdentityRepository handles database operations for identities
type IdentityRepository struct {
	db *db.DB
}

// NewIdentityRepository creates a new identity repository
func NewIdentityRepository(database *db.DB) *IdentityRepository {
	return &IdentityRepository{db: database}
}

// Create inserts a new identity
func (r *IdentityRepository) Create(ctx context.Context, identity *models.Identity) error {
	query := `
		INSERT INTO identity (identity_id, kind, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.Exec(ctx, query, identity.ID, identity.Kind, identity.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}

	return nil
}

// GetByID retrieves an identity by its ID
func (r *IdentityRepository) GetByID(ctx context.Context, identityID string) (*models.Identity, error) {
	query := `
		SELECT identity_id, kind, created_at
		FROM identity
		WHERE identity_id = $1
	`

	identity := &models.Identity{}
	err := r.db.QueryRow(ctx, query, identityID).Scan(
		&identity.ID,
		&identity.Kind,
		&identity.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	return identity, nil
}

// DeleteByIDTx deletes an identity inside the supplied transaction and
// reports whether a row was actually removed
func (r *IdentityRepository) DeleteByIDTx(ctx context.Context, tx pgx.Tx, identityID string) (bool, error) {
	query := `DELETE FROM identity WHERE identity_id = $1`

	tag, err := tx.Exec(ctx, query, identityID)
	if err != nil {
		return false, fmt.Errorf("failed to delete identity: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
