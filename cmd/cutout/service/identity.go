package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/snipline/cutout/cmd/cutout/models"
	"github.com/snipline/cutout/common/logger"
)

// TxBeginner opens database transactions. Satisfied by pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// IdentityStore is the repository surface the identity service needs
type IdentityStore interface {
	Create(ctx context.Context, identity *models.Identity) error
	GetByID(ctx context.Context, identityID string) (*models.Identity, error)
	DeleteByIDTx(ctx context.Context, tx pgx.Tx, identityID string) (bool, error)
}

// ImageReassigner is the repository surface Merge needs
type ImageReassigner interface {
	ReassignOwnerTx(ctx context.Context, tx pgx.Tx, fromID, toID string) (int64, error)
}

// IdentityService creates identities and merges anonymous ones into
// authenticated ones
type IdentityService struct {
	db         TxBeginner
	identities IdentityStore
	images     ImageReassigner
	log        *logger.Logger
}

// NewIdentityService creates a new identity service
func NewIdentityService(db TxBeginner, identities IdentityStore, images ImageReassigner, log *logger.Logger) *IdentityService {
	return &IdentityService{
		db:         db,
		identities: identities,
		images:     images,
		log:        log,
	}
}

// CreateAnonymous creates a fresh anonymous identity
func (s *IdentityService) CreateAnonymous(ctx context.Context) (*models.Identity, error) {
	return s.create(ctx, models.IdentityAnonymous)
}

// CreateAuthenticated creates an identity backed by an external provider
func (s *IdentityService) CreateAuthenticated(ctx context.Context) (*models.Identity, error) {
	return s.create(ctx, models.IdentityAuthenticated)
}

func (s *IdentityService) create(ctx context.Context, kind models.IdentityKind) (*models.Identity, error) {
	identity := &models.Identity{
		ID:        uuid.New().String(),
		Kind:      kind,
		CreatedAt: time.Now(),
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, fmt.Errorf("create %s identity: %w", kind, err)
	}

	s.log.WithIdentityID(identity.ID).Info("identity created", "kind", identity.Kind)
	return identity, nil
}

// GetByID loads an identity record
func (s *IdentityService) GetByID(ctx context.Context, identityID string) (*models.Identity, error) {
	return s.identities.GetByID(ctx, identityID)
}

// Merge atomically reassigns every image record owned by the anonymous
// identity to the authenticated one and deletes the anonymous identity.
// Finding the anonymous identity already gone is success, not failure:
// two requests racing on the same stale cookie both converge on the same
// end state.
func (s *IdentityService) Merge(ctx context.Context, anonymousID, authenticatedID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin merge transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	moved, err := s.images.ReassignOwnerTx(ctx, tx, anonymousID, authenticatedID)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}

	deleted, err := s.identities.DeleteByIDTx(ctx, tx, anonymousID)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit merge transaction: %w", err)
	}

	if !deleted {
		// Lost a race with a concurrent merge; the postcondition already
		// holds.
		s.log.Info("anonymous identity already merged",
			"anonymous_id", anonymousID,
			"authenticated_id", authenticatedID)
		return nil
	}

	s.log.Info("identities merged",
		"anonymous_id", anonymousID,
		"authenticated_id", authenticatedID,
		"records_moved", moved)
	return nil
}
