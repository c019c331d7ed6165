package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/snipline/cutout/cmd/cutout/models"
	"github.com/snipline/cutout/cmd/cutout/repository"
	"github.com/snipline/cutout/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx satisfies pgx.Tx for merge tests; only lifecycle methods matter
type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not used")
}
func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { panic("not used") }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                               { panic("not used") }
func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not used")
}
func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not used")
}
func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not used")
}
func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { panic("not used") }
func (t *fakeTx) Conn() *pgx.Conn                                               { panic("not used") }

type fakeDB struct {
	lastTx *fakeTx
}

func (d *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	d.lastTx = &fakeTx{}
	return d.lastTx, nil
}

// mergeState is shared in-memory state standing in for the two tables
type mergeState struct {
	identities map[string]*models.Identity
	imageOwner map[string]string // image id -> owner id
}

type fakeIdentityStore struct{ state *mergeState }

func (s *fakeIdentityStore) Create(ctx context.Context, identity *models.Identity) error {
	s.state.identities[identity.ID] = identity
	return nil
}

func (s *fakeIdentityStore) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	identity, ok := s.state.identities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return identity, nil
}

func (s *fakeIdentityStore) DeleteByIDTx(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	if _, ok := s.state.identities[id]; !ok {
		return false, nil
	}
	delete(s.state.identities, id)
	return true, nil
}

type fakeReassigner struct{ state *mergeState }

func (s *fakeReassigner) ReassignOwnerTx(ctx context.Context, tx pgx.Tx, fromID, toID string) (int64, error) {
	var moved int64
	for imageID, owner := range s.state.imageOwner {
		if owner == fromID {
			s.state.imageOwner[imageID] = toID
			moved++
		}
	}
	return moved, nil
}

func newMergeFixture() (*IdentityService, *mergeState, *fakeDB) {
	state := &mergeState{
		identities: map[string]*models.Identity{
			"anon-1": {ID: "anon-1", Kind: models.IdentityAnonymous, CreatedAt: time.Now()},
			"auth-1": {ID: "auth-1", Kind: models.IdentityAuthenticated, CreatedAt: time.Now()},
		},
		imageOwner: map[string]string{
			"img-1": "anon-1",
			"img-2": "anon-1",
			"img-3": "auth-1",
		},
	}
	db := &fakeDB{}
	svc := NewIdentityService(db, &fakeIdentityStore{state}, &fakeReassigner{state}, logger.New("error", "json"))
	return svc, state, db
}

func TestMerge_ReassignsAndRetires(t *testing.T) {
	svc, state, db := newMergeFixture()

	require.NoError(t, svc.Merge(context.Background(), "anon-1", "auth-1"))

	assert.Equal(t, "auth-1", state.imageOwner["img-1"])
	assert.Equal(t, "auth-1", state.imageOwner["img-2"])
	assert.Equal(t, "auth-1", state.imageOwner["img-3"])
	assert.NotContains(t, state.identities, "anon-1")
	assert.True(t, db.lastTx.committed)
}

func TestMerge_IsIdempotent(t *testing.T) {
	svc, state, _ := newMergeFixture()

	require.NoError(t, svc.Merge(context.Background(), "anon-1", "auth-1"))
	// Second call simulates a race on the same stale cookie
	require.NoError(t, svc.Merge(context.Background(), "anon-1", "auth-1"))

	assert.Equal(t, "auth-1", state.imageOwner["img-1"])
	assert.NotContains(t, state.identities, "anon-1")
	assert.Contains(t, state.identities, "auth-1", "authenticated identity survives")
}

func TestCreateAnonymous(t *testing.T) {
	svc, state, _ := newMergeFixture()

	identity, err := svc.CreateAnonymous(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.IdentityAnonymous, identity.Kind)
	assert.NotEmpty(t, identity.ID)
	assert.Contains(t, state.identities, identity.ID)
}
