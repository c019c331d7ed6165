package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/snipline/cutout/cmd/cutout/models"
	"github.com/snipline/cutout/cmd/cutout/repository"
	"github.com/snipline/cutout/common/logger"
)

// SessionVerifier checks an opaque session token
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// AnonVerifier checks a signed anonymous-identity token
type AnonVerifier interface {
	Verify(token string) string
}

// IdentityLoader loads identity records
type IdentityLoader interface {
	GetByID(ctx context.Context, identityID string) (*models.Identity, error)
}

// Merger folds an anonymous identity into an authenticated one
type Merger interface {
	Merge(ctx context.Context, anonymousID, authenticatedID string) error
}

// Resolution is the outcome of per-request identity resolution
type Resolution struct {
	// Identity is nil when no credential resolved
	Identity *models.Identity

	// ClearAnonCookie tells the transport layer to drop the anonymous
	// cookie: either its identity was just merged, or it points at an
	// identity that no longer exists
	ClearAnonCookie bool
}

// Resolver determines the acting identity for a request from a session
// token and/or a signed anonymous cookie. When both are valid it merges
// the anonymous identity into the authenticated one before returning.
type Resolver struct {
	sessions   SessionVerifier
	anon       AnonVerifier
	identities IdentityLoader
	merger     Merger
	log        *logger.Logger
}

// NewResolver creates an identity resolver
func NewResolver(sessions SessionVerifier, anon AnonVerifier, identities IdentityLoader, merger Merger, log *logger.Logger) *Resolver {
	return &Resolver{
		sessions:   sessions,
		anon:       anon,
		identities: identities,
		merger:     merger,
		log:        log,
	}
}

// Resolve applies the resolution rules:
//
//	session valid, no anon cookie   -> authenticated
//	session valid, anon valid       -> authenticated, merge, clear cookie
//	no session, anon valid          -> anonymous
//	neither                         -> no identity (caller decides)
//
// A cookie that fails verification is treated as absent, never as an error.
func (r *Resolver) Resolve(ctx context.Context, sessionToken, anonToken string) (Resolution, error) {
	authID, err := r.sessions.Verify(ctx, sessionToken)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve session: %w", err)
	}

	anonID := r.anon.Verify(anonToken)

	if authID != "" {
		identity, err := r.loadIdentity(ctx, authID)
		if err != nil {
			return Resolution{}, err
		}
		if identity != nil {
			res := Resolution{Identity: identity}
			if anonID != "" && anonID != authID {
				if err := r.merger.Merge(ctx, anonID, authID); err != nil {
					return Resolution{}, fmt.Errorf("merge identities: %w", err)
				}
				r.log.Info("merged anonymous identity",
					"anonymous_id", anonID,
					"authenticated_id", authID)
				res.ClearAnonCookie = true
			}
			return res, nil
		}
		// Session points at a deleted identity; fall through to the
		// anonymous rule.
	}

	if anonID != "" {
		identity, err := r.loadIdentity(ctx, anonID)
		if err != nil {
			return Resolution{}, err
		}
		if identity == nil {
			// Stale cookie for an identity already merged elsewhere
			return Resolution{ClearAnonCookie: true}, nil
		}
		return Resolution{Identity: identity}, nil
	}

	return Resolution{}, nil
}

func (r *Resolver) loadIdentity(ctx context.Context, identityID string) (*models.Identity, error) {
	identity, err := r.identities.GetByID(ctx, identityID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	return identity, nil
}
