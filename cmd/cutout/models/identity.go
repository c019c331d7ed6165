package models

import "time"

// IdentityKind distinguishes guest actors from provider-verified ones
type IdentityKind string

const (
	IdentityAnonymous     IdentityKind = "anonymous"
	IdentityAuthenticated IdentityKind = "authenticated"
)

// Identity represents an acting user
// Maps to: identity table
//
// Anonymous identities are ephemeral: they exist from first unauthenticated
// contact until they are merged into an authenticated identity, at which
// point the row is deleted.
type Identity struct {
	ID        string       `db:"identity_id" json:"id"`
	Kind      IdentityKind `db:"kind" json:"kind"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// IsAnonymous reports whether the identity is a guest
func (i *Identity) IsAnonymous() bool {
	return i.Kind == IdentityAnonymous
}
