// Package blob provides addressable byte storage behind a backend-neutral
// interface. Addresses are random and safe to persist, but are never exposed
// to API callers.
package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Ref identifies stored content
type Ref struct {
	Address string
	Size    int64
}

// ErrNotFound is returned by Fetch when no content exists at an address
var ErrNotFound = errors.New("blob not found")

// Store is the interface for blob storage backends.
// Implementations handle raw byte I/O; record metadata lives in Postgres.
type Store interface {
	// Upload stores content and returns its address and size.
	Upload(ctx context.Context, data []byte, pathHint, contentType string) (Ref, error)

	// Fetch retrieves content by address.
	Fetch(ctx context.Context, address string) ([]byte, error)

	// Delete removes content by address. Deleting a missing address is not
	// an error.
	Delete(ctx context.Context, address string) error

	// Type returns the backend type identifier ("postgres", "redis").
	Type() string
}

// newAddress builds an unguessable address under the given scheme and hint
func newAddress(scheme, pathHint string) string {
	return fmt.Sprintf("%s:%s/%s", scheme, pathHint, uuid.New().String())
}

// OpError tags a storage failure with the operation that produced it.
// The address is deliberately absent from the message.
type OpError struct {
	Op  string // "upload", "fetch", "delete"
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("blob %s failed: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
