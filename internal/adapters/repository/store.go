// Package repository provides session storage. The in-memory store is the
// authoritative working set; the badger-backed store persists snapshots so
// sessions survive restarts.
package repository

import (
	"context"

	"github.com/okian/keepsake/internal/domain/model"
)

// Store is the session storage contract shared by the in-memory arena and
// the durable snapshot store.
type Store interface {
	// Get returns the session for the given album or ErrNotFound.
	Get(ctx context.Context, albumID string) (*model.Session, error)

	// Put stores or replaces the session for its album.
	Put(ctx context.Context, sess *model.Session) error

	// Delete removes the session for the given album. Deleting a missing
	// session is not an error.
	Delete(ctx context.Context, albumID string) error

	// Count reports the number of stored sessions.
	Count(ctx context.Context) (int, error)
}
