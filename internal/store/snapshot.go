package store

import (
	"context"
	"errors"
)

// ErrSnapshotNotFound is returned by a SnapshotStore when no snapshot exists
// for the session and key
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot keys, one independent entry per state slice
const (
	KeyCart     = "cart"
	KeyWishlist = "wishlist"
	KeyUser     = "user"
)

// SnapshotStore is durable keyed storage for serialized state slices,
// partitioned by session
type SnapshotStore interface {
	Load(ctx context.Context, sessionID, key string) ([]byte, error)
	Save(ctx context.Context, sessionID, key string, data []byte) error
	Delete(ctx context.Context, sessionID, key string) error
}
