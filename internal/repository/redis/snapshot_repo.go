// Package redis stores session snapshots in Redis with a sliding expiry.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lorahalle/storefront/storefront-backend/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "storefront:snapshot"

// SnapshotRepository implements store.SnapshotStore on Redis. Every read or
// write pushes the expiry of the touched snapshot out by ttl; a zero ttl
// keeps snapshots forever.
type SnapshotRepository struct {
	client goredis.Cmdable
	ttl    time.Duration
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(client goredis.Cmdable, ttl time.Duration) *SnapshotRepository {
	return &SnapshotRepository{client: client, ttl: ttl}
}

// SnapshotKey returns the redis key holding one session snapshot
func SnapshotKey(sessionID, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, sessionID, key)
}

// Load returns the snapshot and refreshes its expiry
func (r *SnapshotRepository) Load(ctx context.Context, sessionID, key string) ([]byte, error) {
	var cmd *goredis.StringCmd
	if r.ttl > 0 {
		cmd = r.client.GetEx(ctx, SnapshotKey(sessionID, key), r.ttl)
	} else {
		cmd = r.client.Get(ctx, SnapshotKey(sessionID, key))
	}
	data, err := cmd.Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, store.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return data, nil
}

// Save writes the snapshot with a fresh expiry
func (r *SnapshotRepository) Save(ctx context.Context, sessionID, key string, data []byte) error {
	if err := r.client.Set(ctx, SnapshotKey(sessionID, key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot if present
func (r *SnapshotRepository) Delete(ctx context.Context, sessionID, key string) error {
	if err := r.client.Del(ctx, SnapshotKey(sessionID, key)).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
