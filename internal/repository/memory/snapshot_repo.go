// Package memory provides process-local repositories for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/lorahalle/storefront/storefront-backend/internal/store"
)

type snapshotID struct {
	sessionID string
	key       string
}

// SnapshotRepository implements store.SnapshotStore in memory. Snapshots do
// not survive a restart.
type SnapshotRepository struct {
	mu   sync.RWMutex
	data map[snapshotID][]byte
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{data: make(map[snapshotID][]byte)}
}

// Load returns a copy of the stored snapshot
func (r *SnapshotRepository) Load(ctx context.Context, sessionID, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.data[snapshotID{sessionID, key}]
	if !ok {
		return nil, store.ErrSnapshotNotFound
	}
	return append([]byte(nil), data...), nil
}

// Save replaces the snapshot
func (r *SnapshotRepository) Save(ctx context.Context, sessionID, key string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[snapshotID{sessionID, key}] = append([]byte(nil), data...)
	return nil
}

// Delete removes the snapshot if present
func (r *SnapshotRepository) Delete(ctx context.Context, sessionID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, snapshotID{sessionID, key})
	return nil
}
