package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lorahalle/storefront/storefront-backend/internal/store"
)

// SnapshotRepository implements store.SnapshotStore using PostgreSQL
type SnapshotRepository struct {
	db DBTX
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(db DBTX) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Load retrieves one snapshot
func (r *SnapshotRepository) Load(ctx context.Context, sessionID, key string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRow(ctx,
		`SELECT data FROM store_snapshots WHERE session_id = $1 AND snapshot_key = $2`,
		sessionID, key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return data, nil
}

// Save inserts or replaces one snapshot
func (r *SnapshotRepository) Save(ctx context.Context, sessionID, key string, data []byte) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO store_snapshots (session_id, snapshot_key, data, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (session_id, snapshot_key)
		DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		sessionID, key, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Delete removes one snapshot
func (r *SnapshotRepository) Delete(ctx context.Context, sessionID, key string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM store_snapshots WHERE session_id = $1 AND snapshot_key = $2`,
		sessionID, key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
