package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ganot/timeflow/internal/repository"
)

// SnapshotRepository implements repository.SnapshotRepository for SQLite
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Get returns the owner's encoded timer state
func (r *SnapshotRepository) Get(ctx context.Context, ownerID string) ([]byte, error) {
	var state string
	err := r.db.QueryRowContext(ctx, `SELECT state FROM timer_snapshots WHERE owner_id = ?`, ownerID).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return []byte(state), nil
}

// Put replaces the owner's encoded timer state
func (r *SnapshotRepository) Put(ctx context.Context, ownerID string, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO timer_snapshots (owner_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
	`, ownerID, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to put snapshot: %w", err)
	}
	return nil
}

// Delete removes the owner's snapshot; a missing row is not an error
func (r *SnapshotRepository) Delete(ctx context.Context, ownerID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timer_snapshots WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
