package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ganot/timeflow/internal/domain/focus"
	"github.com/ganot/timeflow/internal/repository"
)

// ProfileRepository implements repository.ProfileRepository for SQLite
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get retrieves an owner's profile
func (r *ProfileRepository) Get(ctx context.Context, ownerID string) (*focus.Profile, error) {
	var p focus.Profile
	err := r.db.QueryRowContext(ctx, `
		SELECT owner_id, display_name, goal_minutes, created_at, updated_at
		FROM profiles
		WHERE owner_id = ?
	`, ownerID).Scan(&p.OwnerID, &p.DisplayName, &p.GoalMinutes, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// Upsert creates or replaces a profile
func (r *ProfileRepository) Upsert(ctx context.Context, p *focus.Profile) error {
	if p.OwnerID == "" || p.GoalMinutes < 1 || p.GoalMinutes > focus.MaxGoalMinutes {
		return repository.ErrInvalidInput
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (owner_id, display_name, goal_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			display_name = excluded.display_name,
			goal_minutes = excluded.goal_minutes,
			updated_at = excluded.updated_at
	`, p.OwnerID, p.DisplayName, p.GoalMinutes, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// GoalMinutes returns the configured daily goal
func (r *ProfileRepository) GoalMinutes(ctx context.Context, ownerID string) (int, error) {
	p, err := r.Get(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return p.GoalMinutes, nil
}

// DeleteAllUserData removes every row owned by ownerID except the profile
// and API keys.
func (r *ProfileRepository) DeleteAllUserData(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return repository.ErrInvalidInput
	}
	tables := []string{"focus_sessions", "daily_progress", "streaks", "timer_snapshots", "activity_log"}
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, table := range tables {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE owner_id = ?`, ownerID); err != nil {
				return fmt.Errorf("failed to delete %s: %w", table, err)
			}
		}
		return nil
	})
}

