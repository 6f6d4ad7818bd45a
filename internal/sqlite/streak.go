package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ganot/timeflow/internal/domain/focus"
	"github.com/ganot/timeflow/internal/repository"
)

// StreakRepository implements repository.StreakRepository for SQLite
type StreakRepository struct {
	db *DB
}

// NewStreakRepository creates a new StreakRepository
func NewStreakRepository(db *DB) *StreakRepository {
	return &StreakRepository{db: db}
}

// Get retrieves the owner's streak
func (r *StreakRepository) Get(ctx context.Context, ownerID string) (*focus.Streak, error) {
	var s focus.Streak
	var lastActive sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT owner_id, current_streak, max_streak, last_active_date, version, updated_at
		FROM streaks
		WHERE owner_id = ?
	`, ownerID).Scan(&s.OwnerID, &s.CurrentStreak, &s.MaxStreak, &lastActive, &s.Version, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	if lastActive.Valid {
		s.LastActiveDate = focus.Date(lastActive.String).Ptr()
	}
	return &s, nil
}

// Upsert writes the streak with the same version rules as daily progress
func (r *StreakRepository) Upsert(ctx context.Context, ownerID string, s *focus.Streak, expectedVersion int64) error {
	if s.CurrentStreak < 0 || s.MaxStreak < s.CurrentStreak {
		return repository.ErrInvalidInput
	}
	updatedAt := s.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	updatedAt = updatedAt.UTC()
	var lastActive sql.NullString
	if s.LastActiveDate != nil {
		lastActive = sql.NullString{String: string(*s.LastActiveDate), Valid: true}
	}

	if expectedVersion == 0 {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO streaks (owner_id, current_streak, max_streak, last_active_date, version, updated_at)
			VALUES (?, ?, ?, ?, 1, ?)
		`, ownerID, s.CurrentStreak, s.MaxStreak, lastActive, updatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.ErrConflict
			}
			return fmt.Errorf("failed to insert streak: %w", err)
		}
		s.OwnerID = ownerID
		s.Version = 1
		s.UpdatedAt = updatedAt
		return nil
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE streaks
		SET current_streak = ?, max_streak = ?, last_active_date = ?,
			version = version + 1, updated_at = ?
		WHERE owner_id = ? AND version = ?
	`, s.CurrentStreak, s.MaxStreak, lastActive, updatedAt, ownerID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update streak: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := r.Get(ctx, ownerID); err != nil {
			return err
		}
		return repository.ErrConflict
	}

	s.OwnerID = ownerID
	s.Version = expectedVersion + 1
	s.UpdatedAt = updatedAt
	return nil
}
