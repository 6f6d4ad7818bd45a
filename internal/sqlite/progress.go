package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ganot/timeflow/internal/domain/focus"
	"github.com/ganot/timeflow/internal/repository"
)

// ProgressRepository implements repository.ProgressRepository for SQLite
type ProgressRepository struct {
	db *DB
}

// NewProgressRepository creates a new ProgressRepository
func NewProgressRepository(db *DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

const progressColumns = `id, owner_id, date, minutes_completed, goal_minutes, goal_completed, version, updated_at`

// Get retrieves the row for one date
func (r *ProgressRepository) Get(ctx context.Context, ownerID string, date focus.Date) (*focus.DailyProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM daily_progress WHERE owner_id = ? AND date = ?`

	p, err := scanProgress(r.db.QueryRowContext(ctx, query, ownerID, string(date)))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily progress: %w", err)
	}
	return p, nil
}

// Upsert inserts a new row when expectedVersion is 0, otherwise updates the
// row only if its version still equals expectedVersion.
func (r *ProgressRepository) Upsert(ctx context.Context, ownerID string, p *focus.DailyProgress, expectedVersion int64) error {
	return upsertProgress(ctx, r.db, ownerID, p, expectedVersion)
}

// ApplySession upserts p and flags the session as applied in one
// transaction. A session that was already applied yields ErrDuplicate and
// leaves the progress row untouched.
func (r *ProgressRepository) ApplySession(ctx context.Context, ownerID, sessionID string, p *focus.DailyProgress, expectedVersion int64) error {
	next := *p
	err := WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := upsertProgress(ctx, tx, ownerID, &next, expectedVersion); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx,
			`UPDATE focus_sessions SET progress_applied = 1 WHERE id = ? AND owner_id = ? AND progress_applied = 0`,
			sessionID, ownerID)
		if err != nil {
			return fmt.Errorf("failed to mark session applied: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			var applied bool
			err := tx.QueryRowContext(ctx,
				`SELECT progress_applied FROM focus_sessions WHERE id = ? AND owner_id = ?`,
				sessionID, ownerID).Scan(&applied)
			if err == sql.ErrNoRows {
				return repository.ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to check session: %w", err)
			}
			return repository.ErrDuplicate
		}
		return nil
	})
	if err != nil {
		return err
	}
	*p = next
	return nil
}

// execQuerier is satisfied by both *DB and *sql.Tx.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func upsertProgress(ctx context.Context, q execQuerier, ownerID string, p *focus.DailyProgress, expectedVersion int64) error {
	if p.MinutesCompleted < 0 || p.GoalMinutes < 1 {
		return repository.ErrInvalidInput
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	updatedAt = updatedAt.UTC()

	if expectedVersion == 0 {
		_, err := q.ExecContext(ctx, `
			INSERT INTO daily_progress (`+progressColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, 1, ?)
		`, p.ID, ownerID, string(p.Date), p.MinutesCompleted, p.GoalMinutes, p.GoalCompleted, updatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.ErrConflict
			}
			return fmt.Errorf("failed to insert daily progress: %w", err)
		}
		p.OwnerID = ownerID
		p.Version = 1
		p.UpdatedAt = updatedAt
		return nil
	}

	result, err := q.ExecContext(ctx, `
		UPDATE daily_progress
		SET minutes_completed = ?, goal_minutes = ?, goal_completed = ?,
			version = version + 1, updated_at = ?
		WHERE owner_id = ? AND date = ? AND version = ?
	`, p.MinutesCompleted, p.GoalMinutes, p.GoalCompleted, updatedAt, ownerID, string(p.Date), expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update daily progress: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists int
		err := q.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM daily_progress WHERE owner_id = ? AND date = ?`,
			ownerID, string(p.Date)).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check daily progress: %w", err)
		}
		if exists == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}

	p.OwnerID = ownerID
	p.Version = expectedVersion + 1
	p.UpdatedAt = updatedAt
	return nil
}

// ListRange returns rows with from <= date <= to, oldest first
func (r *ProgressRepository) ListRange(ctx context.Context, ownerID string, from, to focus.Date) ([]focus.DailyProgress, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+progressColumns+`
		FROM daily_progress
		WHERE owner_id = ? AND date >= ? AND date <= ?
		ORDER BY date
	`, ownerID, string(from), string(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list daily progress: %w", err)
	}
	defer rows.Close()

	var list []focus.DailyProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily progress: %w", err)
		}
		list = append(list, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily progress rows: %w", err)
	}
	return list, nil
}

func scanProgress(row rowScanner) (*focus.DailyProgress, error) {
	var p focus.DailyProgress
	var date string
	if err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&date,
		&p.MinutesCompleted,
		&p.GoalMinutes,
		&p.GoalCompleted,
		&p.Version,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Date = focus.Date(date)
	return &p, nil
}
