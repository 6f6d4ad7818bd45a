package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ganot/timeflow/internal/domain/focus"
	"github.com/ganot/timeflow/internal/repository"
)

// SessionRepository implements repository.SessionRepository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, owner_id, commit_id, duration, completed, category, notes, progress_applied, created_at`

// Insert stores an immutable focus session
func (r *SessionRepository) Insert(ctx context.Context, ownerID string, sess *focus.Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	sess.CreatedAt = sess.CreatedAt.UTC()
	query := `
		INSERT INTO focus_sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		sess.ID,
		ownerID,
		sess.CommitID,
		sess.Duration,
		sess.Completed,
		sess.Category,
		sess.Notes,
		sess.Applied,
		sess.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert session: %w", err)
	}

	sess.OwnerID = ownerID
	return nil
}

// GetByCommit retrieves the session recorded for a commit ID
func (r *SessionRepository) GetByCommit(ctx context.Context, ownerID, commitID string) (*focus.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM focus_sessions WHERE owner_id = ? AND commit_id = ?`

	sess, err := scanSession(r.db.QueryRowContext(ctx, query, ownerID, commitID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

// List returns sessions newest first
func (r *SessionRepository) List(ctx context.Context, ownerID string, opts focus.ListSessionsOptions) ([]focus.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM focus_sessions WHERE owner_id = ?`
	args := []interface{}{ownerID}

	if opts.Since != nil {
		query += " AND created_at >= ?"
		args = append(args, opts.Since.UTC())
	}
	if opts.CompletedOnly {
		query += " AND completed = 1"
	}
	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []focus.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, nil
}

// Totals sums minutes and counts completed sessions
func (r *SessionRepository) Totals(ctx context.Context, ownerID string) (focus.Totals, error) {
	var totals focus.Totals
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(duration), 0),
			COALESCE(SUM(CASE WHEN completed = 1 THEN 1 ELSE 0 END), 0)
		FROM focus_sessions
		WHERE owner_id = ?
	`, ownerID).Scan(&totals.TotalMinutes, &totals.CompletedSessions)
	if err != nil {
		return focus.Totals{}, fmt.Errorf("failed to compute totals: %w", err)
	}
	return totals, nil
}

const rankingQuery = `
	WITH points AS (
		SELECT owner_id, SUM(duration) AS points
		FROM focus_sessions
		WHERE completed = 1
		GROUP BY owner_id
	), ranked AS (
		SELECT
			p.owner_id,
			COALESCE(pr.display_name, '') AS display_name,
			p.points,
			COALESCE(s.current_streak, 0) AS current_streak,
			RANK() OVER (ORDER BY p.points DESC) AS rank
		FROM points p
		LEFT JOIN profiles pr ON pr.owner_id = p.owner_id
		LEFT JOIN streaks s ON s.owner_id = p.owner_id
	)
	SELECT owner_id, display_name, points, current_streak, rank FROM ranked
`

// Ranking returns the top owners by completed minutes
func (r *SessionRepository) Ranking(ctx context.Context, limit int) ([]focus.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, rankingQuery+` ORDER BY rank, owner_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank owners: %w", err)
	}
	defer rows.Close()

	var entries []focus.LeaderboardEntry
	for rows.Next() {
		var e focus.LeaderboardEntry
		if err := rows.Scan(&e.OwnerID, &e.DisplayName, &e.Points, &e.CurrentStreak, &e.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan ranking: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ranking rows: %w", err)
	}
	return entries, nil
}

// RankOf returns one owner's leaderboard position
func (r *SessionRepository) RankOf(ctx context.Context, ownerID string) (*focus.LeaderboardEntry, error) {
	var e focus.LeaderboardEntry
	err := r.db.QueryRowContext(ctx, rankingQuery+` WHERE owner_id = ?`, ownerID).
		Scan(&e.OwnerID, &e.DisplayName, &e.Points, &e.CurrentStreak, &e.Rank)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rank owner: %w", err)
	}
	return &e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*focus.Session, error) {
	var sess focus.Session
	if err := row.Scan(
		&sess.ID,
		&sess.OwnerID,
		&sess.CommitID,
		&sess.Duration,
		&sess.Completed,
		&sess.Category,
		&sess.Notes,
		&sess.Applied,
		&sess.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &sess, nil
}
