package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"profiles",
		"focus_sessions",
		"daily_progress",
		"streaks",
		"timer_snapshots",
		"activity_log",
		"api_keys",
		"schema_migrations",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeflow.db")

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.RunMigrations())
}

func TestStreakConstraints(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO streaks (owner_id, current_streak, max_streak) VALUES (?, ?, ?)`,
		"o1", 3, 2)
	require.Error(t, err, "max_streak below current_streak must be rejected")

	_, err = db.ExecContext(ctx,
		`INSERT INTO streaks (owner_id, current_streak, max_streak) VALUES (?, ?, ?)`,
		"o1", 2, 3)
	require.NoError(t, err)
}

func TestDailyProgressUniquePerDate(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	insert := `INSERT INTO daily_progress (id, owner_id, date, minutes_completed, goal_minutes) VALUES (?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, insert, "d1", "o1", "2026-03-04", 10, 60)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, "d2", "o1", "2026-03-04", 5, 60)
	require.Error(t, err)
	require.True(t, isUniqueViolation(err))
	_, err = db.ExecContext(ctx, insert, "d3", "o2", "2026-03-04", 5, 60)
	require.NoError(t, err)
}
