package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/timeflow/internal/domain/activity"
	"github.com/ganot/timeflow/internal/domain/focus"
	"github.com/ganot/timeflow/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestProfileRepository_UpsertGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewProfileRepository(db)

	_, err := repo.Get(ctx, "owner1")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GoalMinutes(ctx, "owner1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Upsert(ctx, &focus.Profile{OwnerID: "owner1", DisplayName: "Ada", GoalMinutes: 90}))

	p, err := repo.Get(ctx, "owner1")
	require.NoError(t, err)
	require.Equal(t, "Ada", p.DisplayName)
	require.Equal(t, 90, p.GoalMinutes)

	p.GoalMinutes = 120
	p.UpdatedAt = time.Time{}
	require.NoError(t, repo.Upsert(ctx, p))

	goal, err := repo.GoalMinutes(ctx, "owner1")
	require.NoError(t, err)
	require.Equal(t, 120, goal)
}

func TestProfileRepository_RejectsInvalidGoal(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProfileRepository(db)

	for _, goal := range []int{0, -5, focus.MaxGoalMinutes + 1} {
		err := repo.Upsert(context.Background(), &focus.Profile{OwnerID: "owner1", GoalMinutes: goal})
		require.ErrorIs(t, err, repository.ErrInvalidInput, "goal %d", goal)
	}
}

func TestProfileRepository_DeleteAllUserData(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	profiles := NewProfileRepository(db)
	sessions := NewSessionRepository(db)
	progress := NewProgressRepository(db)
	streaks := NewStreakRepository(db)
	snapshots := NewSnapshotRepository(db)
	activities := NewActivityRepository(db)

	require.NoError(t, profiles.Upsert(ctx, &focus.Profile{OwnerID: "owner1", GoalMinutes: 45}))
	for _, owner := range []string{"owner1", "owner2"} {
		insertSession(t, sessions, owner, owner+"-s1", 25, true, time.Now())
		require.NoError(t, progress.Upsert(ctx, owner, &focus.DailyProgress{ID: owner + "-p", Date: "2026-03-04", MinutesCompleted: 25, GoalMinutes: 45}, 0))
		require.NoError(t, streaks.Upsert(ctx, owner, &focus.Streak{CurrentStreak: 1, MaxStreak: 1}, 0))
		require.NoError(t, snapshots.Put(ctx, owner, []byte(`{}`)))
		require.NoError(t, activities.Log(ctx, owner, &activity.Entry{Type: activity.TypeSessionCompleted, Summary: "done"}))
	}

	require.NoError(t, profiles.DeleteAllUserData(ctx, "owner1"))

	for _, table := range []string{"focus_sessions", "daily_progress", "streaks", "timer_snapshots", "activity_log"} {
		var mine, theirs int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE owner_id = 'owner1'`).Scan(&mine))
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE owner_id = 'owner2'`).Scan(&theirs))
		require.Zero(t, mine, table)
		require.Equal(t, 1, theirs, table)
	}

	goal, err := profiles.GoalMinutes(ctx, "owner1")
	require.NoError(t, err)
	require.Equal(t, 45, goal)
}
