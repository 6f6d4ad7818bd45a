package integration_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ganot/timeflow/internal/bootstrap"
	"github.com/ganot/timeflow/internal/clock"
	"github.com/ganot/timeflow/internal/config"
	"github.com/ganot/timeflow/internal/domain/activity"
	"github.com/ganot/timeflow/internal/domain/focus"
	"github.com/ganot/timeflow/internal/domain/reconcile"
	"github.com/ganot/timeflow/internal/domain/timer"
	"github.com/ganot/timeflow/internal/mcp"
	"github.com/ganot/timeflow/internal/repository"
	"github.com/ganot/timeflow/internal/snapshot"
	"github.com/ganot/timeflow/internal/sqlite"
	"github.com/stretchr/testify/require"
)

const owner = "owner1"

type testEnv struct {
	db    *sqlite.DB
	cfg   config.Config
	clock *clock.Fake
	app   *bootstrap.App
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Default()
	cfg.Time.Zone = "UTC"
	cfg.Goals.DefaultMinutes = 10

	env := &testEnv{
		db:    db,
		cfg:   cfg,
		clock: clock.NewFake(time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)),
	}
	env.app = env.boot(t)
	return env
}

// boot wires a fresh App over the shared database, as a process restart would.
func (e *testEnv) boot(t *testing.T) *bootstrap.App {
	t.Helper()
	app, err := bootstrap.New(bootstrap.Options{Config: e.cfg, DB: e.db, Clock: e.clock})
	require.NoError(t, err)
	t.Cleanup(app.Shutdown)
	return app
}

func (e *testEnv) tick(n int) {
	ctx := context.Background()
	for range n {
		e.clock.Advance(time.Second)
		e.app.Hub.TickAll(ctx)
		e.app.Hub.Wait()
	}
}

func TestIntegration_CompletionReachesGoalAndStreak(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.app.Handler.StartTimer(ctx, owner, mcp.StartTimerParams{Minutes: 10})
	require.NoError(t, err)
	env.tick(600)

	dash, err := env.app.Stats.Dashboard(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 10, dash.Today.MinutesCompleted)
	require.Equal(t, 10, dash.Today.GoalMinutes)
	require.True(t, dash.Today.GoalCompleted)
	require.Equal(t, 1, dash.CurrentStreak)
	require.Equal(t, 1, dash.CompletedSessions)

	goal := activity.TypeGoalAchieved
	entries, err := env.app.Activity.GetRecentActivity(ctx, owner, activity.ListOptions{Type: &goal})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestIntegration_RetriedCommitIsRecordedOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	commit := reconcile.Commit{CommitID: "c-1", Minutes: 4}
	first, err := env.app.Reconcile.RecordPartial(ctx, owner, commit)
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	second, err := env.app.Reconcile.RecordPartial(ctx, owner, commit)
	require.NoError(t, err)
	require.True(t, second.Duplicate)

	dash, err := env.app.Stats.Dashboard(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 4, dash.Today.MinutesCompleted)

	sessions, err := env.app.Stats.RecentSessions(ctx, owner, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.False(t, sessions[0].Completed)
}

func TestIntegration_StreakAcrossDays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	complete := func(id string) {
		_, err := env.app.Reconcile.RecordCompletion(ctx, owner, reconcile.Commit{CommitID: id, Minutes: 10})
		require.NoError(t, err)
	}

	complete("day-1")
	env.clock.Advance(24 * time.Hour)
	complete("day-2")

	streak, err := env.app.Reconcile.CheckStreak(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 2, streak.CurrentStreak)
	require.Equal(t, 2, streak.MaxStreak)

	// A second completion on the same day does not extend the streak.
	complete("day-2b")
	streak, err = env.app.Reconcile.CheckStreak(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 2, streak.CurrentStreak)

	env.clock.Advance(48 * time.Hour)
	streak, err = env.app.Reconcile.CheckStreak(ctx, owner)
	require.NoError(t, err)
	require.Zero(t, streak.CurrentStreak)
	require.Equal(t, 2, streak.MaxStreak)
}

func TestIntegration_LoweringGoalCompletesToday(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.app.Reconcile.RecordPartial(ctx, owner, reconcile.Commit{CommitID: "p-1", Minutes: 6})
	require.NoError(t, err)

	upd, err := env.app.Profiles.UpdateGoal(ctx, owner, 5)
	require.NoError(t, err)
	require.True(t, upd.GoalAchieved)
	require.True(t, upd.Today.GoalCompleted)

	dash, err := env.app.Stats.Dashboard(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 1, dash.CurrentStreak)

	// Raising it again keeps the day's streak credit.
	upd, err = env.app.Profiles.UpdateGoal(ctx, owner, 30)
	require.NoError(t, err)
	require.False(t, upd.GoalAchieved)
	require.False(t, upd.Today.GoalCompleted)
	dash, err = env.app.Stats.Dashboard(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 1, dash.CurrentStreak)
}

func TestIntegration_RunningSessionSurvivesRestart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.app.Handler.StartTimer(ctx, owner, mcp.StartTimerParams{Minutes: 5})
	require.NoError(t, err)
	env.tick(60)
	env.app.Shutdown()

	dash, err := env.app.Stats.Dashboard(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 1, dash.Today.MinutesCompleted, "unload commits the elapsed minute")

	env.clock.Advance(90 * time.Second)
	env.app = env.boot(t)

	status, err := env.app.Handler.TimerStatus(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, timer.StateRunning, status.Timer.State)
	require.Equal(t, 150, status.Timer.SecondsLeft)
}

func TestIntegration_SessionFinishedWhileAway(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.app.Handler.StartTimer(ctx, owner, mcp.StartTimerParams{Minutes: 5})
	require.NoError(t, err)
	env.tick(30)
	env.app.Shutdown()

	env.clock.Advance(10 * time.Minute)
	env.app = env.boot(t)

	status, err := env.app.Handler.TimerStatus(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, timer.StateIdle, status.Timer.State)
	require.False(t, status.Timer.PendingCompletion)

	dash, err := env.app.Stats.Dashboard(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 1, dash.CompletedSessions)
	require.Equal(t, 5, dash.Today.MinutesCompleted)
}

func TestIntegration_ResetDataClearsEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.app.Handler.StartTimer(ctx, owner, mcp.StartTimerParams{Minutes: 10})
	require.NoError(t, err)
	env.tick(120)

	_, err = env.app.Handler.ResetData(ctx, owner, mcp.ResetDataParams{Confirm: true})
	require.NoError(t, err)

	dash, err := env.app.Stats.Dashboard(ctx, owner)
	require.NoError(t, err)
	require.Zero(t, dash.Today.MinutesCompleted)
	require.Zero(t, dash.TotalMinutes)
	require.Zero(t, dash.MaxStreak)

	entries, err := env.app.Activity.GetRecentActivity(ctx, owner, activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, activity.TypeDataReset, entries[0].Type)

	status, err := env.app.Handler.TimerStatus(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, timer.StateIdle, status.Timer.State)
}

// flakyProgress fails the next n progress writes after the session row exists.
type flakyProgress struct {
	repository.ProgressRepository
	failures atomic.Int32
}

func (p *flakyProgress) ApplySession(ctx context.Context, ownerID, sessionID string, dp *focus.DailyProgress, expectedVersion int64) error {
	if p.failures.Add(-1) >= 0 {
		return errors.New("database is locked")
	}
	return p.ProgressRepository.ApplySession(ctx, ownerID, sessionID, dp, expectedVersion)
}

func TestIntegration_FailedPartialDoesNotShortChangeCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sessions := sqlite.NewSessionRepository(env.db)
	progress := &flakyProgress{ProgressRepository: sqlite.NewProgressRepository(env.db)}
	svc := reconcile.NewService(sessions, progress, sqlite.NewStreakRepository(env.db), reconcile.Config{
		Clock:    env.clock,
		Location: time.UTC,
	}, nil)
	ctrl := timer.NewController(timer.Config{OwnerID: owner}, svc, snapshot.NewMemoryStore(), nil, env.clock, nil)
	tick := func(n int) {
		for range n {
			env.clock.Advance(time.Second)
			ctrl.Tick(ctx)
			ctrl.Wait()
		}
	}

	require.NoError(t, ctrl.Start(ctx, 5))
	tick(120)
	progress.failures.Store(1)
	require.ErrorIs(t, ctrl.Pause(ctx), timer.ErrCommitFailed)
	require.NoError(t, ctrl.Resume(ctx))
	tick(180)

	status := ctrl.Status()
	require.Equal(t, timer.StateIdle, status.State)
	require.False(t, status.PendingCompletion)

	completed, err := sessions.List(ctx, owner, focus.ListSessionsOptions{CompletedOnly: true})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.Equal(t, 5, completed[0].Duration)

	today, err := progress.Get(ctx, owner, svc.Today())
	require.NoError(t, err)
	require.Equal(t, 5, today.MinutesCompleted)
}
