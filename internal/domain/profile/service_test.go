package profile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ganot/timeflow/internal/clock"
	"github.com/ganot/timeflow/internal/domain/activity"
	"github.com/ganot/timeflow/internal/domain/focus"
	"github.com/ganot/timeflow/internal/domain/profile"
	"github.com/ganot/timeflow/internal/domain/reconcile"
	"github.com/ganot/timeflow/internal/repository"
	"github.com/ganot/timeflow/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

const ownerID = "owner1"

type fakeReconciler struct {
	update      *reconcile.ProgressUpdate
	err         error
	override    *int
	streakCalls [][2]bool
}

func (f *fakeReconciler) UpdateDailyProgress(ctx context.Context, ownerID string, delta int, goal *int) (*reconcile.ProgressUpdate, error) {
	f.override = goal
	if f.err != nil {
		return nil, f.err
	}
	return f.update, nil
}

func (f *fakeReconciler) UpdateStreak(ctx context.Context, ownerID string, just, already bool) (*reconcile.StreakUpdate, error) {
	f.streakCalls = append(f.streakCalls, [2]bool{just, already})
	return &reconcile.StreakUpdate{}, nil
}

type fixture struct {
	repo     *mocks.ProfileRepository
	rec      *fakeReconciler
	activity *mocks.ActivityRepository
	svc      *profile.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewFake(testNow)
	f := &fixture{
		repo:     &mocks.ProfileRepository{},
		rec:      &fakeReconciler{},
		activity: &mocks.ActivityRepository{},
	}
	f.svc = profile.NewService(f.repo, f.rec, activity.NewService(f.activity, clk, nil), clk, nil)
	return f
}

func TestGet_CreatesDefaultProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.On("Get", ctx, ownerID).Return(nil, repository.ErrNotFound)
	f.repo.On("Upsert", ctx, mock.MatchedBy(func(p *focus.Profile) bool {
		return p.OwnerID == ownerID && p.GoalMinutes == focus.DefaultGoalMinutes
	})).Return(nil)

	p, err := f.svc.Get(ctx, ownerID)
	require.NoError(t, err)
	require.Equal(t, 60, p.GoalMinutes)
	require.Equal(t, testNow, p.CreatedAt)
	f.repo.AssertExpectations(t)
}

func TestGet_RequiresOwner(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), "")
	require.ErrorIs(t, err, profile.ErrNoOwner)
}

func TestUpdateGoal_Validation(t *testing.T) {
	f := newFixture(t)
	for _, goal := range []int{0, -1, 1441} {
		_, err := f.svc.UpdateGoal(context.Background(), ownerID, goal)
		require.ErrorIs(t, err, profile.ErrInvalidGoal)
	}
	f.repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestWithLimits_NarrowsGoalRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.WithLimits(profile.Limits{DefaultGoal: 45, MinGoal: 10, MaxGoal: 300})

	_, err := f.svc.UpdateGoal(ctx, ownerID, 5)
	require.ErrorIs(t, err, profile.ErrInvalidGoal)
	_, err = f.svc.UpdateGoal(ctx, ownerID, 301)
	require.ErrorIs(t, err, profile.ErrInvalidGoal)

	f.repo.On("Get", ctx, ownerID).Return(nil, repository.ErrNotFound)
	f.repo.On("Upsert", ctx, mock.Anything).Return(nil)
	p, err := f.svc.Get(ctx, ownerID)
	require.NoError(t, err)
	require.Equal(t, 45, p.GoalMinutes)
}

func TestUpdateGoal_AppliesToTodayAndCreditsStreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.On("Get", ctx, ownerID).Return(&focus.Profile{OwnerID: ownerID, GoalMinutes: 60}, nil)
	f.repo.On("Upsert", ctx, mock.MatchedBy(func(p *focus.Profile) bool { return p.GoalMinutes == 30 })).Return(nil)
	f.rec.update = &reconcile.ProgressUpdate{
		Progress:              &focus.DailyProgress{MinutesCompleted: 45, GoalMinutes: 30, GoalCompleted: true},
		PreviousGoalCompleted: false,
	}
	var logged []activity.Type
	f.activity.On("Log", ctx, ownerID, mock.Anything).Run(func(args mock.Arguments) {
		logged = append(logged, args.Get(2).(*activity.Entry).Type)
	}).Return(nil)

	res, err := f.svc.UpdateGoal(ctx, ownerID, 30)
	require.NoError(t, err)
	require.True(t, res.GoalAchieved)
	require.Equal(t, 30, res.Profile.GoalMinutes)
	require.NotNil(t, f.rec.override)
	require.Equal(t, 30, *f.rec.override)
	require.Equal(t, [][2]bool{{true, false}}, f.rec.streakCalls)
	require.Equal(t, []activity.Type{activity.TypeGoalUpdated, activity.TypeGoalAchieved}, logged)
}

func TestUpdateGoal_RaisingGoalDoesNotCredit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.On("Get", ctx, ownerID).Return(&focus.Profile{OwnerID: ownerID, GoalMinutes: 30}, nil)
	f.repo.On("Upsert", ctx, mock.Anything).Return(nil)
	f.rec.update = &reconcile.ProgressUpdate{
		Progress:              &focus.DailyProgress{MinutesCompleted: 45, GoalMinutes: 90},
		PreviousGoalCompleted: true,
	}
	f.activity.On("Log", ctx, ownerID, mock.Anything).Return(nil)

	res, err := f.svc.UpdateGoal(ctx, ownerID, 90)
	require.NoError(t, err)
	require.False(t, res.GoalAchieved)
	require.Equal(t, [][2]bool{{false, true}}, f.rec.streakCalls)
}

func TestUpdateGoal_PropagatesReconcileFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.On("Get", ctx, ownerID).Return(&focus.Profile{OwnerID: ownerID, GoalMinutes: 60}, nil)
	f.repo.On("Upsert", ctx, mock.Anything).Return(nil)
	f.rec.err = &reconcile.PersistenceError{Op: "upsert daily progress", Err: errors.New("locked")}

	_, err := f.svc.UpdateGoal(ctx, ownerID, 45)
	require.ErrorIs(t, err, reconcile.ErrPersistence)
}

func TestUpdateDisplayName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.On("Get", ctx, ownerID).Return(&focus.Profile{OwnerID: ownerID, GoalMinutes: 60}, nil)
	f.repo.On("Upsert", ctx, mock.Anything).Return(nil)

	p, err := f.svc.UpdateDisplayName(ctx, ownerID, "  Ada  ")
	require.NoError(t, err)
	require.Equal(t, "Ada", p.DisplayName)

	_, err = f.svc.UpdateDisplayName(ctx, ownerID, "   ")
	require.ErrorIs(t, err, profile.ErrInvalidName)
}

func TestResetData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.On("DeleteAllUserData", ctx, ownerID).Return(nil)
	f.activity.On("Log", ctx, ownerID, mock.MatchedBy(func(e *activity.Entry) bool {
		return e.Type == activity.TypeDataReset
	})).Return(nil)

	require.NoError(t, f.svc.ResetData(ctx, ownerID))
	f.repo.AssertExpectations(t)
	f.activity.AssertExpectations(t)
}

func TestResetData_Failure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boom := errors.New("disk full")
	f.repo.On("DeleteAllUserData", ctx, ownerID).Return(boom)

	require.ErrorIs(t, f.svc.ResetData(ctx, ownerID), boom)
	f.activity.AssertNotCalled(t, "Log", mock.Anything, mock.Anything, mock.Anything)
}
