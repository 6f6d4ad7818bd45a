package activity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ganot/timeflow/internal/clock"
	"github.com/ganot/timeflow/internal/domain/activity"
	"github.com/ganot/timeflow/internal/domain/focus"
	"github.com/ganot/timeflow/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_LogAndList(t *testing.T) {
	ctx := context.Background()
	ownerID := "owner1"
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	repo := &mocks.ActivityRepository{}
	entry := &activity.Entry{
		Type:    activity.TypeSessionStarted,
		Summary: "started",
	}

	repo.On("Log", ctx, ownerID, entry).Return(nil)
	repo.On("List", ctx, ownerID, activity.ListOptions{Limit: 50}).Return([]activity.Entry{*entry}, nil)

	svc := activity.NewService(repo, clock.NewFake(now), nil)
	require.NoError(t, svc.LogActivity(ctx, ownerID, entry))
	require.Equal(t, now, entry.CreatedAt)
	require.Equal(t, ownerID, entry.OwnerID)

	entries, err := svc.GetRecentActivity(ctx, ownerID, activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	repo.AssertExpectations(t)
}

func TestActivityService_RejectsNilEntry(t *testing.T) {
	svc := activity.NewService(&mocks.ActivityRepository{}, nil, nil)
	err := svc.LogActivity(context.Background(), "owner1", nil)
	require.ErrorIs(t, err, activity.ErrInvalidInput)
}

func TestSubscriber_SkipsTicks(t *testing.T) {
	repo := &mocks.ActivityRepository{}
	svc := activity.NewService(repo, nil, nil)

	svc.Subscriber("owner1").Notify(focus.Event{Type: focus.EventTick, SecondsLeft: 10})

	repo.AssertNotCalled(t, "Log", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubscriber_LogsLifecycleEvents(t *testing.T) {
	repo := &mocks.ActivityRepository{}
	at := time.Date(2026, 3, 2, 9, 25, 0, 0, time.UTC)
	repo.On("Log", mock.Anything, "owner1", mock.MatchedBy(func(e *activity.Entry) bool {
		return e.Type == activity.TypeSessionCompleted && e.CreatedAt.Equal(at) && e.Summary == "completed a 25 minute session"
	})).Return(nil)

	svc := activity.NewService(repo, nil, nil)
	svc.Subscriber("owner1").Notify(focus.Event{Type: focus.EventCompleted, Minutes: 25, At: at})

	repo.AssertExpectations(t)
}

func TestSubscriber_SwallowsWriteErrors(t *testing.T) {
	repo := &mocks.ActivityRepository{}
	repo.On("Log", mock.Anything, "owner1", mock.Anything).Return(errors.New("disk full"))

	svc := activity.NewService(repo, nil, nil)
	require.NotPanics(t, func() {
		svc.Subscriber("owner1").Notify(focus.Event{Type: focus.EventReset})
	})
}
