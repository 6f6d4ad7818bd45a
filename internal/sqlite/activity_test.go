package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/timeflow/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

	repo := NewActivityRepository(db)
	entry1 := &activity.Entry{
		Type:      activity.TypeSessionStarted,
		Summary:   "Started a 25 minute session",
		CreatedAt: base,
	}
	entry2 := &activity.Entry{
		Type:      activity.TypeSessionCompleted,
		Summary:   "Completed a 25 minute session",
		Details:   `{"minutes":25}`,
		CreatedAt: base.Add(25 * time.Minute),
	}

	require.NoError(t, repo.Log(ctx, "owner1", entry1))
	require.NoError(t, repo.Log(ctx, "owner1", entry2))
	require.NotZero(t, entry1.ID)
	require.Equal(t, "owner1", entry2.OwnerID)

	entries, err := repo.List(ctx, "owner1", activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entry2.Type, entries[0].Type)
	require.Equal(t, `{"minutes":25}`, entries[0].Details)
	require.Equal(t, entry1.Type, entries[1].Type)
}

func TestActivityRepository_FiltersAndOwnerIsolation(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)
	base := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

	types := []activity.Type{
		activity.TypeSessionStarted,
		activity.TypeSessionPaused,
		activity.TypeSessionStarted,
	}
	for i, typ := range types {
		require.NoError(t, repo.Log(ctx, "owner1", &activity.Entry{
			Type:      typ,
			Summary:   string(typ),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Log(ctx, "owner2", &activity.Entry{Type: activity.TypeSessionStarted, Summary: "other"}))

	started := activity.TypeSessionStarted
	entries, err := repo.List(ctx, "owner1", activity.ListOptions{Type: &started})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	page, err := repo.List(ctx, "owner1", activity.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, activity.TypeSessionPaused, page[0].Type)

	other, err := repo.List(ctx, "owner2", activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, other, 1)
	require.Equal(t, "owner2", other[0].OwnerID)
}
