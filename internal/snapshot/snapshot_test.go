package snapshot_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ganot/timeflow/internal/repository"
	"github.com/ganot/timeflow/internal/repository/mocks"
	"github.com/ganot/timeflow/internal/snapshot"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleState() *snapshot.State {
	start := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	tick := start.Add(30 * time.Second)
	return &snapshot.State{
		Active:          true,
		SessionDuration: 25,
		SecondsLeft:     1470,
		StartTime:       start,
		AccumulatedTime: 0,
		LastUpdateTime:  start,
		LastTickTime:    &tick,
		CommitID:        "c1",
		Category:        "writing",
	}
}

func TestFileStore_RoundTripAndClear(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewFileStore(filepath.Join(t.TempDir(), "nested", "timer.json"))

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, snapshot.ErrNotFound)

	want := sampleState()
	require.NoError(t, store.Save(ctx, want))
	_, err = os.Stat(store.Path() + ".tmp")
	require.True(t, os.IsNotExist(err))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want.SecondsLeft, got.SecondsLeft)
	require.True(t, want.LastTickTime.Equal(*got.LastTickTime))
	require.Equal(t, "writing", got.Category)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	require.ErrorIs(t, err, snapshot.ErrNotFound)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timer.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := snapshot.NewFileStore(path).Load(context.Background())
	require.ErrorIs(t, err, snapshot.ErrCorrupt)
}

func TestDecode_UsesCamelCaseFields(t *testing.T) {
	st, err := snapshot.Decode([]byte(`{"active":true,"paused":false,"sessionDuration":25,"secondsLeft":100,` +
		`"startTime":"2026-03-04T09:00:00Z","accumulatedTime":12,"lastUpdateTime":"2026-03-04T09:10:00Z"}`))
	require.NoError(t, err)
	require.Equal(t, 100, st.SecondsLeft)
	require.Equal(t, 12, st.AccumulatedTime)
	require.Nil(t, st.LastTickTime)

	_, err = snapshot.Decode([]byte(`{"sessionDuration":0,"secondsLeft":10}`))
	require.ErrorIs(t, err, snapshot.ErrCorrupt)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewMemoryStore()
	_, err := store.Load(ctx)
	require.ErrorIs(t, err, snapshot.ErrNotFound)

	require.NoError(t, store.Save(ctx, sampleState()))
	require.NotNil(t, store.Raw())
	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "c1", got.CommitID)

	store.SetRaw([]byte("garbage"))
	_, err = store.Load(ctx)
	require.ErrorIs(t, err, snapshot.ErrCorrupt)
}

func TestRepoStore(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SnapshotRepository{}
	store := snapshot.NewRepoStore(repo, "owner1")

	repo.On("Get", ctx, "owner1").Return(nil, repository.ErrNotFound).Once()
	_, err := store.Load(ctx)
	require.ErrorIs(t, err, snapshot.ErrNotFound)

	repo.On("Put", ctx, "owner1", mock.AnythingOfType("[]uint8")).Return(nil)
	require.NoError(t, store.Save(ctx, sampleState()))

	repo.On("Delete", ctx, "owner1").Return(repository.ErrNotFound)
	require.NoError(t, store.Clear(ctx))

	repo.On("Get", ctx, "owner1").Return(nil, errors.New("db closed")).Once()
	_, err = store.Load(ctx)
	require.Error(t, err)
	require.NotErrorIs(t, err, snapshot.ErrNotFound)
}
