package mocks

import (
	"context"

	"github.com/ganot/timeflow/internal/domain/activity"
	"github.com/ganot/timeflow/internal/domain/focus"
	"github.com/stretchr/testify/mock"
)

// SessionRepository is a mock for repository.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Insert(ctx context.Context, ownerID string, sess *focus.Session) error {
	args := m.Called(ctx, ownerID, sess)
	return args.Error(0)
}

func (m *SessionRepository) GetByCommit(ctx context.Context, ownerID, commitID string) (*focus.Session, error) {
	args := m.Called(ctx, ownerID, commitID)
	if sess, ok := args.Get(0).(*focus.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) List(ctx context.Context, ownerID string, opts focus.ListSessionsOptions) ([]focus.Session, error) {
	args := m.Called(ctx, ownerID, opts)
	if list, ok := args.Get(0).([]focus.Session); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Totals(ctx context.Context, ownerID string) (focus.Totals, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(focus.Totals), args.Error(1)
}

func (m *SessionRepository) Ranking(ctx context.Context, limit int) ([]focus.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if list, ok := args.Get(0).([]focus.LeaderboardEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) RankOf(ctx context.Context, ownerID string) (*focus.LeaderboardEntry, error) {
	args := m.Called(ctx, ownerID)
	if entry, ok := args.Get(0).(*focus.LeaderboardEntry); ok {
		return entry, args.Error(1)
	}
	return nil, args.Error(1)
}

// ProgressRepository is a mock for repository.ProgressRepository.
type ProgressRepository struct {
	mock.Mock
}

func (m *ProgressRepository) Get(ctx context.Context, ownerID string, date focus.Date) (*focus.DailyProgress, error) {
	args := m.Called(ctx, ownerID, date)
	if p, ok := args.Get(0).(*focus.DailyProgress); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProgressRepository) Upsert(ctx context.Context, ownerID string, p *focus.DailyProgress, expectedVersion int64) error {
	args := m.Called(ctx, ownerID, p, expectedVersion)
	return args.Error(0)
}

func (m *ProgressRepository) ApplySession(ctx context.Context, ownerID, sessionID string, p *focus.DailyProgress, expectedVersion int64) error {
	args := m.Called(ctx, ownerID, sessionID, p, expectedVersion)
	return args.Error(0)
}

func (m *ProgressRepository) ListRange(ctx context.Context, ownerID string, from, to focus.Date) ([]focus.DailyProgress, error) {
	args := m.Called(ctx, ownerID, from, to)
	if list, ok := args.Get(0).([]focus.DailyProgress); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// StreakRepository is a mock for repository.StreakRepository.
type StreakRepository struct {
	mock.Mock
}

func (m *StreakRepository) Get(ctx context.Context, ownerID string) (*focus.Streak, error) {
	args := m.Called(ctx, ownerID)
	if s, ok := args.Get(0).(*focus.Streak); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StreakRepository) Upsert(ctx context.Context, ownerID string, s *focus.Streak, expectedVersion int64) error {
	args := m.Called(ctx, ownerID, s, expectedVersion)
	return args.Error(0)
}

// ProfileRepository is a mock for repository.ProfileRepository.
type ProfileRepository struct {
	mock.Mock
}

func (m *ProfileRepository) Get(ctx context.Context, ownerID string) (*focus.Profile, error) {
	args := m.Called(ctx, ownerID)
	if p, ok := args.Get(0).(*focus.Profile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProfileRepository) Upsert(ctx context.Context, p *focus.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProfileRepository) GoalMinutes(ctx context.Context, ownerID string) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

func (m *ProfileRepository) DeleteAllUserData(ctx context.Context, ownerID string) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

// SnapshotRepository is a mock for repository.SnapshotRepository.
type SnapshotRepository struct {
	mock.Mock
}

func (m *SnapshotRepository) Get(ctx context.Context, ownerID string) ([]byte, error) {
	args := m.Called(ctx, ownerID)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SnapshotRepository) Put(ctx context.Context, ownerID string, data []byte) error {
	args := m.Called(ctx, ownerID, data)
	return args.Error(0)
}

func (m *SnapshotRepository) Delete(ctx context.Context, ownerID string) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, ownerID string, entry *activity.Entry) error {
	args := m.Called(ctx, ownerID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, ownerID string, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, ownerID, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
