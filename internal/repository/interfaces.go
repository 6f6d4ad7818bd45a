package repository

import (
	"context"

	"github.com/ganot/timeflow/internal/domain/activity"
	"github.com/ganot/timeflow/internal/domain/focus"
)

// SessionRepository manages focus session persistence.
type SessionRepository interface {
	// Insert stores a session. A repeated commit ID yields ErrDuplicate.
	Insert(ctx context.Context, ownerID string, sess *focus.Session) error
	GetByCommit(ctx context.Context, ownerID, commitID string) (*focus.Session, error)
	List(ctx context.Context, ownerID string, opts focus.ListSessionsOptions) ([]focus.Session, error)
	Totals(ctx context.Context, ownerID string) (focus.Totals, error)
	Ranking(ctx context.Context, limit int) ([]focus.LeaderboardEntry, error)
	RankOf(ctx context.Context, ownerID string) (*focus.LeaderboardEntry, error)
}

// ProgressRepository manages per-day progress aggregates.
type ProgressRepository interface {
	Get(ctx context.Context, ownerID string, date focus.Date) (*focus.DailyProgress, error)
	// Upsert inserts when expectedVersion is 0 and otherwise updates only if
	// the stored version still matches. On success p.Version is advanced.
	Upsert(ctx context.Context, ownerID string, p *focus.DailyProgress, expectedVersion int64) error
	// ApplySession performs Upsert and marks the session's minutes as
	// applied atomically. An already applied session yields ErrDuplicate.
	ApplySession(ctx context.Context, ownerID, sessionID string, p *focus.DailyProgress, expectedVersion int64) error
	ListRange(ctx context.Context, ownerID string, from, to focus.Date) ([]focus.DailyProgress, error)
}

// StreakRepository manages per-owner streak rows.
type StreakRepository interface {
	Get(ctx context.Context, ownerID string) (*focus.Streak, error)
	Upsert(ctx context.Context, ownerID string, s *focus.Streak, expectedVersion int64) error
}

// ProfileRepository manages owner settings.
type ProfileRepository interface {
	Get(ctx context.Context, ownerID string) (*focus.Profile, error)
	Upsert(ctx context.Context, p *focus.Profile) error
	GoalMinutes(ctx context.Context, ownerID string) (int, error)
	// DeleteAllUserData removes sessions, progress, streak, snapshot and
	// activity rows for ownerID in a single transaction.
	DeleteAllUserData(ctx context.Context, ownerID string) error
}

// SnapshotRepository stores an encoded timer snapshot per owner.
type SnapshotRepository interface {
	Get(ctx context.Context, ownerID string) ([]byte, error)
	Put(ctx context.Context, ownerID string, data []byte) error
	Delete(ctx context.Context, ownerID string) error
}

// ActivityRepository manages activity log persistence.
type ActivityRepository interface {
	Log(ctx context.Context, ownerID string, entry *activity.Entry) error
	List(ctx context.Context, ownerID string, opts activity.ListOptions) ([]activity.Entry, error)
}

// APIKeyRepository resolves bearer tokens to owners.
type APIKeyRepository interface {
	Create(ctx context.Context, ownerID, token, description string) error
	ResolveOwner(ctx context.Context, token string) (string, error)
}
