// Package reconcile turns elapsed timer minutes into persisted sessions,
// daily progress and streak updates.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ganot/timeflow/internal/clock"
	"github.com/ganot/timeflow/internal/domain/focus"
	"github.com/ganot/timeflow/internal/metrics"
	"github.com/ganot/timeflow/internal/repository"
	"github.com/google/uuid"
)

const defaultMaxAttempts = 3

// GoalSource supplies an owner's configured daily goal.
type GoalSource interface {
	GoalMinutes(ctx context.Context, ownerID string) (int, error)
}

// Config tunes the service. Zero values fall back to defaults.
type Config struct {
	Clock       clock.Clock
	Location    *time.Location
	MaxAttempts int
	Metrics     *metrics.Metrics
	Goals       GoalSource
}

// SessionInput describes one interval to record.
type SessionInput struct {
	CommitID  string
	Minutes   int
	Completed bool
	Category  string
	Notes     string
}

// Commit is a timer window ready to be reconciled. CommitID stays the same
// across retries of the same window.
type Commit struct {
	CommitID string
	Minutes  int
	Category string
	Notes    string
}

// ProgressUpdate is the result of UpdateDailyProgress.
type ProgressUpdate struct {
	Progress              *focus.DailyProgress
	PreviousGoalCompleted bool
	Created               bool
}

// GoalJustCompleted reports a false to true transition of the goal flag.
func (u *ProgressUpdate) GoalJustCompleted() bool {
	return u != nil && u.Progress != nil && u.Progress.GoalCompleted && !u.PreviousGoalCompleted
}

// StreakUpdate is the result of UpdateStreak.
type StreakUpdate struct {
	Streak      *focus.Streak
	Incremented bool
}

// Outcome summarizes a full session commit.
type Outcome struct {
	Session      *focus.Session
	Progress     *focus.DailyProgress
	Streak       *focus.Streak
	GoalAchieved bool
	// Duplicate is set when the commit ID had already been recorded.
	Duplicate bool
}

// Service is the single writer of sessions, daily progress and streaks.
type Service struct {
	sessions repository.SessionRepository
	progress repository.ProgressRepository
	streaks  repository.StreakRepository
	goals    GoalSource
	clock    clock.Clock
	loc      *time.Location
	attempts int
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService creates a reconciliation service.
func NewService(sessions repository.SessionRepository, progress repository.ProgressRepository, streaks repository.StreakRepository, cfg Config, logger *slog.Logger) *Service {
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		sessions: sessions,
		progress: progress,
		streaks:  streaks,
		goals:    cfg.Goals,
		clock:    cfg.Clock,
		loc:      cfg.Location,
		attempts: cfg.MaxAttempts,
		metrics:  cfg.Metrics,
		logger:   logger,
	}
}

// Today returns the current calendar date in the service's time zone.
func (s *Service) Today() focus.Date {
	return focus.DateOf(s.clock.Now(), s.loc)
}

// RecordSession inserts one immutable session row. A repeated CommitID
// returns repository.ErrDuplicate wrapped in a *PersistenceError.
func (s *Service) RecordSession(ctx context.Context, ownerID string, in SessionInput) (*focus.Session, error) {
	if ownerID == "" {
		return nil, ErrNoOwner
	}
	if in.Minutes < 1 {
		return nil, ErrInvalidMinutes
	}
	if in.Category == "" {
		in.Category = focus.DefaultCategory
	}
	if in.CommitID == "" {
		in.CommitID = uuid.NewString()
	}
	sess := &focus.Session{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		CommitID:  in.CommitID,
		Duration:  in.Minutes,
		Completed: in.Completed,
		Category:  in.Category,
		Notes:     in.Notes,
		CreatedAt: s.clock.Now(),
	}
	if err := s.sessions.Insert(ctx, ownerID, sess); err != nil {
		return nil, persistErr("insert session", err)
	}
	return sess, nil
}

// UpdateDailyProgress adds minutesDelta to today's row, creating it on first
// use. goalOverride, when set, replaces the stored goal.
func (s *Service) UpdateDailyProgress(ctx context.Context, ownerID string, minutesDelta int, goalOverride *int) (*ProgressUpdate, error) {
	return s.updateProgress(ctx, ownerID, minutesDelta, goalOverride, "")
}

// updateProgress adds minutesDelta to today's row. A non-empty sessionID is
// marked applied in the same write.
func (s *Service) updateProgress(ctx context.Context, ownerID string, minutesDelta int, goalOverride *int, sessionID string) (*ProgressUpdate, error) {
	if ownerID == "" {
		return nil, ErrNoOwner
	}
	if minutesDelta < 0 {
		return nil, ErrInvalidMinutes
	}

	for attempt := 1; attempt <= s.attempts; attempt++ {
		today := s.Today()
		existing, err := s.progress.Get(ctx, ownerID, today)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, persistErr("get daily progress", err)
		}

		var (
			next     focus.DailyProgress
			expected int64
			prevDone bool
		)
		if existing == nil {
			goal := s.defaultGoal(ctx, ownerID)
			if goalOverride != nil {
				goal = *goalOverride
			}
			next = focus.DailyProgress{
				ID:               uuid.NewString(),
				OwnerID:          ownerID,
				Date:             today,
				MinutesCompleted: minutesDelta,
				GoalMinutes:      goal,
			}
		} else {
			next = *existing
			expected = existing.Version
			prevDone = existing.GoalCompleted
			next.MinutesCompleted += minutesDelta
			if goalOverride != nil {
				next.GoalMinutes = *goalOverride
			}
		}
		next.GoalCompleted = next.MinutesCompleted >= next.GoalMinutes
		next.UpdatedAt = s.clock.Now()

		if sessionID != "" {
			err = s.progress.ApplySession(ctx, ownerID, sessionID, &next, expected)
		} else {
			err = s.progress.Upsert(ctx, ownerID, &next, expected)
		}
		if errors.Is(err, repository.ErrConflict) {
			s.metrics.Conflict("daily_progress")
			s.logger.Debug("daily progress version conflict", "owner_id", ownerID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, persistErr("upsert daily progress", err)
		}
		return &ProgressUpdate{Progress: &next, PreviousGoalCompleted: prevDone, Created: existing == nil}, nil
	}
	return nil, persistErr("upsert daily progress", repository.ErrConflict)
}

func (s *Service) defaultGoal(ctx context.Context, ownerID string) int {
	if s.goals == nil {
		return focus.DefaultGoalMinutes
	}
	goal, err := s.goals.GoalMinutes(ctx, ownerID)
	if err != nil || goal < 1 {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("goal lookup failed, using default", "owner_id", ownerID, "error", err)
		}
		return focus.DefaultGoalMinutes
	}
	return goal
}

// UpdateStreak credits today to the owner's streak when the goal was just
// completed. A day already credited is never credited again.
func (s *Service) UpdateStreak(ctx context.Context, ownerID string, goalJustCompleted, wasAlreadyCompletedToday bool) (*StreakUpdate, error) {
	if ownerID == "" {
		return nil, ErrNoOwner
	}
	if !goalJustCompleted || wasAlreadyCompletedToday {
		return &StreakUpdate{}, nil
	}

	for attempt := 1; attempt <= s.attempts; attempt++ {
		today := s.Today()
		cur, err := s.streaks.Get(ctx, ownerID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, persistErr("get streak", err)
		}
		var expected int64
		next := focus.Streak{OwnerID: ownerID}
		if cur != nil {
			next = *cur
			expected = cur.Version
		}
		if next.LastActiveDate != nil && *next.LastActiveDate == today {
			return &StreakUpdate{Streak: &next}, nil
		}
		if next.Broken(today) {
			next.CurrentStreak = 0
		}
		next.CurrentStreak++
		next.MaxStreak = max(next.MaxStreak, next.CurrentStreak)
		next.LastActiveDate = today.Ptr()
		next.UpdatedAt = s.clock.Now()

		err = s.streaks.Upsert(ctx, ownerID, &next, expected)
		if errors.Is(err, repository.ErrConflict) {
			s.metrics.Conflict("streak")
			continue
		}
		if err != nil {
			return nil, persistErr("upsert streak", err)
		}
		return &StreakUpdate{Streak: &next, Incremented: true}, nil
	}
	return nil, persistErr("upsert streak", repository.ErrConflict)
}

// CheckStreak returns the owner's streak, persisting a reset when a day was
// skipped since the last credited day.
func (s *Service) CheckStreak(ctx context.Context, ownerID string) (*focus.Streak, error) {
	if ownerID == "" {
		return nil, ErrNoOwner
	}
	for attempt := 1; attempt <= s.attempts; attempt++ {
		cur, err := s.streaks.Get(ctx, ownerID)
		if errors.Is(err, repository.ErrNotFound) {
			return &focus.Streak{OwnerID: ownerID}, nil
		}
		if err != nil {
			return nil, persistErr("get streak", err)
		}
		if !cur.Broken(s.Today()) || cur.CurrentStreak == 0 {
			return cur, nil
		}
		next := *cur
		next.CurrentStreak = 0
		next.UpdatedAt = s.clock.Now()
		err = s.streaks.Upsert(ctx, ownerID, &next, cur.Version)
		if errors.Is(err, repository.ErrConflict) {
			s.metrics.Conflict("streak")
			continue
		}
		if err != nil {
			return nil, persistErr("reset streak", err)
		}
		s.logger.Info("streak reset after missed day", "owner_id", ownerID, "last_active", cur.LastActiveDate)
		return &next, nil
	}
	return nil, persistErr("reset streak", repository.ErrConflict)
}

// RecordPartial commits an interrupted window as an incomplete session.
func (s *Service) RecordPartial(ctx context.Context, ownerID string, c Commit) (*Outcome, error) {
	return s.record(ctx, "partial", ownerID, c, false)
}

// RecordCompletion commits a fully elapsed session.
func (s *Service) RecordCompletion(ctx context.Context, ownerID string, c Commit) (*Outcome, error) {
	return s.record(ctx, "completion", ownerID, c, true)
}

func (s *Service) record(ctx context.Context, kind, ownerID string, c Commit, completed bool) (out *Outcome, err error) {
	started := s.clock.Now()
	defer func() {
		s.metrics.ObserveCommit(kind, err, s.clock.Now().Sub(started))
	}()

	sess, err := s.RecordSession(ctx, ownerID, SessionInput{
		CommitID:  c.CommitID,
		Minutes:   c.Minutes,
		Completed: completed,
		Category:  c.Category,
		Notes:     c.Notes,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return s.resume(ctx, ownerID, c, completed)
	}
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, ownerID, sess)
}

// resume finishes a commit whose session row already exists.
func (s *Service) resume(ctx context.Context, ownerID string, c Commit, completed bool) (*Outcome, error) {
	sess, err := s.sessions.GetByCommit(ctx, ownerID, c.CommitID)
	if err != nil {
		return nil, persistErr("get session by commit", err)
	}
	if sess.Completed != completed {
		return nil, fmt.Errorf("%w: %s", ErrCommitKindMismatch, c.CommitID)
	}
	if !sess.Applied {
		s.logger.Info("resuming unapplied session commit", "owner_id", ownerID, "commit_id", c.CommitID)
		return s.apply(ctx, ownerID, sess)
	}

	out := &Outcome{Session: sess, Duplicate: true}
	p, err := s.progress.Get(ctx, ownerID, s.Today())
	if errors.Is(err, repository.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, persistErr("get daily progress", err)
	}
	out.Progress = p
	if p.GoalCompleted {
		// UpdateStreak skips days that were already credited.
		upd, err := s.UpdateStreak(ctx, ownerID, true, false)
		if err != nil {
			return nil, err
		}
		out.Streak = upd.Streak
		out.GoalAchieved = upd.Incremented
	}
	return out, nil
}

func (s *Service) apply(ctx context.Context, ownerID string, sess *focus.Session) (*Outcome, error) {
	prog, err := s.updateProgress(ctx, ownerID, sess.Duration, nil, sess.ID)
	if err != nil {
		return nil, err
	}
	sess.Applied = true

	upd, err := s.UpdateStreak(ctx, ownerID, prog.GoalJustCompleted(), prog.PreviousGoalCompleted)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Session:      sess,
		Progress:     prog.Progress,
		Streak:       upd.Streak,
		GoalAchieved: prog.GoalJustCompleted(),
	}, nil
}
