// Package profile manages per-owner settings: the daily goal, the display
// name and the bulk data reset.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ganot/timeflow/internal/clock"
	"github.com/ganot/timeflow/internal/domain/activity"
	"github.com/ganot/timeflow/internal/domain/focus"
	"github.com/ganot/timeflow/internal/domain/reconcile"
	"github.com/ganot/timeflow/internal/repository"
)

const maxNameLength = 100

// Reconciler re-derives today's progress after a goal change.
type Reconciler interface {
	UpdateDailyProgress(ctx context.Context, ownerID string, minutesDelta int, goalOverride *int) (*reconcile.ProgressUpdate, error)
	UpdateStreak(ctx context.Context, ownerID string, goalJustCompleted, wasAlreadyCompletedToday bool) (*reconcile.StreakUpdate, error)
}

// ActivityLogger records settings changes.
type ActivityLogger interface {
	LogActivity(ctx context.Context, ownerID string, entry *activity.Entry) error
}

// GoalUpdate is the result of UpdateGoal.
type GoalUpdate struct {
	Profile      *focus.Profile       `json:"profile"`
	Today        *focus.DailyProgress `json:"today"`
	GoalAchieved bool                 `json:"goal_achieved"`
}

// Limits bounds the daily goal. Zero fields keep the defaults.
type Limits struct {
	DefaultGoal int
	MinGoal     int
	MaxGoal     int
}

// Service handles profile operations.
type Service struct {
	repo     repository.ProfileRepository
	rec      Reconciler
	activity ActivityLogger
	clock    clock.Clock
	limits   Limits
	logger   *slog.Logger
}

// NewService creates a new profile service. activity may be nil.
func NewService(repo repository.ProfileRepository, rec Reconciler, activity ActivityLogger, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:     repo,
		rec:      rec,
		activity: activity,
		clock:    clk,
		limits:   Limits{DefaultGoal: focus.DefaultGoalMinutes, MinGoal: 1, MaxGoal: focus.MaxGoalMinutes},
		logger:   logger,
	}
}

// WithLimits narrows the accepted goal range.
func (s *Service) WithLimits(l Limits) *Service {
	if l.MinGoal >= 1 {
		s.limits.MinGoal = l.MinGoal
	}
	if l.MaxGoal >= s.limits.MinGoal && l.MaxGoal <= focus.MaxGoalMinutes {
		s.limits.MaxGoal = l.MaxGoal
	}
	if l.DefaultGoal >= s.limits.MinGoal && l.DefaultGoal <= s.limits.MaxGoal {
		s.limits.DefaultGoal = l.DefaultGoal
	}
	return s
}

// Get returns the owner's profile, creating the default one if missing.
func (s *Service) Get(ctx context.Context, ownerID string) (*focus.Profile, error) {
	if ownerID == "" {
		return nil, ErrNoOwner
	}
	p, err := s.repo.Get(ctx, ownerID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("getting profile: %w", err)
	}

	now := s.clock.Now()
	p = &focus.Profile{
		OwnerID:     ownerID,
		GoalMinutes: s.limits.DefaultGoal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	return p, nil
}

// UpdateGoal changes the daily goal and applies it to today's progress row.
// Lowering the goal below today's minutes completes the goal and may extend
// the streak.
func (s *Service) UpdateGoal(ctx context.Context, ownerID string, minutes int) (*GoalUpdate, error) {
	if minutes < s.limits.MinGoal || minutes > s.limits.MaxGoal {
		return nil, fmt.Errorf("%w: %d not in %d..%d", ErrInvalidGoal, minutes, s.limits.MinGoal, s.limits.MaxGoal)
	}
	p, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	previous := p.GoalMinutes
	p.GoalMinutes = minutes
	p.UpdatedAt = s.clock.Now()
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("updating goal: %w", err)
	}

	upd, err := s.rec.UpdateDailyProgress(ctx, ownerID, 0, &minutes)
	if err != nil {
		return nil, fmt.Errorf("applying goal to today: %w", err)
	}
	if _, err := s.rec.UpdateStreak(ctx, ownerID, upd.GoalJustCompleted(), upd.PreviousGoalCompleted); err != nil {
		return nil, fmt.Errorf("updating streak: %w", err)
	}

	s.log(ctx, ownerID, activity.TypeGoalUpdated,
		fmt.Sprintf("Daily goal changed from %d to %d minutes", previous, minutes))
	if upd.GoalJustCompleted() {
		s.log(ctx, ownerID, activity.TypeGoalAchieved, "Daily goal achieved")
	}
	s.logger.Info("daily goal updated", "owner_id", ownerID, "goal_minutes", minutes)

	return &GoalUpdate{Profile: p, Today: upd.Progress, GoalAchieved: upd.GoalJustCompleted()}, nil
}

// UpdateDisplayName sets the name shown on the leaderboard.
func (s *Service) UpdateDisplayName(ctx context.Context, ownerID, name string) (*focus.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return nil, ErrInvalidName
	}
	p, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	p.DisplayName = name
	p.UpdatedAt = s.clock.Now()
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("updating display name: %w", err)
	}
	return p, nil
}

// ResetData deletes every session, progress row, streak, snapshot and
// activity entry of the owner. The profile itself is kept.
func (s *Service) ResetData(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return ErrNoOwner
	}
	if err := s.repo.DeleteAllUserData(ctx, ownerID); err != nil {
		return fmt.Errorf("resetting data: %w", err)
	}
	s.log(ctx, ownerID, activity.TypeDataReset, "All focus data was reset")
	s.logger.Warn("owner data reset", "owner_id", ownerID)
	return nil
}

func (s *Service) log(ctx context.Context, ownerID string, typ activity.Type, summary string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.LogActivity(ctx, ownerID, &activity.Entry{Type: typ, Summary: summary}); err != nil {
		s.logger.Warn("failed to log activity", "owner_id", ownerID, "type", typ, "error", err)
	}
}
