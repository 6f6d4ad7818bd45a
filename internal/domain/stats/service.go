// Package stats builds read-only views over sessions, daily progress and
// streaks.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ganot/timeflow/internal/clock"
	"github.com/ganot/timeflow/internal/domain/focus"
	"github.com/ganot/timeflow/internal/repository"
)

const defaultRecentLimit = 20

// StreakChecker returns the owner's streak after read-time break detection.
type StreakChecker interface {
	CheckStreak(ctx context.Context, ownerID string) (*focus.Streak, error)
}

// GoalSource supplies an owner's configured daily goal.
type GoalSource interface {
	GoalMinutes(ctx context.Context, ownerID string) (int, error)
}

// Config tunes the service. Zero values fall back to defaults.
type Config struct {
	Clock    clock.Clock
	Location *time.Location
	Goals    GoalSource
}

// Service computes dashboard, calendar and ranking views.
type Service struct {
	sessions repository.SessionRepository
	progress repository.ProgressRepository
	streaks  StreakChecker
	goals    GoalSource
	clock    clock.Clock
	loc      *time.Location
	logger   *slog.Logger
}

// NewService creates a stats service.
func NewService(sessions repository.SessionRepository, progress repository.ProgressRepository, streaks StreakChecker, cfg Config, logger *slog.Logger) *Service {
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
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
		logger:   logger,
	}
}

func (s *Service) today() focus.Date {
	return focus.DateOf(s.clock.Now(), s.loc)
}

// Dashboard returns today's progress, the effective streak and lifetime totals.
func (s *Service) Dashboard(ctx context.Context, ownerID string) (*Dashboard, error) {
	today := s.today()

	todayProgress, err := s.todayProgress(ctx, ownerID, today)
	if err != nil {
		return nil, err
	}
	streak, err := s.streaks.CheckStreak(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("checking streak: %w", err)
	}
	totals, err := s.sessions.Totals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("computing totals: %w", err)
	}

	pct := todayProgress.Percent()
	return &Dashboard{
		Date:              today,
		Today:             todayProgress,
		Percent:           pct,
		Tree:              TreeStageFor(pct),
		CurrentStreak:     streak.Effective(today),
		MaxStreak:         streak.MaxStreak,
		LastActiveDate:    streak.LastActiveDate,
		TotalMinutes:      totals.TotalMinutes,
		CompletedSessions: totals.CompletedSessions,
	}, nil
}

func (s *Service) todayProgress(ctx context.Context, ownerID string, today focus.Date) (focus.DailyProgress, error) {
	p, err := s.progress.Get(ctx, ownerID, today)
	if err == nil {
		return *p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return focus.DailyProgress{}, fmt.Errorf("getting daily progress: %w", err)
	}
	return focus.DailyProgress{
		OwnerID:     ownerID,
		Date:        today,
		GoalMinutes: s.goal(ctx, ownerID),
	}, nil
}

func (s *Service) goal(ctx context.Context, ownerID string) int {
	if s.goals == nil {
		return focus.DefaultGoalMinutes
	}
	goal, err := s.goals.GoalMinutes(ctx, ownerID)
	if err != nil || goal < 1 {
		return focus.DefaultGoalMinutes
	}
	return goal
}

// WeeklySeries returns minutes per day for the current week, starting Sunday.
// Days after today are always zero.
func (s *Service) WeeklySeries(ctx context.Context, ownerID string) ([]DayMinutes, error) {
	today := s.today()
	start := today.AddDays(-int(today.Weekday()))
	end := start.AddDays(6)

	byDate, err := s.progressByDate(ctx, ownerID, start, end)
	if err != nil {
		return nil, err
	}

	series := make([]DayMinutes, 0, 7)
	for i := 0; i < 7; i++ {
		d := start.AddDays(i)
		bucket := DayMinutes{Date: d, Day: d.Weekday().String()[:3]}
		if p, ok := byDate[d]; ok && !today.Before(d) {
			bucket.Minutes = p.MinutesCompleted
		}
		series = append(series, bucket)
	}
	return series, nil
}

// Calendar returns completion for every day of the current month up to today.
func (s *Service) Calendar(ctx context.Context, ownerID string) ([]CalendarDay, error) {
	today := s.today()
	t := today.Time()
	first := focus.DateOf(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), time.UTC)

	byDate, err := s.progressByDate(ctx, ownerID, first, today)
	if err != nil {
		return nil, err
	}

	var days []CalendarDay
	for d := first; !today.Before(d); d = d.AddDays(1) {
		day := CalendarDay{Date: d}
		if p, ok := byDate[d]; ok {
			day.Completed = p.GoalCompleted
			day.Progress = p.Percent()
		}
		days = append(days, day)
	}
	return days, nil
}

func (s *Service) progressByDate(ctx context.Context, ownerID string, from, to focus.Date) (map[focus.Date]focus.DailyProgress, error) {
	rows, err := s.progress.ListRange(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing daily progress: %w", err)
	}
	byDate := make(map[focus.Date]focus.DailyProgress, len(rows))
	for _, p := range rows {
		byDate[p.Date] = p
	}
	return byDate, nil
}

// Achievements derives milestone progress from totals and the streak.
func (s *Service) Achievements(ctx context.Context, ownerID string) ([]Achievement, error) {
	totals, err := s.sessions.Totals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("computing totals: %w", err)
	}
	streak, err := s.streaks.CheckStreak(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("checking streak: %w", err)
	}
	return evaluate(totals, *streak), nil
}

// Leaderboard returns the top owners by completed minutes and the caller's rank.
func (s *Service) Leaderboard(ctx context.Context, ownerID string, limit int) (*Leaderboard, error) {
	top, err := s.sessions.Ranking(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("ranking owners: %w", err)
	}
	board := &Leaderboard{Top: top}

	you, err := s.sessions.RankOf(ctx, ownerID)
	switch {
	case err == nil:
		board.You = you
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, fmt.Errorf("ranking owner: %w", err)
	}
	return board, nil
}

// RecentSessions lists the owner's latest sessions, newest first.
func (s *Service) RecentSessions(ctx context.Context, ownerID string, limit int) ([]focus.Session, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	sessions, err := s.sessions.List(ctx, ownerID, focus.ListSessionsOptions{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}
