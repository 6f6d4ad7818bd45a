package focus

import "time"

const (
	// DefaultGoalMinutes is the daily goal used when an owner never configured one.
	DefaultGoalMinutes = 60
	// DefaultCategory tags sessions that were started without a category.
	DefaultCategory = "default"
	// MaxGoalMinutes bounds the daily goal to one calendar day.
	MaxGoalMinutes = 24 * 60
)

// Session is an immutable record of one focused work interval.
type Session struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	CommitID  string    `json:"commit_id"`
	Duration  int       `json:"duration"` // minutes
	Completed bool      `json:"completed"`
	Category  string    `json:"category"`
	Notes     string    `json:"notes"`
	Applied   bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyProgress is the per-owner aggregate for one calendar date.
type DailyProgress struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"owner_id"`
	Date             Date      `json:"date"`
	MinutesCompleted int       `json:"minutes_completed"`
	GoalMinutes      int       `json:"goal_minutes"`
	GoalCompleted    bool      `json:"goal_completed"`
	Version          int64     `json:"version"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Percent returns progress toward the goal, capped at 100.
func (p DailyProgress) Percent() float64 {
	if p.GoalMinutes <= 0 {
		return 0
	}
	pct := float64(p.MinutesCompleted) / float64(p.GoalMinutes) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// Streak is the per-owner count of consecutive goal days.
type Streak struct {
	OwnerID        string    `json:"owner_id"`
	CurrentStreak  int       `json:"current_streak"`
	MaxStreak      int       `json:"max_streak"`
	LastActiveDate *Date     `json:"last_active_date,omitempty"`
	Version        int64     `json:"version"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Broken reports whether a calendar day was skipped since the last goal day.
func (s Streak) Broken(today Date) bool {
	if s.LastActiveDate == nil {
		return false
	}
	return s.LastActiveDate.Before(today.AddDays(-1))
}

// Effective returns the streak as it should be displayed on today.
func (s Streak) Effective(today Date) int {
	if s.Broken(today) {
		return 0
	}
	return s.CurrentStreak
}

// Profile holds per-owner settings.
type Profile struct {
	OwnerID     string    `json:"owner_id"`
	DisplayName string    `json:"display_name"`
	GoalMinutes int       `json:"goal_minutes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Totals summarizes completed sessions for an owner.
type Totals struct {
	TotalMinutes      int `json:"total_minutes"`
	CompletedSessions int `json:"completed_sessions"`
}

// LeaderboardEntry ranks an owner by completed minutes.
type LeaderboardEntry struct {
	OwnerID       string `json:"owner_id"`
	DisplayName   string `json:"display_name"`
	Points        int    `json:"points"`
	CurrentStreak int    `json:"current_streak"`
	Rank          int    `json:"rank"`
}

// ListSessionsOptions filters session history.
type ListSessionsOptions struct {
	Since         *time.Time
	CompletedOnly bool
	Limit         int
	Offset        int
}
