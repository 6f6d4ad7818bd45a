package stats

import "github.com/ganot/timeflow/internal/domain/focus"

// TreeStage is the growth stage of the daily energy tree.
type TreeStage string

const (
	StageSeed    TreeStage = "seed"
	StageSprout  TreeStage = "sprout"
	StageSapling TreeStage = "sapling"
	StageYoung   TreeStage = "young"
	StageFull    TreeStage = "full"
)

// Dashboard is the home screen aggregate for one owner.
type Dashboard struct {
	Date              focus.Date          `json:"date"`
	Today             focus.DailyProgress `json:"today"`
	Percent           float64             `json:"percent"`
	Tree              TreeStage           `json:"tree"`
	CurrentStreak     int                 `json:"current_streak"`
	MaxStreak         int                 `json:"max_streak"`
	LastActiveDate    *focus.Date         `json:"last_active_date,omitempty"`
	TotalMinutes      int                 `json:"total_minutes"`
	CompletedSessions int                 `json:"completed_sessions"`
}

// DayMinutes is one bucket of the weekly series.
type DayMinutes struct {
	Date    focus.Date `json:"date"`
	Day     string     `json:"day"`
	Minutes int        `json:"minutes"`
}

// CalendarDay is one cell of the monthly completion map.
type CalendarDay struct {
	Date      focus.Date `json:"date"`
	Completed bool       `json:"completed"`
	Progress  float64    `json:"progress"`
}

// Achievement is a derived milestone with progress toward unlocking it.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
	Progress    int    `json:"progress"`
}

// Leaderboard is the top of the ranking plus the caller's own position.
type Leaderboard struct {
	Top []focus.LeaderboardEntry `json:"top"`
	You *focus.LeaderboardEntry  `json:"you,omitempty"`
}
