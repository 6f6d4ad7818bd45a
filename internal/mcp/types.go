package mcp

import (
	"time"

	"github.com/ganot/timeflow/internal/domain/activity"
	"github.com/ganot/timeflow/internal/domain/focus"
	"github.com/ganot/timeflow/internal/domain/stats"
	"github.com/ganot/timeflow/internal/domain/timer"
)

type StartTimerParams struct {
	Minutes int `json:"minutes,omitempty" jsonschema:"session length in minutes; omit to use the configured duration"`
}

type SetDurationParams struct {
	Minutes int `json:"minutes" jsonschema:"length of the next session in minutes"`
}

type EmptyParams struct{}

type LimitParams struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of entries to return"`
}

type SetGoalParams struct {
	Minutes int `json:"minutes" jsonschema:"daily focus goal in minutes (1-1440)"`
}

type SetNameParams struct {
	DisplayName string `json:"display_name" jsonschema:"name shown on the leaderboard"`
}

type ResetDataParams struct {
	Confirm bool `json:"confirm" jsonschema:"must be true; deletes all sessions, progress, streak and activity"`
}

type RecentActivityParams struct {
	Type   string `json:"type,omitempty" jsonschema:"only entries of this activity type"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of entries"`
	Offset int    `json:"offset,omitempty" jsonschema:"entries to skip"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Warning string `json:"warning,omitempty"`
}

// TimerResponse carries the timer status after an operation. Warning is set
// when the operation took effect but its progress could not be saved yet.
type TimerResponse struct {
	Timer   timer.Status `json:"timer"`
	Warning string       `json:"warning,omitempty"`
}

type WeeklyResponse struct {
	Days         []stats.DayMinutes `json:"days"`
	TotalMinutes int                `json:"total_minutes"`
}

type CalendarResponse struct {
	Days          []stats.CalendarDay `json:"days"`
	CompletedDays int                 `json:"completed_days"`
}

type SessionsResponse struct {
	Sessions []focus.Session `json:"sessions"`
}

type ActivityEntryResponse struct {
	Timestamp time.Time     `json:"timestamp"`
	Type      activity.Type `json:"type"`
	Summary   string        `json:"summary"`
	Details   string        `json:"details,omitempty"`
}
