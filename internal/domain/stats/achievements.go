package stats

import "github.com/ganot/timeflow/internal/domain/focus"

type milestone struct {
	id, title, description string
	target                 int
	value                  func(focus.Totals, focus.Streak) int
}

var milestones = []milestone{
	{"first_session", "First Session", "Complete your first focus session", 1,
		func(t focus.Totals, _ focus.Streak) int { return t.CompletedSessions }},
	{"focus_hour", "Focus Hour", "Focus for 60 minutes in total", 60,
		func(t focus.Totals, _ focus.Streak) int { return t.TotalMinutes }},
	{"ten_hours", "Ten Hours", "Focus for 10 hours in total", 600,
		func(t focus.Totals, _ focus.Streak) int { return t.TotalMinutes }},
	{"streak_3", "Three Day Streak", "Reach your daily goal 3 days in a row", 3,
		func(_ focus.Totals, s focus.Streak) int { return s.MaxStreak }},
	{"streak_7", "Week Streak", "Reach your daily goal 7 days in a row", 7,
		func(_ focus.Totals, s focus.Streak) int { return s.MaxStreak }},
	{"streak_30", "Month Streak", "Reach your daily goal 30 days in a row", 30,
		func(_ focus.Totals, s focus.Streak) int { return s.MaxStreak }},
}

// evaluate derives achievements from totals and the best streak. Streak
// milestones use MaxStreak so they never lock again after a break.
func evaluate(totals focus.Totals, streak focus.Streak) []Achievement {
	out := make([]Achievement, 0, len(milestones))
	for _, m := range milestones {
		v := m.value(totals, streak)
		progress := min(100, v*100/m.target)
		out = append(out, Achievement{
			ID:          m.id,
			Title:       m.title,
			Description: m.description,
			Unlocked:    v >= m.target,
			Progress:    max(0, progress),
		})
	}
	return out
}
