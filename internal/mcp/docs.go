package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `timeflow is a focus timer with daily goals and streaks.

Core concepts:
- Session: one countdown (default 25 minutes). It is idle, running, paused or completing.
- Daily progress: minutes focused today against the daily goal.
- Streak: consecutive days on which the goal was reached.
- Pending completion: a finished session whose progress could not be saved yet.

Default workflow:
1) Call focus_status before acting; only one session runs at a time.
2) start_focus, then pause_focus / resume_focus as needed.
3) reset_focus stops early; whole elapsed minutes still count.
4) When a result carries a warning, the timer state changed but progress was not saved. Call retry_completion later.
5) Read progress with get_dashboard, get_weekly_series and get_calendar.

Docs:
- timeflow://docs/index
- timeflow://docs/timer
- timeflow://docs/progress
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "timeflow://docs/index",
		Name:        "docs_index",
		Title:       "timeflow docs index",
		Description: "Entry point: available tools and what to read next.",
		Content: `# timeflow: Agent Docs Index

## Tools

Timer: ` + "`start_focus`, `pause_focus`, `resume_focus`, `reset_focus`, `focus_status`, `set_focus_duration`, `retry_completion`" + `

Stats: ` + "`get_dashboard`, `get_weekly_series`, `get_calendar`, `get_achievements`, `get_leaderboard`, `list_sessions`" + `

Profile: ` + "`get_profile`, `set_daily_goal`, `set_display_name`, `reset_data`" + `

Activity: ` + "`get_recent_activity`" + `

## Docs

- ` + "`timeflow://docs/timer`" + ` covers timer states and error codes.
- ` + "`timeflow://docs/progress`" + ` covers goals, streaks and the tree stage.
`,
	},
	{
		URI:         "timeflow://docs/timer",
		Name:        "docs_timer",
		Title:       "Timer states",
		Description: "Timer state machine, completion and failure handling.",
		Content: `# Timer

## States

| State | Allowed operations |
|---|---|
| idle | start_focus, set_focus_duration |
| running | pause_focus, reset_focus |
| paused | resume_focus, reset_focus |
| completing | none; wait for the result |

A running session counts down once per second. At zero the full duration is
credited to today's progress and the timer returns to idle.

reset_focus credits the whole minutes already elapsed as a partial session.
Less than one minute is discarded.

## Errors

- ` + "`SESSION_ACTIVE`" + `: a session is already running or paused.
- ` + "`NOT_ACTIVE`" + `: nothing to pause, resume or reset.
- ` + "`COMPLETING`" + `: a completion is being saved.
- ` + "`INVALID_DURATION`" + `: minutes outside the allowed range.
- ` + "`NO_PENDING_COMPLETION`" + `: retry_completion had nothing to save.

When saving progress fails, the session is kept as a pending completion and the
result carries a ` + "`warning`" + `. Retrying never counts the same session twice.
`,
	},
	{
		URI:         "timeflow://docs/progress",
		Name:        "docs_progress",
		Title:       "Goals and streaks",
		Description: "How daily progress, streaks and the tree stage are computed.",
		Content: `# Progress

## Daily goal

The goal is set with ` + "`set_daily_goal`" + ` (1 to 1440 minutes). Changing it
re-evaluates today: lowering the goal below today's minutes completes the day,
raising it above them un-completes it.

## Streak

The streak grows by one on the first day the goal is reached after the
previous active day. Missing a day resets it. The longest streak is kept.

## Tree stage

Today's percentage of the goal maps to a stage:

| Percent | Stage |
|---|---|
| 0-19 | seed |
| 20-39 | sprout |
| 40-69 | sapling |
| 70-99 | young |
| 100+ | full |
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
