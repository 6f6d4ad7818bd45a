package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// addTool registers a typed tool. Results and API errors are returned as JSON
// text content so every client sees the same payload as the JSON-RPC endpoint.
func addTool[In any](server *sdkmcp.Server, name, description string, fn func(ctx context.Context, ownerID string, in In) (any, error)) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        name,
		Description: description,
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
		ownerID := getOwnerID(ctx)
		if ownerID == "" {
			return errorResult(&APIError{Code: CodeUnauthorized, Message: "no owner for request"}), nil, nil
		}
		out, err := fn(ctx, ownerID, in)
		if err != nil {
			apiErr := MapError(err)
			if apiErr == nil {
				return nil, nil, err
			}
			return errorResult(apiErr), nil, nil
		}
		return jsonResult(out), nil, nil
	})
}

func jsonResult(v any) *sdkmcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(&APIError{Code: CodePersistenceFailed, Message: fmt.Sprintf("encode result: %v", err)})
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}

func errorResult(apiErr *APIError) *sdkmcp.CallToolResult {
	data, _ := json.Marshal(apiErr)
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}

func registerTools(server *sdkmcp.Server, h *Handler) {
	// Timer

	addTool(server, "start_focus", "Start a focus session. Fails with SESSION_ACTIVE while another session is running or paused.",
		func(ctx context.Context, ownerID string, in StartTimerParams) (any, error) {
			return h.StartTimer(ctx, ownerID, in)
		})
	addTool(server, "pause_focus", "Pause the running focus session, keeping the remaining time.",
		func(ctx context.Context, ownerID string, _ EmptyParams) (any, error) {
			return h.PauseTimer(ctx, ownerID)
		})
	addTool(server, "resume_focus", "Resume a paused focus session.",
		func(ctx context.Context, ownerID string, _ EmptyParams) (any, error) {
			return h.ResumeTimer(ctx, ownerID)
		})
	addTool(server, "reset_focus", "Stop the current session. Elapsed whole minutes are credited as a partial session.",
		func(ctx context.Context, ownerID string, _ EmptyParams) (any, error) {
			return h.ResetTimer(ctx, ownerID)
		})
	addTool(server, "focus_status", "Current timer state, remaining seconds and any completion awaiting retry.",
		func(ctx context.Context, ownerID string, _ EmptyParams) (any, error) {
			return h.TimerStatus(ctx, ownerID)
		})
	addTool(server, "set_focus_duration", "Set the length of the next session in minutes. Only allowed while idle.",
		func(ctx context.Context, ownerID string, in SetDurationParams) (any, error) {
			return h.SetDuration(ctx, ownerID, in)
		})
	addTool(server, "retry_completion", "Retry saving a completed session whose progress could not be recorded.",
		func(ctx context.Context, ownerID string, _ EmptyParams) (any, error) {
			return h.RetryPending(ctx, ownerID)
		})

	// Stats

	addTool(server, "get_dashboard", "Today's progress toward the daily goal, tree stage and streak.",
		func(ctx context.Context, ownerID string, _ EmptyParams) (any, error) {
			return h.Dashboard(ctx, ownerID)
		})
	addTool(server, "get_weekly_series", "Focus minutes per day for the current week, Sunday first.",
		func(ctx context.Context, ownerID string, _ EmptyParams) (any, error) {
			return h.Weekly(ctx, ownerID)
		})
	addTool(server, "get_calendar", "Goal completion for each day of the current month so far.",
		func(ctx context.Context, ownerID string, _ EmptyParams) (any, error) {
			return h.Calendar(ctx, ownerID)
		})
	addTool(server, "get_achievements", "Milestones with unlock state and progress.",
		func(ctx context.Context, ownerID string, _ EmptyParams) (any, error) {
			return h.Achievements(ctx, ownerID)
		})
	addTool(server, "get_leaderboard", "Top owners by completed sessions, with your own rank.",
		func(ctx context.Context, ownerID string, in LimitParams) (any, error) {
			return h.Leaderboard(ctx, ownerID, in)
		})
	addTool(server, "list_sessions", "Recent focus sessions, newest first.",
		func(ctx context.Context, ownerID string, in LimitParams) (any, error) {
			return h.Sessions(ctx, ownerID, in)
		})

	// Profile

	addTool(server, "get_profile", "Display name and daily goal.",
		func(ctx context.Context, ownerID string, _ EmptyParams) (any, error) {
			return h.Profile(ctx, ownerID)
		})
	addTool(server, "set_daily_goal", "Change the daily goal. Today's progress and streak are re-evaluated against the new goal.",
		func(ctx context.Context, ownerID string, in SetGoalParams) (any, error) {
			return h.SetGoal(ctx, ownerID, in)
		})
	addTool(server, "set_display_name", "Change the name shown on the leaderboard.",
		func(ctx context.Context, ownerID string, in SetNameParams) (any, error) {
			return h.SetName(ctx, ownerID, in)
		})
	addTool(server, "reset_data", "Delete all sessions, daily progress, streak and activity. Requires confirm=true.",
		func(ctx context.Context, ownerID string, in ResetDataParams) (any, error) {
			return h.ResetData(ctx, ownerID, in)
		})

	// Activity

	addTool(server, "get_recent_activity", "Recent timer and settings activity, newest first.",
		func(ctx context.Context, ownerID string, in RecentActivityParams) (any, error) {
			return h.RecentActivity(ctx, ownerID, in)
		})
}
