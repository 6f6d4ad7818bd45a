package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ganot/timeflow/internal/domain/activity"
	"github.com/ganot/timeflow/internal/domain/focus"
	"github.com/ganot/timeflow/internal/domain/profile"
	"github.com/ganot/timeflow/internal/domain/stats"
	"github.com/ganot/timeflow/internal/domain/timer"
)

// TimerHub returns the live timer controller of an owner.
type TimerHub interface {
	Get(ctx context.Context, ownerID string) *timer.Controller
}

// StatsService defines the read views needed by MCP.
type StatsService interface {
	Dashboard(ctx context.Context, ownerID string) (*stats.Dashboard, error)
	WeeklySeries(ctx context.Context, ownerID string) ([]stats.DayMinutes, error)
	Calendar(ctx context.Context, ownerID string) ([]stats.CalendarDay, error)
	Achievements(ctx context.Context, ownerID string) ([]stats.Achievement, error)
	Leaderboard(ctx context.Context, ownerID string, limit int) (*stats.Leaderboard, error)
	RecentSessions(ctx context.Context, ownerID string, limit int) ([]focus.Session, error)
}

// ProfileService defines settings operations needed by MCP.
type ProfileService interface {
	Get(ctx context.Context, ownerID string) (*focus.Profile, error)
	UpdateGoal(ctx context.Context, ownerID string, minutes int) (*profile.GoalUpdate, error)
	UpdateDisplayName(ctx context.Context, ownerID, name string) (*focus.Profile, error)
	ResetData(ctx context.Context, ownerID string) error
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, ownerID string, opts activity.ListOptions) ([]activity.Entry, error)
}

// Limits bounds user supplied session lengths.
type Limits struct {
	MinDuration int
	MaxDuration int
}

// Handler dispatches API calls to domain services. It serves both the MCP
// tools and the JSON-RPC endpoint.
type Handler struct {
	timers   TimerHub
	stats    StatsService
	profiles ProfileService
	activity ActivityService
	limits   Limits
}

// NewHandler creates a new handler.
func NewHandler(timers TimerHub, statsSvc StatsService, profiles ProfileService, activitySvc ActivityService, limits Limits) *Handler {
	if limits.MinDuration < 1 {
		limits.MinDuration = 1
	}
	if limits.MaxDuration < limits.MinDuration {
		limits.MaxDuration = 240
	}
	return &Handler{
		timers:   timers,
		stats:    statsSvc,
		profiles: profiles,
		activity: activitySvc,
		limits:   limits,
	}
}

// Handle dispatches JSON-RPC requests by method name.
func (h *Handler) Handle(ctx context.Context, ownerID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "timer.start":
		var req StartTimerParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.StartTimer(ctx, ownerID, req)
	case "timer.pause":
		return h.PauseTimer(ctx, ownerID)
	case "timer.resume":
		return h.ResumeTimer(ctx, ownerID)
	case "timer.reset":
		return h.ResetTimer(ctx, ownerID)
	case "timer.status":
		return h.TimerStatus(ctx, ownerID)
	case "timer.set_duration":
		var req SetDurationParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.SetDuration(ctx, ownerID, req)
	case "timer.retry":
		return h.RetryPending(ctx, ownerID)
	case "stats.dashboard":
		return h.Dashboard(ctx, ownerID)
	case "stats.weekly":
		return h.Weekly(ctx, ownerID)
	case "stats.calendar":
		return h.Calendar(ctx, ownerID)
	case "stats.achievements":
		return h.Achievements(ctx, ownerID)
	case "stats.leaderboard":
		var req LimitParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.Leaderboard(ctx, ownerID, req)
	case "stats.sessions":
		var req LimitParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.Sessions(ctx, ownerID, req)
	case "profile.get":
		return h.Profile(ctx, ownerID)
	case "profile.set_goal":
		var req SetGoalParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.SetGoal(ctx, ownerID, req)
	case "profile.set_name":
		var req SetNameParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.SetName(ctx, ownerID, req)
	case "profile.reset_data":
		var req ResetDataParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.ResetData(ctx, ownerID, req)
	case "activity.recent":
		var req RecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.RecentActivity(ctx, ownerID, req)
	default:
		return nil, &APIError{Code: CodeMethodNotFound, Message: fmt.Sprintf("unknown method: %s", method)}
	}
}

// StartTimer begins a focus session.
func (h *Handler) StartTimer(ctx context.Context, ownerID string, req StartTimerParams) (*TimerResponse, error) {
	ctrl := h.timers.Get(ctx, ownerID)
	minutes := req.Minutes
	if minutes == 0 {
		minutes = ctrl.Status().Duration
	}
	if err := h.checkDuration(minutes); err != nil {
		return nil, err
	}
	return timerResult(ctrl, ctrl.Start(ctx, minutes))
}

// PauseTimer pauses the running session and commits whole elapsed minutes.
func (h *Handler) PauseTimer(ctx context.Context, ownerID string) (*TimerResponse, error) {
	ctrl := h.timers.Get(ctx, ownerID)
	return timerResult(ctrl, ctrl.Pause(ctx))
}

// ResumeTimer continues a paused session.
func (h *Handler) ResumeTimer(ctx context.Context, ownerID string) (*TimerResponse, error) {
	ctrl := h.timers.Get(ctx, ownerID)
	return timerResult(ctrl, ctrl.Resume(ctx))
}

// ResetTimer abandons the current session after committing elapsed minutes.
func (h *Handler) ResetTimer(ctx context.Context, ownerID string) (*TimerResponse, error) {
	ctrl := h.timers.Get(ctx, ownerID)
	return timerResult(ctrl, ctrl.Reset(ctx))
}

// TimerStatus reports the owner's timer.
func (h *Handler) TimerStatus(ctx context.Context, ownerID string) (*TimerResponse, error) {
	ctrl := h.timers.Get(ctx, ownerID)
	return &TimerResponse{Timer: ctrl.Status()}, nil
}

// SetDuration configures the next session length.
func (h *Handler) SetDuration(ctx context.Context, ownerID string, req SetDurationParams) (*TimerResponse, error) {
	if err := h.checkDuration(req.Minutes); err != nil {
		return nil, err
	}
	ctrl := h.timers.Get(ctx, ownerID)
	if err := ctrl.SetDuration(req.Minutes); err != nil {
		return nil, mapError(err)
	}
	return &TimerResponse{Timer: ctrl.Status()}, nil
}

// RetryPending re-attempts a completion whose save failed.
func (h *Handler) RetryPending(ctx context.Context, ownerID string) (*TimerResponse, error) {
	ctrl := h.timers.Get(ctx, ownerID)
	return timerResult(ctrl, ctrl.RetryPending(ctx))
}

func (h *Handler) checkDuration(minutes int) error {
	if minutes < h.limits.MinDuration || minutes > h.limits.MaxDuration {
		return &APIError{
			Code:         CodeInvalidDuration,
			Message:      fmt.Sprintf("duration must be between %d and %d minutes", h.limits.MinDuration, h.limits.MaxDuration),
			RecoveryHint: "Choose a shorter or longer session",
		}
	}
	return nil
}

// timerResult turns a commit failure into a warning because the timer
// operation itself already took effect.
func timerResult(ctrl *timer.Controller, err error) (*TimerResponse, error) {
	resp := &TimerResponse{Timer: ctrl.Status()}
	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, timer.ErrCommitFailed):
		resp.Warning = err.Error()
		return resp, nil
	default:
		return nil, mapError(err)
	}
}

// Dashboard returns the home screen aggregate.
func (h *Handler) Dashboard(ctx context.Context, ownerID string) (*stats.Dashboard, error) {
	d, err := h.stats.Dashboard(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

// Weekly returns minutes per day of the current week.
func (h *Handler) Weekly(ctx context.Context, ownerID string) (*WeeklyResponse, error) {
	days, err := h.stats.WeeklySeries(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	resp := &WeeklyResponse{Days: days}
	for _, d := range days {
		resp.TotalMinutes += d.Minutes
	}
	return resp, nil
}

// Calendar returns the completion map of the current month.
func (h *Handler) Calendar(ctx context.Context, ownerID string) (*CalendarResponse, error) {
	days, err := h.stats.Calendar(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	resp := &CalendarResponse{Days: days}
	for _, d := range days {
		if d.Completed {
			resp.CompletedDays++
		}
	}
	return resp, nil
}

// Achievements lists milestone progress.
func (h *Handler) Achievements(ctx context.Context, ownerID string) ([]stats.Achievement, error) {
	list, err := h.stats.Achievements(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	return list, nil
}

// Leaderboard returns the top owners and the caller's rank.
func (h *Handler) Leaderboard(ctx context.Context, ownerID string, req LimitParams) (*stats.Leaderboard, error) {
	board, err := h.stats.Leaderboard(ctx, ownerID, req.Limit)
	if err != nil {
		return nil, mapError(err)
	}
	return board, nil
}

// Sessions lists recent focus sessions.
func (h *Handler) Sessions(ctx context.Context, ownerID string, req LimitParams) (*SessionsResponse, error) {
	list, err := h.stats.RecentSessions(ctx, ownerID, req.Limit)
	if err != nil {
		return nil, mapError(err)
	}
	if list == nil {
		list = []focus.Session{}
	}
	return &SessionsResponse{Sessions: list}, nil
}

// Profile returns the owner's settings.
func (h *Handler) Profile(ctx context.Context, ownerID string) (*focus.Profile, error) {
	p, err := h.profiles.Get(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

// SetGoal changes the daily goal.
func (h *Handler) SetGoal(ctx context.Context, ownerID string, req SetGoalParams) (*profile.GoalUpdate, error) {
	res, err := h.profiles.UpdateGoal(ctx, ownerID, req.Minutes)
	if err != nil {
		return nil, mapError(err)
	}
	return res, nil
}

// SetName changes the display name.
func (h *Handler) SetName(ctx context.Context, ownerID string, req SetNameParams) (*focus.Profile, error) {
	p, err := h.profiles.UpdateDisplayName(ctx, ownerID, req.DisplayName)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

// ResetData stops the owner's timer and deletes all focus data.
func (h *Handler) ResetData(ctx context.Context, ownerID string, req ResetDataParams) (*StatusResponse, error) {
	if !req.Confirm {
		return nil, &APIError{Code: CodeInvalidParams, Message: "confirm must be true", RecoveryHint: "Pass confirm=true to delete all data"}
	}
	ctrl := h.timers.Get(ctx, ownerID)
	if err := ctrl.Reset(ctx); err != nil && !errors.Is(err, timer.ErrCommitFailed) {
		return nil, mapError(err)
	}
	if err := h.profiles.ResetData(ctx, ownerID); err != nil {
		return nil, mapError(err)
	}
	return &StatusResponse{Status: "reset"}, nil
}

// RecentActivity lists the owner's activity log.
func (h *Handler) RecentActivity(ctx context.Context, ownerID string, req RecentActivityParams) ([]ActivityEntryResponse, error) {
	opts := activity.ListOptions{Limit: req.Limit, Offset: req.Offset}
	if req.Type != "" {
		typ := activity.Type(req.Type)
		opts.Type = &typ
	}
	entries, err := h.activity.GetRecentActivity(ctx, ownerID, opts)
	if err != nil {
		return nil, mapError(err)
	}
	resp := make([]ActivityEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, ActivityEntryResponse{
			Timestamp: entry.CreatedAt,
			Type:      entry.Type,
			Summary:   entry.Summary,
			Details:   entry.Details,
		})
	}
	return resp, nil
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return &APIError{Code: CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
