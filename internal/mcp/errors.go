package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/timeflow/internal/domain/countdown"
	"github.com/ganot/timeflow/internal/domain/profile"
	"github.com/ganot/timeflow/internal/domain/reconcile"
	"github.com/ganot/timeflow/internal/domain/timer"
)

// Error codes returned to API clients.
const (
	CodeMethodNotFound    = "METHOD_NOT_FOUND"
	CodeInvalidParams     = "INVALID_PARAMS"
	CodeInvalidDuration   = "INVALID_DURATION"
	CodeSessionActive     = "SESSION_ACTIVE"
	CodeNotActive         = "NOT_ACTIVE"
	CodeCompleting        = "COMPLETING"
	CodeNoPending         = "NO_PENDING_COMPLETION"
	CodeCommitFailed      = "COMMIT_FAILED"
	CodePersistenceFailed = "PERSISTENCE_FAILED"
	CodeInvalidGoal       = "INVALID_GOAL"
	CodeInvalidName       = "INVALID_NAME"
	CodeUnauthorized      = "UNAUTHORIZED"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, countdown.ErrInvalidDuration):
		return &APIError{Code: CodeInvalidDuration, Message: "duration must be at least one minute", RecoveryHint: "Pass a positive number of minutes"}
	case errors.Is(err, timer.ErrAlreadyActive), errors.Is(err, countdown.ErrActive):
		return &APIError{Code: CodeSessionActive, Message: "a focus session is already active", RecoveryHint: "Pause or reset the current session first"}
	case errors.Is(err, timer.ErrNotActive):
		return &APIError{Code: CodeNotActive, Message: "no focus session is running", RecoveryHint: "Start a session first"}
	case errors.Is(err, timer.ErrCompleting):
		return &APIError{Code: CodeCompleting, Message: "the finished session is still being saved", RecoveryHint: "Retry in a moment"}
	case errors.Is(err, timer.ErrNoPending):
		return &APIError{Code: CodeNoPending, Message: "there is no unsaved completion", RecoveryHint: "Nothing to retry"}
	case errors.Is(err, timer.ErrCommitFailed):
		return &APIError{Code: CodeCommitFailed, Message: err.Error(), RecoveryHint: "Progress is kept and retried on the next pause or completion"}
	case errors.Is(err, reconcile.ErrPersistence):
		return &APIError{Code: CodePersistenceFailed, Message: err.Error(), RecoveryHint: "Retry later"}
	case errors.Is(err, reconcile.ErrInvalidMinutes):
		return &APIError{Code: CodeInvalidParams, Message: "minutes must be positive"}
	case errors.Is(err, profile.ErrInvalidGoal):
		return &APIError{Code: CodeInvalidGoal, Message: err.Error(), RecoveryHint: "Choose a goal within the allowed range"}
	case errors.Is(err, profile.ErrInvalidName):
		return &APIError{Code: CodeInvalidName, Message: "display name must be 1 to 100 characters"}
	case errors.Is(err, profile.ErrNoOwner), errors.Is(err, reconcile.ErrNoOwner):
		return &APIError{Code: CodeUnauthorized, Message: "no owner resolved for this request"}
	default:
		return nil
	}
}
