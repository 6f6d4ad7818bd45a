package activity

import "time"

// Type represents the kind of activity event.
type Type string

const (
	TypeSessionStarted       Type = "session_started"
	TypeSessionPaused        Type = "session_paused"
	TypeSessionResumed       Type = "session_resumed"
	TypeSessionReset         Type = "session_reset"
	TypeSessionCompleted     Type = "session_completed"
	TypeGoalAchieved         Type = "goal_achieved"
	TypeGoalUpdated          Type = "goal_updated"
	TypeReconciliationFailed Type = "reconciliation_failed"
	TypeCompletionAbandoned  Type = "completion_abandoned"
	TypeDataReset            Type = "data_reset"
)

// Entry represents an event in the activity log.
type Entry struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Type      Type      `json:"type"`
	Summary   string    `json:"summary"`
	Details   string    `json:"details,omitempty"` // JSON string
	CreatedAt time.Time `json:"created_at"`
}

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	Type   *Type
	Limit  int
	Offset int
}
