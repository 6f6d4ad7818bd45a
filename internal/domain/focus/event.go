package focus

import "time"

// EventType names a timer lifecycle notification.
type EventType string

const (
	EventStarted              EventType = "session_started"
	EventPaused               EventType = "session_paused"
	EventResumed              EventType = "session_resumed"
	EventReset                EventType = "session_reset"
	EventCompleted            EventType = "session_completed"
	EventGoalAchieved         EventType = "goal_achieved"
	EventReconciliationFailed EventType = "reconciliation_failed"
	EventCompletionAbandoned  EventType = "completion_abandoned"
	EventTick                 EventType = "tick"
)

// Cue is an audio hint attached to tick events.
type Cue string

const (
	CueNone      Cue = ""
	CueMinute    Cue = "minute"
	CueCountdown Cue = "countdown"
)

// Event is emitted by the timer controller to its notifiers.
type Event struct {
	Type        EventType `json:"type"`
	OwnerID     string    `json:"owner_id,omitempty"`
	SecondsLeft int       `json:"seconds_left"`
	Minutes     int       `json:"minutes,omitempty"`
	Streak      int       `json:"streak,omitempty"`
	Cue         Cue       `json:"cue,omitempty"`
	Err         string    `json:"error,omitempty"`
	At          time.Time `json:"at"`
}
