package timer

import (
	"log/slog"

	"github.com/ganot/timeflow/internal/domain/focus"
)

// Notifier receives timer events. Notify is called synchronously from the
// controller and must not call back into it.
type Notifier interface {
	Notify(ev focus.Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ev focus.Event)

func (f NotifierFunc) Notify(ev focus.Event) { f(ev) }

// Multi fans an event out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(ev focus.Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ev)
		}
	}
}

// LogNotifier writes lifecycle events to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ev focus.Event) {
	if n.Logger == nil || ev.Type == focus.EventTick {
		return
	}
	attrs := []any{"owner_id", ev.OwnerID, "seconds_left", ev.SecondsLeft}
	if ev.Minutes > 0 {
		attrs = append(attrs, "minutes", ev.Minutes)
	}
	if ev.Err != "" {
		n.Logger.Warn(string(ev.Type), append(attrs, "error", ev.Err)...)
		return
	}
	n.Logger.Info(string(ev.Type), attrs...)
}

func cueFor(secondsLeft int) focus.Cue {
	switch {
	case secondsLeft <= 0:
		return focus.CueNone
	case secondsLeft <= 5:
		return focus.CueCountdown
	case secondsLeft%60 == 0:
		return focus.CueMinute
	}
	return focus.CueNone
}
