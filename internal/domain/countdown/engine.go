// Package countdown provides a second-resolution countdown primitive with
// pause, resume and a single completion notification.
package countdown

import "errors"

var (
	// ErrInvalidDuration is returned for durations shorter than one minute.
	ErrInvalidDuration = errors.New("duration must be at least 1 minute")
	// ErrActive is returned when reconfiguring a running countdown.
	ErrActive = errors.New("countdown is active")
)

// Engine counts down whole seconds. It is not safe for concurrent use;
// callers serialize access.
type Engine struct {
	total      int
	remaining  int
	active     bool
	paused     bool
	onComplete func()
}

// NewEngine returns an idle engine. onComplete may be nil.
func NewEngine(onComplete func()) *Engine {
	return &Engine{onComplete: onComplete}
}

// Start arms the engine for minutes and begins counting.
func (e *Engine) Start(minutes int) error {
	if minutes < 1 {
		return ErrInvalidDuration
	}
	e.total = minutes * 60
	e.remaining = e.total
	e.active = true
	e.paused = false
	return nil
}

// Restore resumes a countdown from previously saved values.
func (e *Engine) Restore(totalSeconds, remaining int, paused bool) error {
	if totalSeconds < 60 || remaining < 1 {
		return ErrInvalidDuration
	}
	if remaining > totalSeconds {
		remaining = totalSeconds
	}
	e.total = totalSeconds
	e.remaining = remaining
	e.active = true
	e.paused = paused
	return nil
}

// Pause stops ticks from decrementing. No-op when inactive or already paused.
func (e *Engine) Pause() {
	if e.active {
		e.paused = true
	}
}

// Resume re-enables ticking. No-op when inactive or not paused.
func (e *Engine) Resume() {
	if e.active {
		e.paused = false
	}
}

// Tick advances the countdown by one second. It reports true exactly once,
// on the tick that takes the remaining time from 1 to 0.
func (e *Engine) Tick() bool {
	if !e.active || e.paused || e.remaining <= 0 {
		return false
	}
	e.remaining--
	if e.remaining > 0 {
		return false
	}
	e.active = false
	e.paused = false
	if e.onComplete != nil {
		e.onComplete()
	}
	return true
}

// Reset stops the countdown and rewinds to the full duration without
// firing completion.
func (e *Engine) Reset() {
	e.active = false
	e.paused = false
	e.remaining = e.total
}

// SetDuration reconfigures an idle engine.
func (e *Engine) SetDuration(minutes int) error {
	if minutes < 1 {
		return ErrInvalidDuration
	}
	if e.active {
		return ErrActive
	}
	e.total = minutes * 60
	e.remaining = e.total
	return nil
}

// Progress returns the elapsed share of the duration in [0, 100].
func (e *Engine) Progress() float64 {
	if e.total <= 0 {
		return 0
	}
	p := float64(e.total-e.remaining) / float64(e.total) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

func (e *Engine) Remaining() int    { return e.remaining }
func (e *Engine) TotalSeconds() int { return e.total }
func (e *Engine) Active() bool      { return e.active }
func (e *Engine) Paused() bool      { return e.paused }
