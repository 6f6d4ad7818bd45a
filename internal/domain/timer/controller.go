// Package timer owns the countdown for one owner and keeps it durable
// across restarts, committing elapsed time through the reconciler.
package timer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ganot/timeflow/internal/clock"
	"github.com/ganot/timeflow/internal/domain/countdown"
	"github.com/ganot/timeflow/internal/domain/focus"
	"github.com/ganot/timeflow/internal/domain/reconcile"
	"github.com/ganot/timeflow/internal/snapshot"
	"github.com/google/uuid"
)

var (
	ErrAlreadyActive = errors.New("a timer session is already active")
	ErrNotActive     = errors.New("no active timer session")
	ErrCompleting    = errors.New("a completed session is still being saved")
	ErrNoPending     = errors.New("no pending completion")
	// ErrCommitFailed wraps reconciliation failures. The timer operation
	// that triggered the commit still took effect.
	ErrCommitFailed = errors.New("saving session progress failed")
)

// State is the controller's lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateRunning    State = "running"
	StatePaused     State = "paused"
	StateCompleting State = "completing"
)

// StartPolicy decides what Start does while a session is active.
type StartPolicy string

const (
	PolicyReject StartPolicy = "reject"
	PolicyReset  StartPolicy = "reset"
)

const (
	defaultCommitTimeout = 10 * time.Second
	defaultDuration      = 25
)

// Reconciler persists committed timer windows.
type Reconciler interface {
	RecordPartial(ctx context.Context, ownerID string, c reconcile.Commit) (*reconcile.Outcome, error)
	RecordCompletion(ctx context.Context, ownerID string, c reconcile.Commit) (*reconcile.Outcome, error)
}

// Config controls a controller. An empty OwnerID runs the timer in
// local-only mode with reconciliation suppressed.
type Config struct {
	OwnerID         string
	StartPolicy     StartPolicy
	CommitTimeout   time.Duration
	DefaultDuration int
	Category        string
}

// Status is a point-in-time view of the controller.
type Status struct {
	OwnerID           string     `json:"owner_id,omitempty"`
	State             State      `json:"state"`
	Duration          int        `json:"duration"`
	SecondsLeft       int        `json:"seconds_left"`
	Progress          float64    `json:"progress"`
	AccumulatedTime   int        `json:"accumulated_seconds"`
	PendingCompletion bool       `json:"pending_completion"`
	Category          string     `json:"category,omitempty"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
}

// Controller drives a countdown engine and mirrors it to a snapshot store.
//
// opMu serializes operations that may reconcile; mu guards the fields below
// it and is never held across I/O; saveMu orders snapshot writes.
type Controller struct {
	cfg    Config
	rec    Reconciler
	store  snapshot.Store
	notify Notifier
	clock  clock.Clock
	logger *slog.Logger

	opMu   sync.Mutex
	saveMu sync.Mutex
	wg     sync.WaitGroup

	mu          sync.Mutex
	engine      *countdown.Engine
	state       State
	duration    int
	startTime   time.Time
	lastUpdate  time.Time
	lastTick    *time.Time
	accumulated int
	pending     bool
	category    string
	unloaded    bool

	// partialID is reused until a partial commit succeeds. completionID is
	// fixed for the session so a partial row can never stand in for it.
	partialID    string
	completionID string
}

// NewController builds an idle controller. Call Restore before use to pick
// up a previously saved session.
func NewController(cfg Config, rec Reconciler, store snapshot.Store, notify Notifier, clk clock.Clock, logger *slog.Logger) *Controller {
	if cfg.StartPolicy == "" {
		cfg.StartPolicy = PolicyReject
	}
	if cfg.CommitTimeout <= 0 {
		cfg.CommitTimeout = defaultCommitTimeout
	}
	if cfg.DefaultDuration < 1 {
		cfg.DefaultDuration = defaultDuration
	}
	if cfg.Category == "" {
		cfg.Category = focus.DefaultCategory
	}
	if store == nil {
		store = snapshot.NewMemoryStore()
	}
	if notify == nil {
		notify = Multi(nil)
	}
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	engine := countdown.NewEngine(nil)
	_ = engine.SetDuration(cfg.DefaultDuration)
	return &Controller{
		cfg:      cfg,
		rec:      rec,
		store:    store,
		notify:   notify,
		clock:    clk,
		logger:   logger.With("owner_id", cfg.OwnerID),
		engine:   engine,
		state:    StateIdle,
		duration: cfg.DefaultDuration,
		category: cfg.Category,
	}
}

// OwnerID returns the owner this controller reconciles for.
func (c *Controller) OwnerID() string { return c.cfg.OwnerID }

// Start begins a new session of minutes.
func (c *Controller) Start(ctx context.Context, minutes int) error {
	if minutes < 1 {
		return countdown.ErrInvalidDuration
	}
	if c.completing() {
		return ErrCompleting
	}
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	st, pending := c.state, c.pending
	c.mu.Unlock()

	if st == StateCompleting {
		return ErrCompleting
	}
	if pending {
		if err := c.retryPendingLocked(ctx); err != nil {
			c.abandonPending()
		}
	}
	if st == StateRunning || st == StatePaused {
		if c.cfg.StartPolicy != PolicyReset {
			return ErrAlreadyActive
		}
		if err := c.resetLocked(ctx); errors.Is(err, ErrCompleting) {
			return err
		} else if err != nil {
			c.logger.Warn("reset before start lost uncommitted time", "error", err)
		}
	}

	c.mu.Lock()
	if err := c.engine.Start(minutes); err != nil {
		c.mu.Unlock()
		return err
	}
	now := c.clock.Now()
	c.state = StateRunning
	c.duration = minutes
	c.startTime = now
	c.lastUpdate = now
	c.lastTick = nil
	c.accumulated = 0
	c.partialID = uuid.NewString()
	c.completionID = uuid.NewString()
	c.category = c.cfg.Category
	c.unloaded = false
	left := c.engine.Remaining()
	c.mu.Unlock()

	c.save(ctx)
	c.emit(focus.Event{Type: focus.EventStarted, Minutes: minutes, SecondsLeft: left})
	return nil
}

// Pause freezes the countdown and commits whole elapsed minutes. The timer
// is paused even when an ErrCommitFailed error is returned.
func (c *Controller) Pause(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	switch c.state {
	case StatePaused:
		c.mu.Unlock()
		return nil
	case StateRunning:
	default:
		c.mu.Unlock()
		return ErrNotActive
	}
	c.engine.Pause()
	c.state = StatePaused
	c.foldWindow(c.clock.Now())
	left := c.engine.Remaining()
	c.mu.Unlock()

	c.save(ctx)
	c.emit(focus.Event{Type: focus.EventPaused, SecondsLeft: left})
	return c.commitLocked(ctx, "pause")
}

// Resume continues a paused countdown and opens a fresh elapsed window.
func (c *Controller) Resume(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	switch c.state {
	case StateRunning:
		c.mu.Unlock()
		return nil
	case StatePaused:
	default:
		c.mu.Unlock()
		return ErrNotActive
	}
	c.engine.Resume()
	c.state = StateRunning
	c.lastUpdate = c.clock.Now()
	c.lastTick = nil
	left := c.engine.Remaining()
	c.mu.Unlock()

	c.save(ctx)
	c.emit(focus.Event{Type: focus.EventResumed, SecondsLeft: left})
	return nil
}

// Reset commits any whole elapsed minutes and returns to Idle. Uncommitted
// time is discarded even when the commit fails.
func (c *Controller) Reset(ctx context.Context) error {
	if c.completing() {
		return ErrCompleting
	}
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	st, pending := c.state, c.pending
	c.mu.Unlock()

	switch st {
	case StateCompleting:
		return ErrCompleting
	case StateIdle:
		if pending {
			c.abandonPending()
		}
		return nil
	}
	return c.resetLocked(ctx)
}

func (c *Controller) resetLocked(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateCompleting:
		c.mu.Unlock()
		return ErrCompleting
	case StateRunning:
		c.engine.Pause()
		c.state = StatePaused
		c.foldWindow(c.clock.Now())
	}
	c.mu.Unlock()

	err := c.commitLocked(ctx, "reset")

	c.mu.Lock()
	c.engine.Reset()
	c.state = StateIdle
	c.accumulated = 0
	c.partialID = ""
	c.completionID = ""
	c.lastTick = nil
	c.mu.Unlock()

	c.save(ctx)
	c.emit(focus.Event{Type: focus.EventReset})
	return err
}

// Tick advances the countdown by one second. When the countdown reaches
// zero the completion is saved in the background and Tick returns at once;
// Wait blocks until that save has finished.
func (c *Controller) Tick(ctx context.Context) {
	c.mu.Lock()
	if c.unloaded || c.state != StateRunning {
		c.mu.Unlock()
		return
	}
	fired := c.engine.Tick()
	now := c.clock.Now()
	c.lastTick = &now
	left := c.engine.Remaining()
	minutes := c.duration
	if fired {
		c.state = StateCompleting
		c.pending = true
		c.wg.Add(1)
	}
	c.mu.Unlock()

	c.save(ctx)
	c.emit(focus.Event{Type: focus.EventTick, SecondsLeft: left, Cue: cueFor(left)})
	if !fired {
		return
	}

	c.emit(focus.Event{Type: focus.EventCompleted, Minutes: minutes})
	go func() {
		defer c.wg.Done()
		c.opMu.Lock()
		defer c.opMu.Unlock()
		if err := c.completeLocked(context.WithoutCancel(ctx)); err != nil {
			c.logger.Warn("completion not saved", "error", err)
		}
	}()
}

// Run ticks once per second until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// RetryPending re-attempts a completion whose reconciliation failed.
func (c *Controller) RetryPending(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.retryPendingLocked(ctx)
}

func (c *Controller) retryPendingLocked(ctx context.Context) error {
	c.mu.Lock()
	if !c.pending || c.state != StateIdle {
		c.mu.Unlock()
		return ErrNoPending
	}
	c.state = StateCompleting
	c.mu.Unlock()
	return c.completeLocked(ctx)
}

func (c *Controller) abandonPending() {
	c.mu.Lock()
	minutes, commitID := c.duration, c.completionID
	c.pending = false
	c.completionID = ""
	c.mu.Unlock()

	c.logger.Warn("abandoning unsaved completion", "minutes", minutes, "commit_id", commitID)
	c.save(context.Background())
	c.emit(focus.Event{Type: focus.EventCompletionAbandoned, Minutes: minutes})
}

// completeLocked credits the full configured duration. Callers hold opMu
// and have moved the controller to Completing.
func (c *Controller) completeLocked(ctx context.Context) error {
	c.mu.Lock()
	if c.completionID == "" {
		c.completionID = uuid.NewString()
	}
	owner, minutes, commitID, category := c.cfg.OwnerID, c.duration, c.completionID, c.category
	c.mu.Unlock()

	var (
		out *reconcile.Outcome
		err error
	)
	if owner != "" && c.rec != nil {
		cctx, cancel := context.WithTimeout(ctx, c.cfg.CommitTimeout)
		out, err = c.rec.RecordCompletion(cctx, owner, reconcile.Commit{
			CommitID: commitID,
			Minutes:  minutes,
			Category: category,
		})
		cancel()
	}

	c.mu.Lock()
	c.state = StateIdle
	_ = c.engine.SetDuration(minutes)
	if err != nil {
		c.pending = true
		c.mu.Unlock()
		c.save(ctx)
		c.emit(focus.Event{Type: focus.EventReconciliationFailed, Minutes: minutes, Err: err.Error()})
		return fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}
	c.pending = false
	c.accumulated = 0
	c.partialID = ""
	c.completionID = ""
	c.lastTick = nil
	c.mu.Unlock()

	c.save(ctx)
	if out != nil && out.GoalAchieved {
		c.emitGoal(out)
	}
	return nil
}

// foldWindow moves the open elapsed window into accumulated. Callers hold mu.
func (c *Controller) foldWindow(now time.Time) {
	elapsed := int(now.Sub(c.lastUpdate) / time.Second)
	if elapsed > 0 {
		c.accumulated += elapsed
	}
	c.lastUpdate = now
}

// commitLocked records the whole minutes of accumulated time as a partial
// session. Sub-minute remainders are carried forward. Callers hold opMu.
func (c *Controller) commitLocked(ctx context.Context, reason string) error {
	c.mu.Lock()
	total := c.accumulated
	if total < 60 {
		c.mu.Unlock()
		return nil
	}
	minutes := total / 60
	if c.cfg.OwnerID == "" || c.rec == nil {
		c.accumulated = total % 60
		c.mu.Unlock()
		c.save(ctx)
		return nil
	}
	owner, commitID, category := c.cfg.OwnerID, c.partialID, c.category
	if commitID == "" {
		commitID = uuid.NewString()
		c.partialID = commitID
	}
	c.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, c.cfg.CommitTimeout)
	out, err := c.rec.RecordPartial(cctx, owner, reconcile.Commit{
		CommitID: commitID,
		Minutes:  minutes,
		Category: category,
	})
	cancel()
	if err != nil {
		c.logger.Warn("partial commit failed", "reason", reason, "minutes", minutes, "error", err)
		c.emit(focus.Event{Type: focus.EventReconciliationFailed, Minutes: minutes, Err: err.Error()})
		return fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}

	credited := minutes
	if out != nil && out.Session != nil {
		credited = out.Session.Duration
	}
	c.mu.Lock()
	c.accumulated = max(0, c.accumulated-credited*60)
	c.partialID = uuid.NewString()
	c.mu.Unlock()

	c.save(ctx)
	if out != nil && out.GoalAchieved {
		c.emitGoal(out)
	}
	return nil
}

// Restore loads a saved snapshot, replaying time that passed while the
// process was away. A corrupt snapshot is discarded.
func (c *Controller) Restore(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	st, err := c.store.Load(ctx)
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		return nil
	case errors.Is(err, snapshot.ErrCorrupt):
		c.logger.Warn("discarding corrupt timer snapshot", "error", err)
		if err := c.store.Clear(ctx); err != nil {
			c.logger.Warn("clearing corrupt snapshot failed", "error", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("loading timer snapshot: %w", err)
	}

	now := c.clock.Now()
	c.mu.Lock()
	c.duration = st.SessionDuration
	c.startTime = st.StartTime
	c.lastUpdate = st.LastUpdateTime
	c.accumulated = st.AccumulatedTime
	c.partialID = st.CommitID
	c.completionID = st.CompletionID
	c.category = st.Category
	if c.category == "" {
		c.category = c.cfg.Category
	}
	c.unloaded = false

	if st.PendingCompletion {
		c.state = StateIdle
		c.pending = true
		c.mu.Unlock()
		c.logger.Info("retrying saved completion", "minutes", st.SessionDuration)
		return c.retryPendingLocked(ctx)
	}
	if !st.Active {
		c.mu.Unlock()
		return c.store.Clear(ctx)
	}

	if st.Paused {
		if err := c.engine.Restore(st.SessionDuration*60, st.SecondsLeft, true); err != nil {
			c.mu.Unlock()
			c.logger.Warn("discarding unusable paused snapshot", "error", err)
			return c.store.Clear(ctx)
		}
		c.state = StatePaused
		c.lastTick = st.LastTickTime
		c.mu.Unlock()
		return nil
	}

	ref := st.LastUpdateTime
	if st.LastTickTime != nil && st.LastTickTime.After(ref) {
		ref = *st.LastTickTime
	}
	away := max(0, int(now.Sub(ref)/time.Second))
	left := max(0, st.SecondsLeft-away)

	if left == 0 {
		c.state = StateCompleting
		c.pending = true
		c.mu.Unlock()
		c.logger.Info("session finished while away", "minutes", st.SessionDuration, "away_seconds", away)
		c.save(ctx)
		c.emit(focus.Event{Type: focus.EventCompleted, Minutes: st.SessionDuration})
		return c.completeLocked(ctx)
	}

	if err := c.engine.Restore(st.SessionDuration*60, left, false); err != nil {
		c.mu.Unlock()
		c.logger.Warn("discarding unusable running snapshot", "error", err)
		return c.store.Clear(ctx)
	}
	c.state = StateRunning
	c.lastTick = &now
	c.mu.Unlock()

	c.logger.Info("restored running session", "seconds_left", left, "away_seconds", away)
	c.save(ctx)
	return nil
}

// SetDuration configures the next session length while Idle.
func (c *Controller) SetDuration(minutes int) error {
	if minutes < 1 {
		return countdown.ErrInvalidDuration
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrAlreadyActive
	}
	if err := c.engine.SetDuration(minutes); err != nil {
		return err
	}
	c.duration = minutes
	return nil
}

// Unload makes a last snapshot write and, for a running timer, a last
// partial commit. Both run in the background; Wait blocks until they end.
// Ticks are ignored afterwards.
func (c *Controller) Unload() {
	c.mu.Lock()
	c.unloaded = true
	running := c.state == StateRunning
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx := context.Background()
		c.save(ctx)
		if !running {
			return
		}
		c.opMu.Lock()
		defer c.opMu.Unlock()
		c.mu.Lock()
		if c.state != StateRunning {
			c.mu.Unlock()
			return
		}
		c.foldWindow(c.clock.Now())
		c.mu.Unlock()
		c.save(ctx)
		if err := c.commitLocked(ctx, "unload"); err != nil {
			c.logger.Warn("unload commit failed", "error", err)
		}
	}()
}

// Wait blocks until background completion and unload work has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// completing reports an outstanding completion without waiting on opMu.
func (c *Controller) completing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateCompleting
}

// Status returns the current timer view.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Status{
		OwnerID:           c.cfg.OwnerID,
		State:             c.state,
		Duration:          c.duration,
		SecondsLeft:       c.engine.Remaining(),
		Progress:          c.engine.Progress(),
		AccumulatedTime:   c.accumulated,
		PendingCompletion: c.pending,
		Category:          c.category,
	}
	if c.state == StateRunning || c.state == StatePaused {
		started := c.startTime
		s.StartedAt = &started
	}
	return s
}

func (c *Controller) snapshotState() *snapshot.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle && !c.pending {
		return nil
	}
	st := &snapshot.State{
		SessionDuration: c.duration,
		StartTime:       c.startTime,
		AccumulatedTime: c.accumulated,
		LastUpdateTime:  c.lastUpdate,
		CommitID:        c.partialID,
		CompletionID:    c.completionID,
		Category:        c.category,
	}
	if c.lastTick != nil {
		t := *c.lastTick
		st.LastTickTime = &t
	}
	switch c.state {
	case StateRunning, StatePaused:
		st.Active = true
		st.Paused = c.state == StatePaused
		st.SecondsLeft = c.engine.Remaining()
	default:
		st.PendingCompletion = true
	}
	return st
}

// save mirrors the current state to the store, clearing it when Idle.
// Failures are logged; the in-memory timer stays authoritative.
func (c *Controller) save(ctx context.Context) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	st := c.snapshotState()
	var err error
	if st == nil {
		err = c.store.Clear(ctx)
	} else {
		err = c.store.Save(ctx, st)
	}
	if err != nil {
		c.logger.Warn("timer snapshot write failed", "error", err)
	}
}

func (c *Controller) emitGoal(out *reconcile.Outcome) {
	ev := focus.Event{Type: focus.EventGoalAchieved}
	if out.Progress != nil {
		ev.Minutes = out.Progress.MinutesCompleted
	}
	if out.Streak != nil {
		ev.Streak = out.Streak.CurrentStreak
	}
	c.emit(ev)
}

func (c *Controller) emit(ev focus.Event) {
	ev.OwnerID = c.cfg.OwnerID
	if ev.At.IsZero() {
		ev.At = c.clock.Now()
	}
	c.notify.Notify(ev)
}
