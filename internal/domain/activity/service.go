package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ganot/timeflow/internal/clock"
	"github.com/ganot/timeflow/internal/domain/focus"
)

// ErrInvalidInput is returned for nil or ownerless entries.
var ErrInvalidInput = errors.New("invalid activity entry")

const subscriberTimeout = 5 * time.Second

// Service handles activity log operations.
type Service struct {
	repo   Repository
	clock  clock.Clock
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, clock: clk, logger: logger}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, ownerID string, entry *Entry) error {
	if entry == nil || ownerID == "" {
		return ErrInvalidInput
	}
	entry.OwnerID = ownerID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock.Now()
	}
	if err := s.repo.Log(ctx, ownerID, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// GetRecentActivity lists activity entries with filtering.
func (s *Service) GetRecentActivity(ctx context.Context, ownerID string, opts ListOptions) ([]Entry, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	return s.repo.List(ctx, ownerID, opts)
}

// Subscriber records timer events for one owner. Tick events are ignored.
type Subscriber struct {
	svc     *Service
	ownerID string
}

// Subscriber returns a timer notifier that writes lifecycle events to the log.
func (s *Service) Subscriber(ownerID string) *Subscriber {
	return &Subscriber{svc: s, ownerID: ownerID}
}

// Notify converts ev into an activity entry.
func (sub *Subscriber) Notify(ev focus.Event) {
	typ, summary, ok := describe(ev)
	if !ok || sub.ownerID == "" {
		return
	}
	details, _ := json.Marshal(ev)
	entry := &Entry{
		Type:      typ,
		Summary:   summary,
		Details:   string(details),
		CreatedAt: ev.At,
	}

	ctx, cancel := context.WithTimeout(context.Background(), subscriberTimeout)
	defer cancel()
	if err := sub.svc.LogActivity(ctx, sub.ownerID, entry); err != nil {
		sub.svc.logger.Warn("activity log write failed", "owner_id", sub.ownerID, "type", typ, "error", err)
	}
}

func describe(ev focus.Event) (Type, string, bool) {
	switch ev.Type {
	case focus.EventStarted:
		return TypeSessionStarted, fmt.Sprintf("started a %d minute session", ev.Minutes), true
	case focus.EventPaused:
		return TypeSessionPaused, fmt.Sprintf("paused with %ds left", ev.SecondsLeft), true
	case focus.EventResumed:
		return TypeSessionResumed, fmt.Sprintf("resumed with %ds left", ev.SecondsLeft), true
	case focus.EventReset:
		return TypeSessionReset, "reset the timer", true
	case focus.EventCompleted:
		return TypeSessionCompleted, fmt.Sprintf("completed a %d minute session", ev.Minutes), true
	case focus.EventGoalAchieved:
		return TypeGoalAchieved, "reached the daily goal", true
	case focus.EventReconciliationFailed:
		return TypeReconciliationFailed, "could not save session progress: " + ev.Err, true
	case focus.EventCompletionAbandoned:
		return TypeCompletionAbandoned, "gave up on an unsaved completed session", true
	default:
		return "", "", false
	}
}
