// Package snapshot persists the live timer state so an in-progress session
// survives a process restart.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned by Load when no snapshot is stored.
	ErrNotFound = errors.New("no timer snapshot")
	// ErrCorrupt is returned by Load when the stored snapshot cannot be decoded.
	ErrCorrupt = errors.New("corrupt timer snapshot")
)

// State is the serialized form of an in-progress timer.
type State struct {
	Active            bool       `json:"active"`
	Paused            bool       `json:"paused"`
	SessionDuration   int        `json:"sessionDuration"` // minutes
	SecondsLeft       int        `json:"secondsLeft"`
	StartTime         time.Time  `json:"startTime"`
	AccumulatedTime   int        `json:"accumulatedTime"` // seconds not yet committed
	LastUpdateTime    time.Time  `json:"lastUpdateTime"`
	LastTickTime      *time.Time `json:"lastTickTime,omitempty"`
	CommitID          string     `json:"commitId,omitempty"`     // next partial commit
	CompletionID      string     `json:"completionId,omitempty"` // natural completion commit
	PendingCompletion bool       `json:"pendingCompletion,omitempty"`
	Category          string     `json:"category,omitempty"`
}

// Store is a single durable slot for one timer's state.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, st *State) error
	Clear(ctx context.Context) error
}

// Encode marshals st.
func Encode(st *State) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Decode unmarshals and sanity-checks data.
func Decode(data []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if st.SessionDuration < 1 || st.SecondsLeft < 0 || st.AccumulatedTime < 0 {
		return nil, fmt.Errorf("%w: duration=%d secondsLeft=%d accumulated=%d",
			ErrCorrupt, st.SessionDuration, st.SecondsLeft, st.AccumulatedTime)
	}
	return &st, nil
}
