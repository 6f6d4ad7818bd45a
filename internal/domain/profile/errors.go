package profile

import "errors"

var (
	// ErrInvalidGoal indicates a daily goal outside the accepted range.
	ErrInvalidGoal = errors.New("invalid daily goal")
	// ErrInvalidName indicates an empty or oversized display name.
	ErrInvalidName = errors.New("invalid display name")
	// ErrNoOwner indicates a call without a resolved owner.
	ErrNoOwner = errors.New("owner id is required")
)
