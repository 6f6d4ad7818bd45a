package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence matches every *PersistenceError.
	ErrPersistence = errors.New("persistence failure")
	// ErrInvalidMinutes is returned for non-positive session minutes or negative deltas.
	ErrInvalidMinutes = errors.New("invalid minutes")
	// ErrNoOwner is returned when reconciliation is attempted without an owner.
	ErrNoOwner = errors.New("owner id is required")
	// ErrCommitKindMismatch is returned when a commit ID already names a
	// session of the other kind, partial versus completed.
	ErrCommitKindMismatch = errors.New("commit id belongs to a different session kind")
)

// PersistenceError reports which store operation failed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func persistErr(op string, err error) error {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
