package relay

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrChannelClosed = errors.New("channel closed")
	ErrPoolClosed    = errors.New("pool closed")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// fatalError marks an error that must stop the listener and abort the run.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return "fatal: " + e.err.Error() }

func (e *fatalError) Unwrap() error { return e.err }

// Fatal marks err as fatal. A handler returning a fatal error stops the listener and makes Run fail.
// Fatal(nil) returns nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err must stop the coordination. Interruptions (context cancellation or
// deadline) are always fatal; anything else is fatal only when marked with Fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var fe *fatalError
	return errors.As(err, &fe) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// JobError ties a job failure to its submission index.
type JobError struct {
	Index int
	Err   error
}

func (e *JobError) Error() string { return fmt.Sprintf("job %d: %v", e.Index, e.Err) }

func (e *JobError) Unwrap() error { return e.Err }

// panicError builds the error reported for a panic recovered in who (a job or a handler).
func panicError(who string, rec any) error {
	if err, ok := rec.(error); ok {
		return fmt.Errorf("%s panicked: %w", who, err)
	}
	return fmt.Errorf("%s panicked: %v", who, rec)
}
