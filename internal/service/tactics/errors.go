// Package tactics orchestrates the scheduling engine, rating engine, and
// persistence layer into the operations a learner-facing API (or CLI)
// actually calls: reviewing a puzzle, fetching the next one, and reading
// back progress statistics.
package tactics

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Service methods.
var (
	// ErrNoPuzzlesAvailable indicates there is nothing to offer the user:
	// GetRandomPuzzle found no puzzle in the user's rating window (an
	// already-seen puzzle is still returned when no unseen one is sampled),
	// or GetNextReview found no due or review-ahead card.
	ErrNoPuzzlesAvailable = errors.New("no puzzles available")

	// ErrInvalidOutcome indicates a review was submitted with a grade
	// that isn't one of the four recognized outcomes.
	ErrInvalidOutcome = errors.New("invalid review outcome")

	// ErrNoNextPuzzle indicates SkipPuzzle was called without a prior
	// GetRandomPuzzle establishing a sticky next puzzle for the user.
	ErrNoNextPuzzle = errors.New("no next puzzle set for user")
)

// ServiceError wraps an error from the tactics service with the
// operation that produced it, so callers can use errors.As to recover
// the underlying cause without string matching.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func newServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{Operation: operation, Message: message, Err: err}
}
