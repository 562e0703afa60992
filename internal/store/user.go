package store

import (
	"context"
	"database/sql"

	"github.com/catchouli/better-tactics/internal/domain"
)

// UserStore defines the interface for user persistence. The trainer
// serves a single logical learner, but the interface keeps an ID so the
// schema and call sites match the teacher's multi-user layout.
type UserStore interface {
	// GetByID retrieves a user by ID, or returns ErrNotFound.
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)

	// Create inserts a new user with the rating carried on user.
	Create(ctx context.Context, user *domain.User) error

	// UpdateRating persists a user's new rating triple.
	UpdateRating(ctx context.Context, id domain.UserID, rating domain.UserRating) error

	// SetNextPuzzle persists (or clears, with a nil puzzleID) the user's
	// sticky next-puzzle pointer.
	SetNextPuzzle(ctx context.Context, id domain.UserID, puzzleID *string) error

	// WithTx returns a UserStore bound to tx.
	WithTx(tx *sql.Tx) UserStore
}
