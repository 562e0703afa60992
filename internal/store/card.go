package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/catchouli/better-tactics/internal/domain"
)

// CardStore defines the interface for scheduling-card persistence. A card
// is keyed by (userID, puzzleID); the trainer has exactly one user per
// deployment but the key still carries the user ID so the schema matches
// the teacher's multi-user layout.
type CardStore interface {
	// Create inserts a new card. Returns ErrDuplicate if a card for this
	// user and puzzle already exists.
	Create(ctx context.Context, card *domain.Card, userID domain.UserID) error

	// GetByPuzzleID retrieves a user's card for a puzzle, or ErrNotFound.
	GetByPuzzleID(ctx context.Context, userID domain.UserID, puzzleID string) (*domain.Card, error)

	// Update persists a card's new scheduling state (as produced by
	// srs.Review). Returns ErrNotFound if no such card exists.
	Update(ctx context.Context, card *domain.Card, userID domain.UserID) error

	// DueCards returns all of a user's cards due at or before now.
	DueCards(ctx context.Context, userID domain.UserID, now time.Time) ([]*domain.Card, error)

	// ReviewAheadCards returns all of a user's cards due at or before
	// dayEnd whose interval is at least minInterval, i.e. mature cards
	// eligible for review-ahead (in-learning cards are excluded).
	ReviewAheadCards(ctx context.Context, userID domain.UserID, dayEnd time.Time, minInterval time.Duration) ([]*domain.Card, error)

	// CountDueBetween counts a user's cards due within [from, to), used to
	// build the review forecast.
	CountDueBetween(ctx context.Context, userID domain.UserID, from, to time.Time) (int, error)

	// PuzzleIDs returns every puzzle ID the user already has a card for,
	// used to prefer unseen puzzles when sampling a new one.
	PuzzleIDs(ctx context.Context, userID domain.UserID) ([]string, error)

	// WithTx returns a CardStore bound to tx.
	WithTx(tx *sql.Tx) CardStore
}
