package store

import (
	"context"
	"database/sql"

	"github.com/catchouli/better-tactics/internal/domain"
)

// PuzzleStore defines read access to the puzzle corpus. Writes belong
// solely to the bulk importer (an external collaborator, not part of this
// interface) except for CreateMultiple, which the importer drives.
type PuzzleStore interface {
	// GetByID retrieves a puzzle by ID, or returns ErrNotFound.
	GetByID(ctx context.Context, puzzleID string) (*domain.Puzzle, error)

	// CreateMultiple bulk-inserts puzzles, skipping (not erroring on) any
	// whose ID already exists, so repeated imports of overlapping corpora
	// are idempotent.
	CreateMultiple(ctx context.Context, puzzles []*domain.Puzzle) error

	// Count returns the total number of imported puzzles.
	Count(ctx context.Context) (int, error)

	// RatingRange returns the minimum and maximum rating across the whole
	// puzzle corpus, used to clamp a sampling window to puzzles that
	// actually exist.
	RatingRange(ctx context.Context) (min, max int, err error)

	// RandomInRatingRange returns one puzzle drawn uniformly at random
	// from those rated within [minRating, maxRating], or ErrNotFound if
	// none fall in that range.
	RandomInRatingRange(ctx context.Context, minRating, maxRating int) (*domain.Puzzle, error)

	// WithTx returns a PuzzleStore bound to tx.
	WithTx(tx *sql.Tx) PuzzleStore
}
