package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/catchouli/better-tactics/internal/domain"
)

// RatingPoint is a single sample in a user's rating-over-time history: the
// rating snapshot recorded on a Review, joined with when it happened.
type RatingPoint struct {
	Date   time.Time
	Rating int
}

// ScoreHistogramBucket is a single bar in the review-outcome histogram.
type ScoreHistogramBucket struct {
	Outcome domain.ReviewOutcome
	Count   int
}

// PuzzleHistoryEntry is one row of a user's distinct puzzle review
// history, most recent first.
type PuzzleHistoryEntry struct {
	PuzzleID   string
	LastReview time.Time
	Outcome    domain.ReviewOutcome
	ReviewCount int
}

// ReviewStore defines the interface for the append-only review and
// skipped-puzzle audit log, and the analytical queries built on top of it.
type ReviewStore interface {
	// Create appends a single graded review.
	Create(ctx context.Context, review *domain.Review) error

	// CreateSkipped appends a skipped-puzzle record.
	CreateSkipped(ctx context.Context, skipped *domain.SkippedPuzzle) error

	// RatingHistory returns a user's rating snapshots in chronological
	// order, the basis of the rating-over-time chart.
	RatingHistory(ctx context.Context, userID domain.UserID) ([]RatingPoint, error)

	// ScoreHistogram returns the count of reviews for each outcome grade,
	// over the user's whole history.
	ScoreHistogram(ctx context.Context, userID domain.UserID) ([]ScoreHistogramBucket, error)

	// DistinctPuzzleHistory returns a page of the user's distinct
	// reviewed puzzles, most recently reviewed first.
	DistinctPuzzleHistory(ctx context.Context, userID domain.UserID, limit, offset int) ([]PuzzleHistoryEntry, error)

	// CountReviews returns the total number of reviews recorded for a user.
	CountReviews(ctx context.Context, userID domain.UserID) (int, error)

	// WithTx returns a ReviewStore bound to tx.
	WithTx(tx *sql.Tx) ReviewStore
}
