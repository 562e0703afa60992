package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/catchouli/better-tactics/internal/domain"
	"github.com/catchouli/better-tactics/internal/platform/logger"
	"github.com/catchouli/better-tactics/internal/store"
)

var _ store.ReviewStore = (*ReviewStore)(nil)

// ReviewStore implements store.ReviewStore against PostgreSQL.
type ReviewStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewReviewStore constructs a ReviewStore. db may be a *sql.DB or a *sql.Tx.
func NewReviewStore(db store.DBTX, log *slog.Logger) *ReviewStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ReviewStore{db: db, logger: log.With(slog.String("component", "review_store"))}
}

func (s *ReviewStore) Create(ctx context.Context, review *domain.Review) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := review.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	const q = `
		INSERT INTO reviews (user_id, puzzle_id, difficulty, date, user_rating_snapshot)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, q,
		string(review.UserID), review.PuzzleID, string(review.Difficulty), review.Date, review.UserRatingSnapshot,
	)
	if err != nil {
		log.Error("failed to insert review", slog.String("puzzle_id", review.PuzzleID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to insert review: %w", MapError(err))
	}
	return nil
}

func (s *ReviewStore) CreateSkipped(ctx context.Context, skipped *domain.SkippedPuzzle) error {
	const q = `INSERT INTO skipped_puzzles (user_id, puzzle_id, date) VALUES ($1, $2, $3)`

	_, err := s.db.ExecContext(ctx, q, string(skipped.UserID), skipped.PuzzleID, skipped.Date)
	if err != nil {
		return fmt.Errorf("failed to insert skipped puzzle: %w", MapError(err))
	}
	return nil
}

func (s *ReviewStore) RatingHistory(ctx context.Context, userID domain.UserID) ([]store.RatingPoint, error) {
	const q = `
		SELECT date, user_rating_snapshot
		FROM reviews
		WHERE user_id = $1 AND user_rating_snapshot IS NOT NULL
		ORDER BY date ASC`

	rows, err := s.db.QueryContext(ctx, q, string(userID))
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var points []store.RatingPoint
	for rows.Next() {
		var p store.RatingPoint
		if err := rows.Scan(&p.Date, &p.Rating); err != nil {
			return nil, MapError(err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *ReviewStore) ScoreHistogram(ctx context.Context, userID domain.UserID) ([]store.ScoreHistogramBucket, error) {
	const q = `
		SELECT difficulty, count(*)
		FROM reviews
		WHERE user_id = $1
		GROUP BY difficulty`

	rows, err := s.db.QueryContext(ctx, q, string(userID))
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var buckets []store.ScoreHistogramBucket
	for rows.Next() {
		var outcome string
		var b store.ScoreHistogramBucket
		if err := rows.Scan(&outcome, &b.Count); err != nil {
			return nil, MapError(err)
		}
		b.Outcome = domain.ReviewOutcome(outcome)
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func (s *ReviewStore) DistinctPuzzleHistory(ctx context.Context, userID domain.UserID, limit, offset int) ([]store.PuzzleHistoryEntry, error) {
	const q = `
		SELECT puzzle_id, max(date) AS last_review,
		       (array_agg(difficulty ORDER BY date DESC))[1] AS last_difficulty,
		       count(*)
		FROM reviews
		WHERE user_id = $1
		GROUP BY puzzle_id
		ORDER BY last_review DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, q, string(userID), limit, offset)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var entries []store.PuzzleHistoryEntry
	for rows.Next() {
		var e store.PuzzleHistoryEntry
		var outcome string
		if err := rows.Scan(&e.PuzzleID, &e.LastReview, &outcome, &e.ReviewCount); err != nil {
			return nil, MapError(err)
		}
		e.Outcome = domain.ReviewOutcome(outcome)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *ReviewStore) CountReviews(ctx context.Context, userID domain.UserID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM reviews WHERE user_id = $1`, string(userID)).Scan(&n)
	if err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

func (s *ReviewStore) WithTx(tx *sql.Tx) store.ReviewStore {
	return &ReviewStore{db: tx, logger: s.logger}
}
