package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/catchouli/better-tactics/internal/domain"
	"github.com/catchouli/better-tactics/internal/platform/logger"
	"github.com/catchouli/better-tactics/internal/store"
)

var _ store.PuzzleStore = (*PuzzleStore)(nil)

// PuzzleStore implements store.PuzzleStore against PostgreSQL.
type PuzzleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPuzzleStore constructs a PuzzleStore. db may be a *sql.DB or a
// *sql.Tx; if logger is nil, the default logger is used.
func NewPuzzleStore(db store.DBTX, log *slog.Logger) *PuzzleStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PuzzleStore{db: db, logger: log.With(slog.String("component", "puzzle_store"))}
}

func (s *PuzzleStore) GetByID(ctx context.Context, puzzleID string) (*domain.Puzzle, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	const q = `
		SELECT puzzle_id, fen, moves, rating, rating_deviation, popularity,
		       plays, themes, openings, url
		FROM puzzles WHERE puzzle_id = $1`

	var p domain.Puzzle
	var themes, openings string
	err := s.db.QueryRowContext(ctx, q, puzzleID).Scan(
		&p.PuzzleID, &p.FEN, &p.Moves, &p.Rating, &p.RatingDeviation, &p.Popularity,
		&p.Plays, &themes, &openings, &p.URL,
	)
	if err != nil {
		log.Debug("puzzle lookup failed", slog.String("puzzle_id", puzzleID), slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	p.Themes = splitNonEmpty(themes)
	p.Openings = splitNonEmpty(openings)
	return &p, nil
}

func (s *PuzzleStore) CreateMultiple(ctx context.Context, puzzles []*domain.Puzzle) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if len(puzzles) == 0 {
		return nil
	}

	const q = `
		INSERT INTO puzzles (puzzle_id, fen, moves, rating, rating_deviation,
		                      popularity, plays, themes, openings, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (puzzle_id) DO NOTHING`

	for _, p := range puzzles {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
		_, err := s.db.ExecContext(ctx, q,
			p.PuzzleID, p.FEN, p.Moves, p.Rating, p.RatingDeviation,
			p.Popularity, p.Plays, strings.Join(p.Themes, " "), strings.Join(p.Openings, " "), p.URL,
		)
		if err != nil {
			log.Error("failed to insert puzzle", slog.String("puzzle_id", p.PuzzleID), slog.String("error", err.Error()))
			return fmt.Errorf("failed to insert puzzle: %w", MapError(err))
		}
	}
	return nil
}

func (s *PuzzleStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM puzzles`).Scan(&n)
	if err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

func (s *PuzzleStore) RatingRange(ctx context.Context) (min, max int, err error) {
	const q = `SELECT coalesce(min(rating), 0), coalesce(max(rating), 0) FROM puzzles`
	if err := s.db.QueryRowContext(ctx, q).Scan(&min, &max); err != nil {
		return 0, 0, MapError(err)
	}
	return min, max, nil
}

func (s *PuzzleStore) RandomInRatingRange(ctx context.Context, minRating, maxRating int) (*domain.Puzzle, error) {
	const q = `
		SELECT puzzle_id, fen, moves, rating, rating_deviation, popularity,
		       plays, themes, openings, url
		FROM puzzles
		WHERE rating BETWEEN $1 AND $2
		ORDER BY random() LIMIT 1`

	var p domain.Puzzle
	var themes, openings string
	err := s.db.QueryRowContext(ctx, q, minRating, maxRating).Scan(
		&p.PuzzleID, &p.FEN, &p.Moves, &p.Rating, &p.RatingDeviation, &p.Popularity,
		&p.Plays, &themes, &openings, &p.URL,
	)
	if err != nil {
		return nil, MapError(err)
	}
	p.Themes = splitNonEmpty(themes)
	p.Openings = splitNonEmpty(openings)
	return &p, nil
}

func (s *PuzzleStore) WithTx(tx *sql.Tx) store.PuzzleStore {
	return &PuzzleStore{db: tx, logger: s.logger}
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}
