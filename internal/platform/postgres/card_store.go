package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/catchouli/better-tactics/internal/domain"
	"github.com/catchouli/better-tactics/internal/platform/logger"
	"github.com/catchouli/better-tactics/internal/store"
)

var _ store.CardStore = (*CardStore)(nil)

// CardStore implements store.CardStore against PostgreSQL.
type CardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewCardStore constructs a CardStore. db may be a *sql.DB or a *sql.Tx.
func NewCardStore(db store.DBTX, log *slog.Logger) *CardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &CardStore{db: db, logger: log.With(slog.String("component", "card_store"))}
}

func (s *CardStore) Create(ctx context.Context, card *domain.Card, userID domain.UserID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := card.Validate(0); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	const q = `
		INSERT INTO cards (user_id, puzzle_id, due, interval_seconds, review_count, ease, learning_stage)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, q,
		string(userID), card.PuzzleID, card.Due, card.Interval.Seconds(),
		card.ReviewCount, card.Ease, card.LearningStage,
	)
	if err != nil {
		log.Error("failed to insert card", slog.String("puzzle_id", card.PuzzleID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to insert card: %w", MapError(err))
	}
	return nil
}

func (s *CardStore) GetByPuzzleID(ctx context.Context, userID domain.UserID, puzzleID string) (*domain.Card, error) {
	const q = `
		SELECT puzzle_id, due, interval_seconds, review_count, ease, learning_stage
		FROM cards WHERE user_id = $1 AND puzzle_id = $2`

	return s.scanOne(ctx, q, string(userID), puzzleID)
}

func (s *CardStore) scanOne(ctx context.Context, q string, args ...any) (*domain.Card, error) {
	var c domain.Card
	var intervalSeconds float64
	err := s.db.QueryRowContext(ctx, q, args...).Scan(
		&c.PuzzleID, &c.Due, &intervalSeconds, &c.ReviewCount, &c.Ease, &c.LearningStage,
	)
	if err != nil {
		return nil, MapError(err)
	}
	c.Interval = time.Duration(intervalSeconds * float64(time.Second))
	return &c, nil
}

func (s *CardStore) Update(ctx context.Context, card *domain.Card, userID domain.UserID) error {
	const q = `
		UPDATE cards
		SET due = $1, interval_seconds = $2, review_count = $3, ease = $4, learning_stage = $5
		WHERE user_id = $6 AND puzzle_id = $7`

	result, err := s.db.ExecContext(ctx, q,
		card.Due, card.Interval.Seconds(), card.ReviewCount, card.Ease, card.LearningStage,
		string(userID), card.PuzzleID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", MapError(err))
	}
	return CheckRowsAffected(result, "card")
}

func (s *CardStore) DueCards(ctx context.Context, userID domain.UserID, now time.Time) ([]*domain.Card, error) {
	const q = `
		SELECT puzzle_id, due, interval_seconds, review_count, ease, learning_stage
		FROM cards WHERE user_id = $1 AND due <= $2`

	rows, err := s.db.QueryContext(ctx, q, string(userID), now)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		var c domain.Card
		var intervalSeconds float64
		if err := rows.Scan(&c.PuzzleID, &c.Due, &intervalSeconds, &c.ReviewCount, &c.Ease, &c.LearningStage); err != nil {
			return nil, MapError(err)
		}
		c.Interval = time.Duration(intervalSeconds * float64(time.Second))
		cards = append(cards, &c)
	}
	return cards, rows.Err()
}

func (s *CardStore) ReviewAheadCards(ctx context.Context, userID domain.UserID, dayEnd time.Time, minInterval time.Duration) ([]*domain.Card, error) {
	const q = `
		SELECT puzzle_id, due, interval_seconds, review_count, ease, learning_stage
		FROM cards WHERE user_id = $1 AND due <= $2 AND interval_seconds >= $3`

	rows, err := s.db.QueryContext(ctx, q, string(userID), dayEnd, minInterval.Seconds())
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		var c domain.Card
		var intervalSeconds float64
		if err := rows.Scan(&c.PuzzleID, &c.Due, &intervalSeconds, &c.ReviewCount, &c.Ease, &c.LearningStage); err != nil {
			return nil, MapError(err)
		}
		c.Interval = time.Duration(intervalSeconds * float64(time.Second))
		cards = append(cards, &c)
	}
	return cards, rows.Err()
}

func (s *CardStore) CountDueBetween(ctx context.Context, userID domain.UserID, from, to time.Time) (int, error) {
	const q = `SELECT count(*) FROM cards WHERE user_id = $1 AND due >= $2 AND due < $3`

	var n int
	err := s.db.QueryRowContext(ctx, q, string(userID), from, to).Scan(&n)
	if err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

func (s *CardStore) PuzzleIDs(ctx context.Context, userID domain.UserID) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT puzzle_id FROM cards WHERE user_id = $1`, string(userID))
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, MapError(err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *CardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &CardStore{db: tx, logger: s.logger}
}
