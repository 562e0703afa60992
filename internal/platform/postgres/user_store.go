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

var _ store.UserStore = (*UserStore)(nil)

// UserStore implements store.UserStore against PostgreSQL.
type UserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewUserStore constructs a UserStore. db may be a *sql.DB or a *sql.Tx.
func NewUserStore(db store.DBTX, log *slog.Logger) *UserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &UserStore{db: db, logger: log.With(slog.String("component", "user_store"))}
}

func (s *UserStore) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	const q = `SELECT id, rating, deviation, volatility, next_puzzle FROM users WHERE id = $1`

	var u domain.User
	var nextPuzzle sql.NullString
	err := s.db.QueryRowContext(ctx, q, string(id)).Scan(
		&u.ID, &u.Rating.Rating, &u.Rating.Deviation, &u.Rating.Volatility, &nextPuzzle,
	)
	if err != nil {
		return nil, MapError(err)
	}
	if nextPuzzle.Valid {
		u.NextPuzzle = &nextPuzzle.String
	}
	return &u, nil
}

func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	const q = `
		INSERT INTO users (id, rating, deviation, volatility)
		VALUES ($1, $2, $3, $4)`

	_, err := s.db.ExecContext(ctx, q, string(user.ID), user.Rating.Rating, user.Rating.Deviation, user.Rating.Volatility)
	if err != nil {
		log.Error("failed to insert user", slog.String("user_id", string(user.ID)), slog.String("error", err.Error()))
		return fmt.Errorf("failed to insert user: %w", MapError(err))
	}
	return nil
}

func (s *UserStore) UpdateRating(ctx context.Context, id domain.UserID, rating domain.UserRating) error {
	const q = `UPDATE users SET rating = $1, deviation = $2, volatility = $3 WHERE id = $4`

	result, err := s.db.ExecContext(ctx, q, rating.Rating, rating.Deviation, rating.Volatility, string(id))
	if err != nil {
		return fmt.Errorf("failed to update user rating: %w", MapError(err))
	}
	return CheckRowsAffected(result, "user")
}

func (s *UserStore) SetNextPuzzle(ctx context.Context, id domain.UserID, puzzleID *string) error {
	const q = `UPDATE users SET next_puzzle = $1 WHERE id = $2`

	result, err := s.db.ExecContext(ctx, q, puzzleID, string(id))
	if err != nil {
		return fmt.Errorf("failed to update next puzzle: %w", MapError(err))
	}
	return CheckRowsAffected(result, "user")
}

func (s *UserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &UserStore{db: tx, logger: s.logger}
}
