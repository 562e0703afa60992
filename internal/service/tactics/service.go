package tactics

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/catchouli/better-tactics/internal/domain"
	"github.com/catchouli/better-tactics/internal/domain/rating"
	"github.com/catchouli/better-tactics/internal/domain/srs"
	"github.com/catchouli/better-tactics/internal/platform/clock"
	"github.com/catchouli/better-tactics/internal/platform/logger"
	"github.com/catchouli/better-tactics/internal/store"
)

// sampleAttempts bounds how many times GetRandomPuzzle retries sampling an
// unseen puzzle before falling back to whatever it last drew.
const sampleAttempts = 5

// ForecastDay is one day's worth of the review-count forecast.
type ForecastDay struct {
	Date  time.Time
	Count int
}

// Service orchestrates the scheduling engine (internal/domain/srs), the
// rating engine (internal/domain/rating), and persistence into the
// operations the delivery layer calls.
type Service interface {
	// GetNextReview returns the next due card for the user; when none are
	// due it returns a mature card due before the end of the current
	// scheduling day (review ahead), and ErrNoPuzzlesAvailable if there is
	// neither.
	GetNextReview(ctx context.Context, userID domain.UserID) (*domain.Card, error)

	// GetRandomPuzzle returns a puzzle rated near the user's own rating
	// for them to try. If the user already has a sticky "next puzzle"
	// pending (from a previous call that hasn't been reviewed or
	// skipped yet), that same puzzle is returned again.
	GetRandomPuzzle(ctx context.Context, userID domain.UserID) (*domain.Puzzle, error)

	// ApplyReview grades the user's attempt at puzzleID. expectedReviewCount
	// must match the card's current review count; a mismatch means
	// another review for this card has already been applied (e.g. a
	// duplicate submission from a retried request), and ApplyReview
	// silently no-ops, returning the card's current (unmodified) state.
	ApplyReview(ctx context.Context, userID domain.UserID, puzzleID string, grade domain.ReviewOutcome, expectedReviewCount int) (*domain.Card, error)

	// SkipPuzzle records that the user skipped their current sticky next
	// puzzle without grading it, and clears the sticky pointer.
	SkipPuzzle(ctx context.Context, userID domain.UserID) error

	// GetUserStats returns the user's current rating.
	GetUserStats(ctx context.Context, userID domain.UserID) (domain.UserRating, error)

	// GetReviewForecast returns the count of cards due on each of the
	// next days days, bucketed by the configured day-end boundary.
	GetReviewForecast(ctx context.Context, userID domain.UserID, days int) ([]ForecastDay, error)

	// GetRatingHistory returns the user's rating-over-time series.
	GetRatingHistory(ctx context.Context, userID domain.UserID) ([]store.RatingPoint, error)

	// GetReviewScoreHistogram returns the count of reviews per outcome
	// grade, over the user's whole history.
	GetReviewScoreHistogram(ctx context.Context, userID domain.UserID) ([]store.ScoreHistogramBucket, error)

	// GetDistinctPuzzleHistory returns a page of the user's distinct
	// reviewed puzzles, most recently reviewed first.
	GetDistinctPuzzleHistory(ctx context.Context, userID domain.UserID, limit, offset int) ([]store.PuzzleHistoryEntry, error)

	// ResetUserRating resets the user back to the default rating triple.
	// Exposed only to the admin surface (see SPEC_FULL.md), not the
	// learner-facing API.
	ResetUserRating(ctx context.Context, userID domain.UserID) error
}

type service struct {
	db                  *sql.DB
	cardStore           store.CardStore
	puzzleStore         store.PuzzleStore
	userStore           store.UserStore
	reviewStore         store.ReviewStore
	srs                 srs.Service
	clock               clock.Clock
	logger              *slog.Logger
	ratingVariationUp   float64
	ratingVariationDown float64
}

// NewService constructs the tactics Service. db is used only to open
// transactions via store.RunInTransaction; all actual reads/writes go
// through the store interfaces so the service never depends on SQL
// directly. ratingVariationUp/Down are the fractional widenings of the
// random-puzzle rating window, sourced from config.PuzzleConfig.
func NewService(
	db *sql.DB,
	cardStore store.CardStore,
	puzzleStore store.PuzzleStore,
	userStore store.UserStore,
	reviewStore store.ReviewStore,
	srsService srs.Service,
	clk clock.Clock,
	log *slog.Logger,
	ratingVariationUp float64,
	ratingVariationDown float64,
) (Service, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if cardStore == nil || puzzleStore == nil || userStore == nil || reviewStore == nil {
		return nil, errors.New("store dependencies cannot be nil")
	}
	if srsService == nil {
		return nil, errors.New("srsService cannot be nil")
	}
	if clk == nil {
		return nil, errors.New("clock cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &service{
		db:                  db,
		cardStore:           cardStore,
		puzzleStore:         puzzleStore,
		userStore:           userStore,
		reviewStore:         reviewStore,
		srs:                 srsService,
		clock:               clk,
		logger:              log.With(slog.String("component", "tactics_service")),
		ratingVariationUp:   ratingVariationUp,
		ratingVariationDown: ratingVariationDown,
	}, nil
}

func (s *service) GetNextReview(ctx context.Context, userID domain.UserID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.clock.Now()
	params := s.srs.Params()
	dayEnd := s.srs.DayEnd(now)
	maxLearning := params.InitialIntervals[len(params.InitialIntervals)-1]

	a, err := s.cardStore.DueCards(ctx, userID, now)
	if err != nil {
		log.Error("failed to list due cards", slog.String("error", err.Error()))
		return nil, newServiceError("get_next_review", "failed to list due cards", err)
	}
	b, err := s.cardStore.ReviewAheadCards(ctx, userID, dayEnd, maxLearning)
	if err != nil {
		log.Error("failed to list review-ahead cards", slog.String("error", err.Error()))
		return nil, newServiceError("get_next_review", "failed to list review-ahead cards", err)
	}

	a, err = s.orderCards(ctx, a, params.ReviewOrder)
	if err != nil {
		return nil, newServiceError("get_next_review", "failed to order due cards", err)
	}
	b, err = s.orderCards(ctx, b, params.ReviewOrder)
	if err != nil {
		return nil, newServiceError("get_next_review", "failed to order review-ahead cards", err)
	}

	switch {
	case len(a) == 0 && len(b) == 0:
		return nil, ErrNoPuzzlesAvailable
	case len(a) == 0:
		return b[0], nil
	case len(b) == 0:
		return a[0], nil
	}

	switch params.ReviewOrder {
	case srs.ReviewOrderDueTime:
		if b[0].Due.Before(a[0].Due) {
			return b[0], nil
		}
		return a[0], nil
	case srs.ReviewOrderPuzzleRating:
		pa, err := s.puzzleStore.GetByID(ctx, a[0].PuzzleID)
		if err != nil {
			return nil, newServiceError("get_next_review", "failed to load puzzle", err)
		}
		pb, err := s.puzzleStore.GetByID(ctx, b[0].PuzzleID)
		if err != nil {
			return nil, newServiceError("get_next_review", "failed to load puzzle", err)
		}
		if pb.Rating < pa.Rating {
			return b[0], nil
		}
		return a[0], nil
	default: // Random: always pick A.
		return a[0], nil
	}
}

// orderCards sorts cards per order, dropping any whose referenced puzzle
// row is missing. DueTime and Random ordering delegate to srs.Service.Order;
// PuzzleRating ordering needs the puzzle corpus, so it's resolved here.
func (s *service) orderCards(ctx context.Context, cards []*domain.Card, order srs.ReviewOrder) ([]*domain.Card, error) {
	filtered := make([]*domain.Card, 0, len(cards))
	ratings := make(map[string]int, len(cards))
	for _, c := range cards {
		p, err := s.puzzleStore.GetByID(ctx, c.PuzzleID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		ratings[c.PuzzleID] = p.Rating
		filtered = append(filtered, c)
	}

	if order == srs.ReviewOrderPuzzleRating {
		sort.SliceStable(filtered, func(i, j int) bool {
			return ratings[filtered[i].PuzzleID] < ratings[filtered[j].PuzzleID]
		})
		return filtered, nil
	}
	return s.srs.Order(filtered), nil
}

func (s *service) GetRandomPuzzle(ctx context.Context, userID domain.UserID) (*domain.Puzzle, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, newServiceError("get_random_puzzle", "failed to load user", err)
	}

	if user.NextPuzzle != nil {
		_, err := s.cardStore.GetByPuzzleID(ctx, userID, *user.NextPuzzle)
		switch {
		case errors.Is(err, store.ErrNotFound):
			puzzle, err := s.puzzleStore.GetByID(ctx, *user.NextPuzzle)
			if err != nil {
				return nil, newServiceError("get_random_puzzle", "failed to load sticky next puzzle", err)
			}
			return puzzle, nil
		case err != nil:
			return nil, newServiceError("get_random_puzzle", "failed to check sticky next puzzle", err)
		}
	}

	corpusMin, corpusMax, err := s.puzzleStore.RatingRange(ctx)
	if err != nil {
		return nil, newServiceError("get_random_puzzle", "failed to load puzzle rating range", err)
	}

	minRating := user.Rating.Rating - int(float64(user.Rating.Rating)*s.ratingVariationDown)
	maxRating := user.Rating.Rating + int(float64(user.Rating.Rating)*s.ratingVariationUp)
	if minRating < corpusMin {
		minRating = corpusMin
	}
	if maxRating > corpusMax {
		maxRating = corpusMax
	}
	if minRating > corpusMax {
		minRating = corpusMax
	}
	if maxRating < corpusMin {
		maxRating = corpusMin
	}

	seen, err := s.cardStore.PuzzleIDs(ctx, userID)
	if err != nil {
		return nil, newServiceError("get_random_puzzle", "failed to list seen puzzles", err)
	}
	seenSet := make(map[string]bool, len(seen))
	for _, id := range seen {
		seenSet[id] = true
	}

	var puzzle *domain.Puzzle
	for attempt := 0; attempt < sampleAttempts; attempt++ {
		candidate, err := s.puzzleStore.RandomInRatingRange(ctx, minRating, maxRating)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				break
			}
			return nil, newServiceError("get_random_puzzle", "failed to sample puzzle", err)
		}
		puzzle = candidate
		if !seenSet[candidate.PuzzleID] {
			break
		}
	}
	if puzzle == nil {
		return nil, ErrNoPuzzlesAvailable
	}

	if err := s.userStore.SetNextPuzzle(ctx, userID, &puzzle.PuzzleID); err != nil {
		log.Error("failed to persist sticky next puzzle", slog.String("error", err.Error()))
		return nil, newServiceError("get_random_puzzle", "failed to persist sticky next puzzle", err)
	}

	return puzzle, nil
}

func (s *service) ApplyReview(ctx context.Context, userID domain.UserID, puzzleID string, grade domain.ReviewOutcome, expectedReviewCount int) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !grade.IsValid() {
		return nil, ErrInvalidOutcome
	}

	var result *domain.Card
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txCards := s.cardStore.WithTx(tx)
		txUsers := s.userStore.WithTx(tx)
		txPuzzles := s.puzzleStore.WithTx(tx)
		txReviews := s.reviewStore.WithTx(tx)

		card, err := txCards.GetByPuzzleID(ctx, userID, puzzleID)
		isNew := false
		if errors.Is(err, store.ErrNotFound) {
			newCard, cerr := s.srs.NewCard(puzzleID)
			if cerr != nil {
				return cerr
			}
			card = newCard
			isNew = true
		} else if err != nil {
			return err
		}

		if card.ReviewCount != expectedReviewCount {
			log.Info("review count mismatch, discarding duplicate submission",
				slog.String("puzzle_id", puzzleID),
				slog.Int("expected", expectedReviewCount),
				slog.Int("actual", card.ReviewCount))
			result = card
			return nil
		}

		updated := s.srs.Review(card, grade)
		if isNew {
			if err := txCards.Create(ctx, updated, userID); err != nil {
				return err
			}
		} else if err := txCards.Update(ctx, updated, userID); err != nil {
			return err
		}

		user, err := txUsers.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		puzzle, err := txPuzzles.GetByID(ctx, puzzleID)
		if err != nil {
			return err
		}

		newRating := rating.ApplyReview(user.Rating, puzzle.Rating, puzzle.RatingDeviation, grade)
		if err := txUsers.UpdateRating(ctx, userID, newRating); err != nil {
			return err
		}

		review := &domain.Review{
			UserID:             userID,
			PuzzleID:           puzzleID,
			Difficulty:         grade,
			Date:               s.clock.Now(),
			UserRatingSnapshot: &newRating.Rating,
		}
		if err := txReviews.Create(ctx, review); err != nil {
			return err
		}

		if user.NextPuzzle != nil && *user.NextPuzzle == puzzleID {
			if err := txUsers.SetNextPuzzle(ctx, userID, nil); err != nil {
				return err
			}
		}

		result = updated
		return nil
	})
	if err != nil {
		log.Error("failed to apply review", slog.String("error", err.Error()))
		return nil, newServiceError("apply_review", "failed to apply review", err)
	}

	return result, nil
}

func (s *service) SkipPuzzle(ctx context.Context, userID domain.UserID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return newServiceError("skip_puzzle", "failed to load user", err)
	}
	if user.NextPuzzle == nil {
		return ErrNoNextPuzzle
	}

	skipped := &domain.SkippedPuzzle{UserID: userID, PuzzleID: *user.NextPuzzle, Date: s.clock.Now()}
	if err := s.reviewStore.CreateSkipped(ctx, skipped); err != nil {
		log.Error("failed to record skipped puzzle", slog.String("error", err.Error()))
		return newServiceError("skip_puzzle", "failed to record skipped puzzle", err)
	}

	if err := s.userStore.SetNextPuzzle(ctx, userID, nil); err != nil {
		return newServiceError("skip_puzzle", "failed to clear sticky next puzzle", err)
	}
	return nil
}

func (s *service) GetUserStats(ctx context.Context, userID domain.UserID) (domain.UserRating, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return domain.UserRating{}, newServiceError("get_user_stats", "failed to load user", err)
	}
	return user.Rating, nil
}

func (s *service) GetReviewForecast(ctx context.Context, userID domain.UserID, days int) ([]ForecastDay, error) {
	params := s.srs.Params()
	now := s.clock.Now()
	forecast := make([]ForecastDay, 0, days)

	bucketStart := s.srs.DayBucket(now)
	for i := 0; i < days; i++ {
		dayStart := bucketStart.AddDate(0, 0, i)
		dayEnd := dayStart.AddDate(0, 0, 1)

		rollover := time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(), params.DayEndHour, 0, 0, 0, dayStart.Location())
		nextRollover := time.Date(dayEnd.Year(), dayEnd.Month(), dayEnd.Day(), params.DayEndHour, 0, 0, 0, dayEnd.Location())

		count, err := s.cardStore.CountDueBetween(ctx, userID, rollover, nextRollover)
		if err != nil {
			return nil, newServiceError("get_review_forecast", "failed to count due cards", err)
		}
		forecast = append(forecast, ForecastDay{Date: dayStart, Count: count})
	}
	return forecast, nil
}

func (s *service) GetRatingHistory(ctx context.Context, userID domain.UserID) ([]store.RatingPoint, error) {
	points, err := s.reviewStore.RatingHistory(ctx, userID)
	if err != nil {
		return nil, newServiceError("get_rating_history", "failed to load rating history", err)
	}
	return points, nil
}

func (s *service) GetReviewScoreHistogram(ctx context.Context, userID domain.UserID) ([]store.ScoreHistogramBucket, error) {
	buckets, err := s.reviewStore.ScoreHistogram(ctx, userID)
	if err != nil {
		return nil, newServiceError("get_review_score_histogram", "failed to load score histogram", err)
	}
	return buckets, nil
}

func (s *service) GetDistinctPuzzleHistory(ctx context.Context, userID domain.UserID, limit, offset int) ([]store.PuzzleHistoryEntry, error) {
	entries, err := s.reviewStore.DistinctPuzzleHistory(ctx, userID, limit, offset)
	if err != nil {
		return nil, newServiceError("get_distinct_puzzle_history", "failed to load puzzle history", err)
	}
	return entries, nil
}

func (s *service) ResetUserRating(ctx context.Context, userID domain.UserID) error {
	if err := s.userStore.UpdateRating(ctx, userID, domain.NewDefaultUserRating()); err != nil {
		return newServiceError("reset_user_rating", "failed to reset rating", err)
	}
	return nil
}

var _ Service = (*service)(nil)
