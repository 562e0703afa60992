package tactics

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/catchouli/better-tactics/internal/domain"
	"github.com/catchouli/better-tactics/internal/domain/srs"
	"github.com/catchouli/better-tactics/internal/platform/clock"
	"github.com/catchouli/better-tactics/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCardStore, fakePuzzleStore, fakeUserStore, and fakeReviewStore are
// minimal in-memory store.* implementations used to exercise the service
// without a real database, mirroring the teacher's preference for
// tests with fakes over a live Postgres connection.

type fakeCardStore struct {
	mu    sync.Mutex
	cards map[string]*domain.Card // keyed by puzzleID
}

func newFakeCardStore() *fakeCardStore { return &fakeCardStore{cards: map[string]*domain.Card{}} }

func (f *fakeCardStore) Create(ctx context.Context, card *domain.Card, userID domain.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cards[card.PuzzleID]; ok {
		return store.ErrDuplicate
	}
	cp := *card
	f.cards[card.PuzzleID] = &cp
	return nil
}

func (f *fakeCardStore) GetByPuzzleID(ctx context.Context, userID domain.UserID, puzzleID string) (*domain.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[puzzleID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCardStore) Update(ctx context.Context, card *domain.Card, userID domain.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cards[card.PuzzleID]; !ok {
		return store.ErrNotFound
	}
	cp := *card
	f.cards[card.PuzzleID] = &cp
	return nil
}

func (f *fakeCardStore) DueCards(ctx context.Context, userID domain.UserID, now time.Time) ([]*domain.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []*domain.Card
	for _, c := range f.cards {
		if !now.Before(c.Due) {
			cp := *c
			due = append(due, &cp)
		}
	}
	return due, nil
}

func (f *fakeCardStore) ReviewAheadCards(ctx context.Context, userID domain.UserID, dayEnd time.Time, minInterval time.Duration) ([]*domain.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ahead []*domain.Card
	for _, c := range f.cards {
		if !dayEnd.Before(c.Due) && c.Interval >= minInterval {
			cp := *c
			ahead = append(ahead, &cp)
		}
	}
	return ahead, nil
}

func (f *fakeCardStore) CountDueBetween(ctx context.Context, userID domain.UserID, from, to time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.cards {
		if !c.Due.Before(from) && c.Due.Before(to) {
			n++
		}
	}
	return n, nil
}

func (f *fakeCardStore) PuzzleIDs(ctx context.Context, userID domain.UserID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.cards {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeCardStore) WithTx(tx *sql.Tx) store.CardStore { return f }

type fakePuzzleStore struct {
	puzzles   map[string]*domain.Puzzle
	drawIndex int
}

func (f *fakePuzzleStore) GetByID(ctx context.Context, puzzleID string) (*domain.Puzzle, error) {
	p, ok := f.puzzles[puzzleID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}
func (f *fakePuzzleStore) CreateMultiple(ctx context.Context, puzzles []*domain.Puzzle) error {
	return nil
}
func (f *fakePuzzleStore) Count(ctx context.Context) (int, error) { return len(f.puzzles), nil }
func (f *fakePuzzleStore) RatingRange(ctx context.Context) (int, int, error) {
	if len(f.puzzles) == 0 {
		return 0, 0, nil
	}
	min, max := 0, 0
	first := true
	for _, p := range f.puzzles {
		if first || p.Rating < min {
			min = p.Rating
		}
		if first || p.Rating > max {
			max = p.Rating
		}
		first = false
	}
	return min, max, nil
}
func (f *fakePuzzleStore) RandomInRatingRange(ctx context.Context, minRating, maxRating int) (*domain.Puzzle, error) {
	var inRange []*domain.Puzzle
	for _, p := range f.puzzles {
		if p.Rating >= minRating && p.Rating <= maxRating {
			inRange = append(inRange, p)
		}
	}
	if len(inRange) == 0 {
		return nil, store.ErrNotFound
	}
	sort.Slice(inRange, func(i, j int) bool { return inRange[i].PuzzleID < inRange[j].PuzzleID })
	p := inRange[f.drawIndex%len(inRange)]
	f.drawIndex++
	return p, nil
}
func (f *fakePuzzleStore) WithTx(tx *sql.Tx) store.PuzzleStore { return f }

type fakeUserStore struct {
	mu    sync.Mutex
	users map[domain.UserID]*domain.User
}

func (f *fakeUserStore) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}
func (f *fakeUserStore) UpdateRating(ctx context.Context, id domain.UserID, rating domain.UserRating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Rating = rating
	return nil
}
func (f *fakeUserStore) SetNextPuzzle(ctx context.Context, id domain.UserID, puzzleID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.NextPuzzle = puzzleID
	return nil
}
func (f *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return f }

type fakeReviewStore struct {
	mu       sync.Mutex
	reviews  []*domain.Review
	skipped  []*domain.SkippedPuzzle
}

func (f *fakeReviewStore) Create(ctx context.Context, review *domain.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, review)
	return nil
}
func (f *fakeReviewStore) CreateSkipped(ctx context.Context, skipped *domain.SkippedPuzzle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skipped = append(f.skipped, skipped)
	return nil
}
func (f *fakeReviewStore) RatingHistory(ctx context.Context, userID domain.UserID) ([]store.RatingPoint, error) {
	return nil, nil
}
func (f *fakeReviewStore) ScoreHistogram(ctx context.Context, userID domain.UserID) ([]store.ScoreHistogramBucket, error) {
	return nil, nil
}
func (f *fakeReviewStore) DistinctPuzzleHistory(ctx context.Context, userID domain.UserID, limit, offset int) ([]store.PuzzleHistoryEntry, error) {
	return nil, nil
}
func (f *fakeReviewStore) CountReviews(ctx context.Context, userID domain.UserID) (int, error) {
	return len(f.reviews), nil
}
func (f *fakeReviewStore) WithTx(tx *sql.Tx) store.ReviewStore { return f }

// newTestService builds a Service backed entirely by in-memory fakes, for
// tests that don't need a live database. db is nil here because
// RunInTransaction is never reached by the seams these tests exercise
// directly through the fakes (they call the fakes' methods, not through
// service.db). ApplyReview does go through s.db and is not exercised
// here.
func newTestService(t *testing.T, now time.Time) (*service, *fakeCardStore, *fakePuzzleStore, *fakeUserStore, *fakeReviewStore) {
	t.Helper()
	cards := newFakeCardStore()
	puzzles := &fakePuzzleStore{puzzles: map[string]*domain.Puzzle{}}
	users := &fakeUserStore{users: map[domain.UserID]*domain.User{}}
	reviews := &fakeReviewStore{}
	clk := clock.NewFixed(now)
	srsService := srs.NewService(clk, srs.NewDefaultParams())

	return &service{
		cardStore:           cards,
		puzzleStore:         puzzles,
		userStore:           users,
		reviewStore:         reviews,
		srs:                 srsService,
		clock:               clk,
		ratingVariationUp:   0.1,
		ratingVariationDown: 0.1,
	}, cards, puzzles, users, reviews
}

func TestGetNextReviewNoCardsDue(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _, _, _ := newTestService(t, now)

	_, err := svc.GetNextReview(context.Background(), "user1")
	assert.ErrorIs(t, err, ErrNoPuzzlesAvailable)
}

func TestGetNextReviewReturnsEarliestDue(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, cards, puzzles, _, _ := newTestService(t, now)

	puzzles.puzzles["late"] = &domain.Puzzle{PuzzleID: "late", FEN: "fen", Moves: "e2e4", Rating: 500, RatingDeviation: 80}
	puzzles.puzzles["earliest"] = &domain.Puzzle{PuzzleID: "earliest", FEN: "fen", Moves: "e2e4", Rating: 500, RatingDeviation: 80}

	require.NoError(t, cards.Create(context.Background(), &domain.Card{PuzzleID: "late", Due: now.Add(-time.Minute), Ease: 2.5, Interval: time.Hour}, "user1"))
	require.NoError(t, cards.Create(context.Background(), &domain.Card{PuzzleID: "earliest", Due: now.Add(-time.Hour), Ease: 2.5, Interval: time.Hour}, "user1"))

	card, err := svc.GetNextReview(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "earliest", card.PuzzleID)
}

func TestGetNextReviewSkipsCardWithMissingPuzzle(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, cards, puzzles, _, _ := newTestService(t, now)

	puzzles.puzzles["has-puzzle"] = &domain.Puzzle{PuzzleID: "has-puzzle", FEN: "fen", Moves: "e2e4", Rating: 500, RatingDeviation: 80}

	require.NoError(t, cards.Create(context.Background(), &domain.Card{PuzzleID: "orphaned", Due: now.Add(-time.Hour), Ease: 2.5, Interval: time.Hour}, "user1"))
	require.NoError(t, cards.Create(context.Background(), &domain.Card{PuzzleID: "has-puzzle", Due: now.Add(-time.Minute), Ease: 2.5, Interval: time.Hour}, "user1"))

	card, err := svc.GetNextReview(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "has-puzzle", card.PuzzleID)
}

func TestGetNextReviewOffersReviewAheadMatureCard(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC)
	svc, cards, puzzles, _, _ := newTestService(t, now)

	puzzles.puzzles["mature"] = &domain.Puzzle{PuzzleID: "mature", FEN: "fen", Moves: "e2e4", Rating: 500, RatingDeviation: 80}

	// Not yet due "now", but due before the day-end rollover and mature
	// (interval at or beyond the last learning step), so it's eligible
	// for review-ahead.
	require.NoError(t, cards.Create(context.Background(), &domain.Card{
		PuzzleID: "mature", Due: now.Add(time.Hour), Ease: 2.5, Interval: 48 * time.Hour,
	}, "user1"))

	card, err := svc.GetNextReview(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "mature", card.PuzzleID)
}

func TestGetNextReviewDoesNotOfferInLearningCardAhead(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC)
	svc, cards, puzzles, _, _ := newTestService(t, now)

	puzzles.puzzles["learning"] = &domain.Puzzle{PuzzleID: "learning", FEN: "fen", Moves: "e2e4", Rating: 500, RatingDeviation: 80}

	// Due before day-end, but still in the learning ramp (short interval):
	// review-ahead must exclude it.
	require.NoError(t, cards.Create(context.Background(), &domain.Card{
		PuzzleID: "learning", Due: now.Add(time.Hour), Ease: 2.5, Interval: 10 * time.Minute, LearningStage: 0,
	}, "user1"))

	_, err := svc.GetNextReview(context.Background(), "user1")
	assert.ErrorIs(t, err, ErrNoPuzzlesAvailable)
}

func TestGetRandomPuzzleReturnsStickyPuzzle(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, _, puzzles, users, _ := newTestService(t, now)

	sticky := "sticky-puzzle"
	users.users["user1"] = &domain.User{ID: "user1", Rating: domain.NewDefaultUserRating(), NextPuzzle: &sticky}
	puzzles.puzzles[sticky] = &domain.Puzzle{PuzzleID: sticky, FEN: "fen", Moves: "e2e4", Rating: 500, RatingDeviation: 80}

	puzzle, err := svc.GetRandomPuzzle(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, sticky, puzzle.PuzzleID)
}

func TestGetRandomPuzzleSamplesAndSticks(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, _, puzzles, users, _ := newTestService(t, now)

	users.users["user1"] = &domain.User{ID: "user1", Rating: domain.NewDefaultUserRating()}
	puzzles.puzzles["p1"] = &domain.Puzzle{PuzzleID: "p1", FEN: "fen", Moves: "e2e4", Rating: 500, RatingDeviation: 80}

	puzzle, err := svc.GetRandomPuzzle(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "p1", puzzle.PuzzleID)

	user, err := users.GetByID(context.Background(), "user1")
	require.NoError(t, err)
	require.NotNil(t, user.NextPuzzle)
	assert.Equal(t, "p1", *user.NextPuzzle)
}

func TestGetRandomPuzzlePrefersUnseenAfterRetry(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, cards, puzzles, users, _ := newTestService(t, now)

	users.users["user1"] = &domain.User{ID: "user1", Rating: domain.NewDefaultUserRating()}
	puzzles.puzzles["p1"] = &domain.Puzzle{PuzzleID: "p1", FEN: "fen", Moves: "e2e4", Rating: 500, RatingDeviation: 80}
	puzzles.puzzles["p2"] = &domain.Puzzle{PuzzleID: "p2", FEN: "fen", Moves: "e2e4", Rating: 500, RatingDeviation: 80}
	require.NoError(t, cards.Create(context.Background(), &domain.Card{PuzzleID: "p1", Due: now, Ease: 2.5, Interval: time.Hour}, "user1"))

	puzzle, err := svc.GetRandomPuzzle(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "p2", puzzle.PuzzleID)
}

func TestGetRandomPuzzleFallsBackToSeenPuzzleAfterExhaustingAttempts(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, cards, puzzles, users, _ := newTestService(t, now)

	users.users["user1"] = &domain.User{ID: "user1", Rating: domain.NewDefaultUserRating()}
	puzzles.puzzles["p1"] = &domain.Puzzle{PuzzleID: "p1", FEN: "fen", Moves: "e2e4", Rating: 500, RatingDeviation: 80}
	require.NoError(t, cards.Create(context.Background(), &domain.Card{PuzzleID: "p1", Due: now, Ease: 2.5, Interval: time.Hour}, "user1"))

	puzzle, err := svc.GetRandomPuzzle(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "p1", puzzle.PuzzleID)
}

func TestGetRandomPuzzleClampsWindowToCorpusRange(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, _, puzzles, users, _ := newTestService(t, now)

	users.users["user1"] = &domain.User{ID: "user1", Rating: domain.UserRating{Rating: 2000, Deviation: 80, Volatility: 0.06}}
	puzzles.puzzles["p1"] = &domain.Puzzle{PuzzleID: "p1", FEN: "fen", Moves: "e2e4", Rating: 900, RatingDeviation: 80}

	puzzle, err := svc.GetRandomPuzzle(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "p1", puzzle.PuzzleID)
}

func TestSkipPuzzleWithNoStickyPuzzleErrors(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _, users, _ := newTestService(t, now)
	users.users["user1"] = &domain.User{ID: "user1", Rating: domain.NewDefaultUserRating()}

	err := svc.SkipPuzzle(context.Background(), "user1")
	assert.ErrorIs(t, err, ErrNoNextPuzzle)
}

func TestSkipPuzzleClearsStickyAndRecordsAudit(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _, users, reviews := newTestService(t, now)

	sticky := "p1"
	users.users["user1"] = &domain.User{ID: "user1", Rating: domain.NewDefaultUserRating(), NextPuzzle: &sticky}

	err := svc.SkipPuzzle(context.Background(), "user1")
	require.NoError(t, err)

	user, err := users.GetByID(context.Background(), "user1")
	require.NoError(t, err)
	assert.Nil(t, user.NextPuzzle)
	require.Len(t, reviews.skipped, 1)
	assert.Equal(t, "p1", reviews.skipped[0].PuzzleID)
}

func TestGetUserStatsNotFound(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _, _, _ := newTestService(t, now)

	_, err := svc.GetUserStats(context.Background(), "ghost")
	var serr *ServiceError
	assert.True(t, errors.As(err, &serr))
}

func TestResetUserRating(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _, users, _ := newTestService(t, now)
	users.users["user1"] = &domain.User{ID: "user1", Rating: domain.UserRating{Rating: 2000, Deviation: 50, Volatility: 0.05}}

	require.NoError(t, svc.ResetUserRating(context.Background(), "user1"))

	user, err := users.GetByID(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, domain.NewDefaultUserRating(), user.Rating)
}
