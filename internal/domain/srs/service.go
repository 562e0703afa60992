package srs

import (
	"math/rand"
	"time"

	"github.com/catchouli/better-tactics/internal/domain"
	"github.com/catchouli/better-tactics/internal/platform/clock"
)

// Service wraps the pure scheduling functions with a Clock and a fixed
// Params, so callers never have to thread "now" or tunables through every
// call site by hand.
type Service interface {
	// NewCard returns a freshly initialized card for puzzleID, due
	// immediately.
	NewCard(puzzleID string) (*domain.Card, error)

	// Review applies grade to card and returns its new state. It does not
	// persist the result; callers are responsible for writing it back
	// through the store layer.
	Review(card *domain.Card, grade domain.ReviewOutcome) *domain.Card

	// IsDue reports whether card is due for review right now.
	IsDue(card *domain.Card) bool

	// Order sorts due cards per the configured ReviewOrder. Under
	// ReviewOrderPuzzleRating the cards are returned in input order (see
	// the package-level Order).
	Order(cards []*domain.Card) []*domain.Card

	// DayBucket returns the forecast day bucket an instant falls into.
	DayBucket(t time.Time) time.Time

	// DayEnd returns the next wall-clock instant whose time-of-day equals
	// the configured day-end hour, strictly greater than t.
	DayEnd(t time.Time) time.Time

	// Params returns the scheduler parameters this service was built with.
	Params() Params
}

type defaultService struct {
	clock  clock.Clock
	params Params
	rng    *rand.Rand
}

// NewService constructs a Service backed by clk and configured with
// params.
func NewService(clk clock.Clock, params Params) Service {
	return &defaultService{
		clock:  clk,
		params: params,
		rng:    rand.New(rand.NewSource(clk.Now().UnixNano())),
	}
}

func (s *defaultService) NewCard(puzzleID string) (*domain.Card, error) {
	return domain.NewCard(puzzleID, s.clock.Now(), s.params.DefaultEase)
}

func (s *defaultService) Review(card *domain.Card, grade domain.ReviewOutcome) *domain.Card {
	return Review(card, grade, s.clock.Now(), s.params)
}

func (s *defaultService) IsDue(card *domain.Card) bool {
	return isDue(card, s.clock.Now(), s.params)
}

func (s *defaultService) Order(cards []*domain.Card) []*domain.Card {
	return Order(cards, s.params.ReviewOrder, s.rng)
}

func (s *defaultService) DayBucket(t time.Time) time.Time {
	return DayBucket(t, s.params.DayEndHour)
}

func (s *defaultService) DayEnd(t time.Time) time.Time {
	return dayEndDatetime(t, s.params.DayEndHour)
}

func (s *defaultService) Params() Params {
	return s.params
}

var _ Service = (*defaultService)(nil)
