package srs

import (
	"testing"
	"time"

	"github.com/catchouli/better-tactics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInLearning(t *testing.T) {
	t.Parallel()
	p := NewDefaultParams()

	card := &domain.Card{LearningStage: 0}
	assert.True(t, inLearning(card, p))

	card = &domain.Card{LearningStage: len(p.InitialIntervals)}
	assert.False(t, inLearning(card, p))
}

func TestReviewAgainAlwaysResetsToLearning(t *testing.T) {
	t.Parallel()
	p := NewDefaultParams()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	cases := []*domain.Card{
		{PuzzleID: "p1", Interval: 24 * time.Hour, Ease: 2.5, LearningStage: 2, ReviewCount: 5},
		{PuzzleID: "p2", Interval: 10 * time.Minute, Ease: 2.5, LearningStage: 0, ReviewCount: 0},
	}

	for _, c := range cases {
		updated := Review(c, domain.ReviewOutcomeAgain, now, p)
		assert.Equal(t, 0, updated.LearningStage, "again always resets learning stage")
		assert.Equal(t, p.InitialIntervals[0], updated.Interval)
		assert.Equal(t, c.ReviewCount+1, updated.ReviewCount)
	}
}

func TestReviewEaseFloor(t *testing.T) {
	t.Parallel()
	p := NewDefaultParams()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	card := &domain.Card{PuzzleID: "p1", Interval: 24 * time.Hour, Ease: p.MinimumEase, LearningStage: len(p.InitialIntervals)}
	for i := 0; i < 10; i++ {
		card = Review(card, domain.ReviewOutcomeAgain, now, p)
	}
	assert.GreaterOrEqual(t, card.Ease, p.MinimumEase, "ease must never fall below the configured floor")
}

func TestReviewIntervalCap(t *testing.T) {
	t.Parallel()
	p := NewDefaultParams()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	card := &domain.Card{PuzzleID: "p1", Interval: p.MaxInterval, Ease: 3.0, LearningStage: len(p.InitialIntervals)}
	updated := Review(card, domain.ReviewOutcomeEasy, now, p)
	assert.LessOrEqual(t, updated.Interval, p.MaxInterval, "interval must never exceed the configured cap")
}

func TestReviewGoodIntervalMonotonicWithEase(t *testing.T) {
	t.Parallel()
	p := NewDefaultParams()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	lowEase := &domain.Card{PuzzleID: "p1", Interval: 24 * time.Hour, Ease: 1.5, LearningStage: len(p.InitialIntervals)}
	highEase := &domain.Card{PuzzleID: "p1", Interval: 24 * time.Hour, Ease: 2.8, LearningStage: len(p.InitialIntervals)}

	lowResult := Review(lowEase, domain.ReviewOutcomeGood, now, p)
	highResult := Review(highEase, domain.ReviewOutcomeGood, now, p)

	assert.Less(t, lowResult.Interval, highResult.Interval, "higher ease must grow the interval faster")
}

func TestReviewEasyGraduatesFromLearning(t *testing.T) {
	t.Parallel()
	p := NewDefaultParams()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	card := &domain.Card{PuzzleID: "p1", Interval: 10 * time.Minute, Ease: p.DefaultEase, LearningStage: 0}
	updated := Review(card, domain.ReviewOutcomeEasy, now, p)
	assert.GreaterOrEqual(t, updated.Interval, p.MinEasyInterval, "easy must meet the minimum easy interval")
	assert.Equal(t, len(p.InitialIntervals), updated.LearningStage, "easy jumps straight to mature, not one stage at a time")
}

func TestReviewHardRepeatsLearningStage(t *testing.T) {
	t.Parallel()
	p := NewDefaultParams()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	card := &domain.Card{PuzzleID: "p1", Interval: 10 * time.Minute, Ease: p.DefaultEase, LearningStage: 0}
	updated := Review(card, domain.ReviewOutcomeHard, now, p)
	assert.Equal(t, 0, updated.LearningStage, "hard repeats the current learning stage rather than advancing")
	assert.Equal(t, p.InitialIntervals[0], updated.Interval)
}

func TestReviewHardDoesNotGrowIntervalOutOfLearning(t *testing.T) {
	t.Parallel()
	p := NewDefaultParams()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	card := &domain.Card{PuzzleID: "p1", Interval: 24 * time.Hour, Ease: p.DefaultEase, LearningStage: len(p.InitialIntervals)}
	updated := Review(card, domain.ReviewOutcomeHard, now, p)
	assert.Equal(t, card.Interval, updated.Interval, "hard is floored/capped, never grown")
}

func TestReviewGoodRecoversEaseTowardDefault(t *testing.T) {
	t.Parallel()
	p := NewDefaultParams()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	card := &domain.Card{PuzzleID: "p1", Interval: 24 * time.Hour, Ease: 2.3, LearningStage: len(p.InitialIntervals)}
	updated := Review(card, domain.ReviewOutcomeGood, now, p)
	assert.InDelta(t, 2.45, updated.Ease, 0.0001, "good recovers ease by EaseDelta, capped at DefaultEase")

	atDefault := &domain.Card{PuzzleID: "p1", Interval: 24 * time.Hour, Ease: p.DefaultEase, LearningStage: len(p.InitialIntervals)}
	unchanged := Review(atDefault, domain.ReviewOutcomeGood, now, p)
	assert.Equal(t, p.DefaultEase, unchanged.Ease, "good never raises ease past DefaultEase")
}

func TestReviewEaseDeltasPerGrade(t *testing.T) {
	t.Parallel()
	p := NewDefaultParams()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	base := &domain.Card{PuzzleID: "p1", Interval: 24 * time.Hour, Ease: 2.5, LearningStage: len(p.InitialIntervals)}

	again := Review(base, domain.ReviewOutcomeAgain, now, p)
	assert.InDelta(t, 2.3, again.Ease, 0.0001, "again subtracts AgainEaseDelta (0.2)")

	hard := Review(base, domain.ReviewOutcomeHard, now, p)
	assert.InDelta(t, 2.35, hard.Ease, 0.0001, "hard subtracts EaseDelta (0.15)")

	easy := Review(base, domain.ReviewOutcomeEasy, now, p)
	assert.InDelta(t, 2.65, easy.Ease, 0.0001, "easy adds EaseDelta (0.15)")
}

func TestReviewHardSlowerThanGood(t *testing.T) {
	t.Parallel()
	p := NewDefaultParams()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	base := &domain.Card{PuzzleID: "p1", Interval: 24 * time.Hour, Ease: p.DefaultEase, LearningStage: len(p.InitialIntervals)}
	hard := Review(base, domain.ReviewOutcomeHard, now, p)
	good := Review(base, domain.ReviewOutcomeGood, now, p)

	assert.Less(t, hard.Interval, good.Interval, "hard must grow the interval slower than good")
}

func TestIsDue(t *testing.T) {
	t.Parallel()
	p := NewDefaultParams()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	dueNow := &domain.Card{Due: now}
	assert.True(t, isDue(dueNow, now, p))

	dueLater := &domain.Card{Due: now.Add(time.Hour)}
	assert.False(t, isDue(dueLater, now, p))

	duePast := &domain.Card{Due: now.Add(-time.Hour)}
	assert.True(t, isDue(duePast, now, p))
}

func TestDayBucketRollover(t *testing.T) {
	t.Parallel()
	dayEndHour := 4

	lateNight := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	earlyMorning := time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)

	assert.Equal(t, DayBucket(lateNight, dayEndHour), DayBucket(earlyMorning, dayEndHour),
		"an instant before the day-end hour belongs to the previous day's bucket")

	afterRollover := time.Date(2026, 3, 11, 5, 0, 0, 0, time.UTC)
	assert.NotEqual(t, DayBucket(lateNight, dayEndHour), DayBucket(afterRollover, dayEndHour))
}

func TestScenarioRepeatedAgainNeverGraduates(t *testing.T) {
	t.Parallel()
	p := NewDefaultParams()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	card, err := domain.NewCard("p1", now, p.DefaultEase)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		card = Review(card, domain.ReviewOutcomeAgain, now, p)
		assert.Equal(t, 0, card.LearningStage)
		assert.Equal(t, p.InitialIntervals[0], card.Interval)
	}
}

func TestOrderDueTime(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cards := []*domain.Card{
		{PuzzleID: "late", Due: now.Add(time.Hour)},
		{PuzzleID: "earliest", Due: now.Add(-time.Hour)},
		{PuzzleID: "middle", Due: now},
	}

	ordered := Order(cards, ReviewOrderDueTime, nil)
	require.Len(t, ordered, 3)
	assert.Equal(t, "earliest", ordered[0].PuzzleID)
	assert.Equal(t, "middle", ordered[1].PuzzleID)
	assert.Equal(t, "late", ordered[2].PuzzleID)
}
