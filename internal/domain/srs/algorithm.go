package srs

import (
	"math/rand"
	"time"

	"github.com/catchouli/better-tactics/internal/domain"
)

// dayEndDatetime returns the instant at which the scheduling day containing
// t rolls over, given the configured day-end hour. If t's time of day is
// before the day-end hour, the rollover is later that same calendar day;
// otherwise it is the day-end hour of the next calendar day. This lets a
// card due at 23:58 with a day-end hour of 4 still count as due "today"
// until 04:00 the following morning.
func dayEndDatetime(t time.Time, dayEndHour int) time.Time {
	candidate := time.Date(t.Year(), t.Month(), t.Day(), dayEndHour, 0, 0, 0, t.Location())
	if !t.Before(candidate) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// inLearning reports whether a card is still walking the fixed learning
// ramp, i.e. its learning stage has not yet reached the number of
// InitialIntervals configured.
func inLearning(card *domain.Card, p Params) bool {
	return card.LearningStage < len(p.InitialIntervals)
}

// isDue reports whether card is due for review at instant now. A card
// becomes due the instant now reaches its Due timestamp; the day-end
// boundary does not enter into it (it is used for forecast bucketing, see
// DayBucket, and for the review-ahead cutoff, see Service.DayEnd).
func isDue(card *domain.Card, now time.Time, p Params) bool {
	return !now.Before(card.Due)
}

// DayBucket returns the calendar day (at midnight, in t's location) that
// an instant belongs to for forecasting purposes, accounting for the
// configured day-end rollover hour. An instant before the day-end hour
// belongs to the previous calendar day's bucket.
func DayBucket(t time.Time, dayEndHour int) time.Time {
	bucketDay := t
	if t.Hour() < dayEndHour {
		bucketDay = t.AddDate(0, 0, -1)
	}
	return time.Date(bucketDay.Year(), bucketDay.Month(), bucketDay.Day(), 0, 0, 0, 0, t.Location())
}

// clampInterval caps d at p.MaxInterval and floors it at one minute.
func clampInterval(d time.Duration, p Params) time.Duration {
	if d > p.MaxInterval {
		return p.MaxInterval
	}
	if d < time.Minute {
		return time.Minute
	}
	return d
}

// nextInterval computes the new interval for a card given the grade it
// just received, without mutating the card. The learning-stage ramp uses
// the fixed InitialIntervals; once a card has graduated, intervals grow
// multiplicatively by the card's ease (Good), stay unchanged apart from
// flooring/capping (Hard), or collapse back into learning (Again). Easy
// always graduates immediately and applies EasyBonus on top of the
// ease-based growth, subject to MinEasyInterval.
func nextInterval(card *domain.Card, grade domain.ReviewOutcome, p Params) time.Duration {
	if inLearning(card, p) {
		switch grade {
		case domain.ReviewOutcomeAgain:
			return p.InitialIntervals[0]
		case domain.ReviewOutcomeHard:
			// Hard repeats the current learning step rather than advancing.
			return p.InitialIntervals[card.LearningStage]
		case domain.ReviewOutcomeEasy:
			return clampInterval(maxDuration(p.MinEasyInterval, scaleInterval(card.Interval, card.Ease*p.EasyBonus, p)), p)
		default: // Good: advance to the next learning step, or graduate
			stage := card.LearningStage + 1
			if stage < len(p.InitialIntervals) {
				return p.InitialIntervals[stage]
			}
			return clampInterval(scaleInterval(card.Interval, card.Ease, p), p)
		}
	}

	switch grade {
	case domain.ReviewOutcomeAgain:
		return p.InitialIntervals[0]
	case domain.ReviewOutcomeHard:
		// Hard does not grow the interval; it is merely floored/capped.
		return clampInterval(card.Interval, p)
	case domain.ReviewOutcomeGood:
		return clampInterval(scaleInterval(card.Interval, card.Ease, p), p)
	case domain.ReviewOutcomeEasy:
		return clampInterval(maxDuration(p.MinEasyInterval, scaleInterval(card.Interval, card.Ease*p.EasyBonus, p)), p)
	default:
		return card.Interval
	}
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

// scaleInterval multiplies d by factor, saturating at p.MaxInterval so the
// product cannot overflow time.Duration.
func scaleInterval(d time.Duration, factor float64, p Params) time.Duration {
	f := float64(d) * factor
	if f >= float64(p.MaxInterval) {
		return p.MaxInterval
	}
	return time.Duration(f)
}

// nextEase computes a card's new ease factor given the grade. Again lowers
// ease by AgainEaseDelta; Hard lowers it by EaseDelta; Easy raises it by
// EaseDelta; Good only recovers ease that has previously been lowered,
// raising it by EaseDelta but never past DefaultEase, and otherwise leaves
// it unchanged. Ease never drops below MinimumEase.
func nextEase(card *domain.Card, grade domain.ReviewOutcome, p Params) float64 {
	ease := card.Ease
	switch grade {
	case domain.ReviewOutcomeAgain:
		ease -= p.AgainEaseDelta
	case domain.ReviewOutcomeHard:
		ease -= p.EaseDelta
	case domain.ReviewOutcomeEasy:
		ease += p.EaseDelta
	case domain.ReviewOutcomeGood:
		if ease < p.DefaultEase {
			ease += p.EaseDelta
			if ease > p.DefaultEase {
				ease = p.DefaultEase
			}
		}
	}
	if ease < p.MinimumEase {
		ease = p.MinimumEase
	}
	return ease
}

// nextLearningStage computes a card's new learning stage given the grade.
// Again resets a card all the way back to the start of the learning ramp;
// Hard repeats the current stage; Good advances one step at a time,
// saturating once graduated; Easy jumps straight to Mature regardless of
// the card's current stage.
func nextLearningStage(card *domain.Card, grade domain.ReviewOutcome, p Params) int {
	switch grade {
	case domain.ReviewOutcomeAgain:
		return 0
	case domain.ReviewOutcomeEasy:
		return len(p.InitialIntervals)
	case domain.ReviewOutcomeHard:
		return card.LearningStage
	default: // Good
		if card.LearningStage >= len(p.InitialIntervals) {
			return card.LearningStage
		}
		return card.LearningStage + 1
	}
}

// Review atomically applies a graded review to card, returning the
// card's new state. now is the instant the review was submitted; the
// card's new Due date is now plus the computed interval. Review does not
// mutate card in place; callers persist the returned value.
func Review(card *domain.Card, grade domain.ReviewOutcome, now time.Time, p Params) *domain.Card {
	interval := nextInterval(card, grade, p)
	return &domain.Card{
		PuzzleID:      card.PuzzleID,
		Due:           now.Add(interval),
		Interval:      interval,
		ReviewCount:   card.ReviewCount + 1,
		Ease:          nextEase(card, grade, p),
		LearningStage: nextLearningStage(card, grade, p),
	}
}

// IsDue reports whether card is due for review at instant now.
func IsDue(card *domain.Card, now time.Time, p Params) bool {
	return isDue(card, now, p)
}

// Order sorts due cards according to the configured ReviewOrder, returning
// a new slice. ReviewOrderRandom consumes entropy from rng; callers that
// need deterministic tests should pass a seeded rand.Rand. For
// ReviewOrderPuzzleRating the copy keeps the input order.
func Order(cards []*domain.Card, order ReviewOrder, rng *rand.Rand) []*domain.Card {
	out := make([]*domain.Card, len(cards))
	copy(out, cards)

	switch order {
	case ReviewOrderDueTime:
		insertionSortBy(out, func(a, b *domain.Card) bool { return a.Due.Before(b.Due) })
	case ReviewOrderPuzzleRating:
		// Puzzle rating ordering requires joining against the puzzle
		// corpus, which this package cannot see; callers that have the
		// ratings sort by them themselves.
	case ReviewOrderRandom:
		if rng == nil {
			rng = rand.New(rand.NewSource(1))
		}
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return out
}

// insertionSortBy sorts cards in place using less, stable and allocation
// free for the small slices the scheduler typically deals with.
func insertionSortBy(cards []*domain.Card, less func(a, b *domain.Card) bool) {
	for i := 1; i < len(cards); i++ {
		for j := i; j > 0 && less(cards[j], cards[j-1]); j-- {
			cards[j], cards[j-1] = cards[j-1], cards[j]
		}
	}
}
