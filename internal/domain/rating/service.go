package rating

import "github.com/catchouli/better-tactics/internal/domain"

// FromUserRating converts a domain.UserRating to the package's internal
// Rating representation.
func FromUserRating(r domain.UserRating) Rating {
	return Rating{Rating: float64(r.Rating), Deviation: float64(r.Deviation), Volatility: r.Volatility}
}

// ToUserRating converts a Rating back to the rounded, integer-scale
// domain.UserRating the rest of the application stores.
func ToUserRating(r Rating) domain.UserRating {
	return domain.UserRating{
		Rating:     int(r.Rating + 0.5),
		Deviation:  int(r.Deviation + 0.5),
		Volatility: r.Volatility,
	}
}

// scoreForGrade maps a review grade to the Glicko-2 score it contributes,
// per the four-way calibration: a clean Again is a full loss, a Hard is a
// draw, a Good is a win scored below par so it alone won't swing the
// rating much, and an Easy is a full win.
func scoreForGrade(grade domain.ReviewOutcome) float64 {
	switch grade {
	case domain.ReviewOutcomeAgain:
		return 0.0
	case domain.ReviewOutcomeHard:
		return 0.5
	case domain.ReviewOutcomeGood:
		return 0.66
	case domain.ReviewOutcomeEasy:
		return 1.0
	default:
		return 0.0
	}
}

// ApplyReview computes a user's new rating after a single graded puzzle
// attempt, scoring the outcome per scoreForGrade rather than a binary
// solved/failed split.
//
// The "Good never lowers rating" rule lives here rather than in Update: it
// is a product decision about how a single grade maps to a score, not a
// property of the Glicko-2 math itself. It is restricted to the Good grade
// specifically: when grade is Good and the computed update would lower the
// player's rating, the previous rating is kept and only the deviation and
// volatility evolve, so a correct-but-unremarkable solve never feels
// punishing. Easy, Hard, and Again all let the rating move freely in
// either direction.
func ApplyReview(current domain.UserRating, puzzleRating, puzzleDeviation int, grade domain.ReviewOutcome) domain.UserRating {
	before := FromUserRating(current)
	updated := Update(before, []Outcome{{
		OpponentRating:    float64(puzzleRating),
		OpponentDeviation: float64(puzzleDeviation),
		Score:             scoreForGrade(grade),
	}})

	result := ToUserRating(updated)
	if grade == domain.ReviewOutcomeGood && result.Rating < current.Rating {
		result.Rating = current.Rating
	}
	return result
}
