// Package rating implements the Glicko-2 rating update used to track the
// learner's tactical strength. The algorithm here follows Glickman's
// Glicko-2 paper exactly, including the illinois (regula falsi) root
// finder for the new volatility, rather than the Newton's-method variant
// some implementations use: the two converge to the same answer, but the
// illinois method is the one this package's reference outcome tables were
// generated against (see glicko2_test.go).
package rating

import "math"

// glicko2Scale is the constant Glickman's paper uses to convert between
// the public Glicko scale (rating ~1500, deviation ~350) and the internal
// Glicko-2 scale (mu ~0, phi ~1).
const glicko2Scale = 173.7178

// convergenceTolerance bounds how precise the illinois algorithm's root
// for the new volatility needs to be before it stops iterating.
const convergenceTolerance = 0.000001

// Rating is a Glicko-2 player rating expressed on the public Glicko scale.
type Rating struct {
	Rating     float64
	Deviation  float64
	Volatility float64
}

// Outcome is a single game result against an opponent, from the
// perspective of the player whose rating is being updated. Score is 1 for
// a win, 0.5 for a draw, 0 for a loss; for this trainer's purposes a
// review grade is mapped to a score by scoreForGrade (Again 0, Hard 0.5,
// Good 0.66, Easy 1), with the puzzle's own rating and deviation standing
// in for the "opponent".
type Outcome struct {
	OpponentRating    float64
	OpponentDeviation float64
	Score             float64
}

// toInternal converts a public-scale rating to the internal mu/phi scale.
func toInternal(r Rating) (mu, phi float64) {
	mu = (r.Rating - 1500) / glicko2Scale
	phi = r.Deviation / glicko2Scale
	return mu, phi
}

// fromInternal converts an internal mu/phi/sigma triple back to the
// public Glicko scale.
func fromInternal(mu, phi, sigma float64) Rating {
	return Rating{
		Rating:     mu*glicko2Scale + 1500,
		Deviation:  phi * glicko2Scale,
		Volatility: sigma,
	}
}

// g reduces the impact of a game based on the opponent's rating deviation:
// a highly uncertain opponent contributes less information.
func g(phi float64) float64 {
	return 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi))
}

// e is the expected score of a player with rating mu against an opponent
// with rating muJ and deviation phiJ.
func e(mu, muJ, phiJ float64) float64 {
	return 1 / (1 + math.Exp(-g(phiJ)*(mu-muJ)))
}

// Update computes a player's new Glicko-2 rating after a rating period
// containing the given outcomes. An empty outcomes slice is the
// "no games played" case: deviation increases to reflect growing
// uncertainty, but rating and volatility are unchanged, per Glickman's
// step 1 special case.
func Update(player Rating, outcomes []Outcome) Rating {
	mu, phi := toInternal(player)
	sigma := player.Volatility

	if len(outcomes) == 0 {
		phiStar := math.Sqrt(phi*phi + sigma*sigma)
		return fromInternal(mu, phiStar, sigma)
	}

	// Step 3: estimated variance of the rating based on game outcomes.
	v := variance(mu, outcomes)

	// Step 4: estimated improvement in rating, delta.
	delta := deltaOf(mu, outcomes, v)

	// Step 5: determine the new volatility via the illinois algorithm.
	newSigma := newVolatility(phi, sigma, v, delta)

	// Step 6: update the pre-rating-period deviation.
	phiStar := math.Sqrt(phi*phi + newSigma*newSigma)

	// Step 7: update the rating and deviation to the new values.
	newPhi := 1 / math.Sqrt(1/(phiStar*phiStar)+1/v)
	newMu := mu + newPhi*newPhi*gSum(mu, outcomes)

	return fromInternal(newMu, newPhi, newSigma)
}

// variance computes the estimated variance of the player's rating based
// solely on the game outcomes (Glickman step 3).
func variance(mu float64, outcomes []Outcome) float64 {
	sum := 0.0
	for _, o := range outcomes {
		_, phiJ := toInternal(Rating{Rating: o.OpponentRating, Deviation: o.OpponentDeviation})
		gPhi := g(phiJ)
		eVal := e(mu, (o.OpponentRating-1500)/glicko2Scale, phiJ)
		sum += gPhi * gPhi * eVal * (1 - eVal)
	}
	return 1 / sum
}

// gSum computes the sum term reused by both delta and the final rating
// update: sum(g(phiJ) * (score - E(mu, muJ, phiJ))).
func gSum(mu float64, outcomes []Outcome) float64 {
	sum := 0.0
	for _, o := range outcomes {
		_, phiJ := toInternal(Rating{Rating: o.OpponentRating, Deviation: o.OpponentDeviation})
		muJ := (o.OpponentRating - 1500) / glicko2Scale
		sum += g(phiJ) * (o.Score - e(mu, muJ, phiJ))
	}
	return sum
}

// deltaOf computes the estimated improvement in rating, delta (Glickman
// step 4).
func deltaOf(mu float64, outcomes []Outcome, v float64) float64 {
	return v * gSum(mu, outcomes)
}

// tau is the system constant that constrains the volatility over time.
// Smaller values mean ratings change more slowly in response to
// surprising results. 0.5 is the value Glickman's paper and reference
// implementations commonly use.
const tau = 0.5

// volatilityFunc is Glickman's f(x) (step 5a): the function whose root is
// the new volatility, expressed in terms of x = ln(sigma^2).
func volatilityFunc(phi, sigma, v, delta float64) func(float64) float64 {
	return func(x float64) float64 {
		ex := math.Exp(x)
		num := ex * (delta*delta - phi*phi - v - ex)
		den := 2 * (phi*phi + v + ex) * (phi*phi + v + ex)
		return num/den - (x-math.Log(sigma*sigma))/(tau*tau)
	}
}

// newVolatility finds the new volatility sigma' by locating the root of
// volatilityFunc using the illinois algorithm, a variant of regula falsi
// that avoids the slow one-sided convergence plain regula falsi can
// exhibit. This mirrors Glickman's step 5 exactly, rather than using
// Newton's method as some Glicko-2 implementations do.
func newVolatility(phi, sigma, v, delta float64) float64 {
	a := math.Log(sigma * sigma)
	f := volatilityFunc(phi, sigma, v, delta)

	var b float64
	if delta*delta > phi*phi+v {
		b = math.Log(delta*delta - phi*phi - v)
	} else {
		k := 1.0
		for f(a - k*tau) < 0 {
			k++
		}
		b = a - k*tau
	}

	fa := f(a)
	fb := f(b)

	for math.Abs(b-a) > convergenceTolerance {
		c := a + (a-b)*fa/(fb-fa)
		fc := f(c)

		if fc*fb <= 0 {
			a, fa = b, fb
		} else {
			fa = fa / 2
		}
		b, fb = c, fc
	}

	return math.Exp(a / 2)
}
