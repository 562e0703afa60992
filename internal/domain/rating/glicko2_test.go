package rating

import (
	"math"
	"testing"

	"github.com/catchouli/better-tactics/internal/domain"
	"github.com/stretchr/testify/assert"
)

// TestUpdateReferenceExample reproduces the worked example from Glickman's
// Glicko-2 paper: a player rated 1500/200/0.06 plays three games against
// opponents of varying strength and results, and should end up at
// approximately 1464.06/151.52/0.05999.
func TestUpdateReferenceExample(t *testing.T) {
	t.Parallel()

	player := Rating{Rating: 1500, Deviation: 200, Volatility: 0.06}
	outcomes := []Outcome{
		{OpponentRating: 1400, OpponentDeviation: 30, Score: 1},
		{OpponentRating: 1550, OpponentDeviation: 100, Score: 0},
		{OpponentRating: 1700, OpponentDeviation: 300, Score: 0},
	}

	result := Update(player, outcomes)

	assert.InDelta(t, 1464.06, result.Rating, 0.5)
	assert.InDelta(t, 151.52, result.Deviation, 0.5)
	assert.InDelta(t, 0.05999, result.Volatility, 0.0001)
}

func TestUpdateNoGamesIncreasesDeviationOnly(t *testing.T) {
	t.Parallel()

	player := Rating{Rating: 1500, Deviation: 200, Volatility: 0.06}
	result := Update(player, nil)

	assert.Equal(t, player.Rating, result.Rating, "rating must not change with no games played")
	assert.Equal(t, player.Volatility, result.Volatility, "volatility must not change with no games played")
	assert.Greater(t, result.Deviation, player.Deviation, "deviation must grow to reflect increased uncertainty")
}

func TestUpdateWinRaisesRating(t *testing.T) {
	t.Parallel()

	player := Rating{Rating: 1500, Deviation: 200, Volatility: 0.06}
	result := Update(player, []Outcome{{OpponentRating: 1500, OpponentDeviation: 50, Score: 1}})

	assert.Greater(t, result.Rating, player.Rating)
}

func TestUpdateLossLowersRating(t *testing.T) {
	t.Parallel()

	player := Rating{Rating: 1500, Deviation: 200, Volatility: 0.06}
	result := Update(player, []Outcome{{OpponentRating: 1500, OpponentDeviation: 50, Score: 0}})

	assert.Less(t, result.Rating, player.Rating)
}

func TestApplyReviewGoodNeverLowersRating(t *testing.T) {
	t.Parallel()

	// A player rated far above the puzzle's rating who nonetheless grades
	// Good would, under the raw Glicko-2 update, see almost no movement or
	// even a tiny drop due to deviation effects; the guard must ensure the
	// rating never decreases on a Good grade.
	current := domain.UserRating{Rating: 1900, Deviation: 60, Volatility: 0.06}
	result := ApplyReview(current, 1200, 80, domain.ReviewOutcomeGood)
	assert.GreaterOrEqual(t, result.Rating, current.Rating)
}

func TestApplyReviewEasyScoresAsFullWin(t *testing.T) {
	t.Parallel()

	// The "never lowers" guard is specific to Good; Easy scores a full
	// win (1.0), same as the raw Glicko-2 Update with Score 1.
	current := domain.UserRating{Rating: 1500, Deviation: 80, Volatility: 0.06}
	result := ApplyReview(current, 1500, 80, domain.ReviewOutcomeEasy)
	assert.Greater(t, result.Rating, current.Rating)
}

func TestApplyReviewFailureCanLowerRating(t *testing.T) {
	t.Parallel()

	current := domain.UserRating{Rating: 1500, Deviation: 80, Volatility: 0.06}
	result := ApplyReview(current, 1500, 80, domain.ReviewOutcomeAgain)
	assert.Less(t, result.Rating, current.Rating)
}

func TestApplyReviewScenarioCGoodAtPar(t *testing.T) {
	t.Parallel()

	// Scenario C: a 1500/200/0.06 player facing a 1500/50 puzzle, graded
	// Good, should land in [1502, 1510] — Good is calibrated to give
	// roughly 5-6 rating points at par, not a full-win jump.
	current := domain.UserRating{Rating: 1500, Deviation: 200, Volatility: 0.06}
	result := ApplyReview(current, 1500, 50, domain.ReviewOutcomeGood)
	assert.GreaterOrEqual(t, result.Rating, 1502)
	assert.LessOrEqual(t, result.Rating, 1510)
}

func TestApplyReviewHardScoresAsDraw(t *testing.T) {
	t.Parallel()

	// Hard is scored 0.5 (a draw), distinct from Again's full loss: at
	// par it should barely move the rating in either direction.
	current := domain.UserRating{Rating: 1500, Deviation: 80, Volatility: 0.06}
	result := ApplyReview(current, 1500, 80, domain.ReviewOutcomeHard)
	assert.InDelta(t, current.Rating, result.Rating, 15)
}

func TestToInternalRoundTrip(t *testing.T) {
	t.Parallel()

	r := Rating{Rating: 1623, Deviation: 88, Volatility: 0.059}
	mu, phi := toInternal(r)
	back := fromInternal(mu, phi, r.Volatility)

	assert.True(t, math.Abs(back.Rating-r.Rating) < 0.001)
	assert.True(t, math.Abs(back.Deviation-r.Deviation) < 0.001)
}
