// Package srs implements the spaced-repetition scheduling algorithm: the
// pure functions that decide when a card is next due, and how its interval
// and learning stage evolve in response to a graded review. Nothing in this
// package touches persistence, HTTP, or the OS clock directly; callers
// supply "now" via internal/platform/clock.
package srs

import (
	"math"
	"time"
)

// ReviewOrder controls the order in which due cards are offered to the
// learner when more than one is due on a given day.
type ReviewOrder int

const (
	// ReviewOrderDueTime offers the card that has been due longest first.
	ReviewOrderDueTime ReviewOrder = iota
	// ReviewOrderPuzzleRating offers cards ordered by puzzle difficulty.
	ReviewOrderPuzzleRating
	// ReviewOrderRandom offers a uniformly random due card.
	ReviewOrderRandom
)

// Params bundles the tunable constants of the scheduling algorithm. A zero
// Params is not valid; use NewDefaultParams or Build.
type Params struct {
	// InitialIntervals are the fixed intervals walked through while a card
	// is in its "learning" stage, before it graduates to the exponential
	// ease-based schedule. Index i is the interval used after i consecutive
	// Good grades in the learning stage; an Easy grade graduates the card
	// straight away.
	InitialIntervals []time.Duration

	// MaxInterval caps how far into the future a card's next due date can
	// be pushed, regardless of ease or review count.
	MaxInterval time.Duration

	// MinEasyInterval is the smallest interval an Easy grade can produce,
	// even out of the learning stage on a card with a very short interval.
	MinEasyInterval time.Duration

	// DefaultEase is the ease factor assigned to a brand new card.
	DefaultEase float64

	// MinimumEase is the floor below which a card's ease may never drop,
	// regardless of how many Again/Hard grades it receives.
	MinimumEase float64

	// EasyBonus multiplies the computed interval when a card is graded
	// Easy, on top of the normal ease-based growth.
	EasyBonus float64

	// EaseDelta is added to a card's ease on Easy, subtracted on Hard, and
	// (capped at DefaultEase) added back on Good as ease recovers.
	EaseDelta float64

	// AgainEaseDelta is subtracted from a card's ease on Again, which
	// penalizes ease more heavily than a Hard grade does.
	AgainEaseDelta float64

	// DayEndHour is the local hour (0-23) at which the scheduling day
	// rolls over. A card due at 23:58 with DayEndHour 4 is still
	// considered due "today" until 04:00 the next calendar day.
	DayEndHour int

	// ReviewOrder controls the order due cards are offered in.
	ReviewOrder ReviewOrder
}

// Default tunable values, chosen to match the reference scheduler this
// package was modeled on.
const (
	defaultMaxInterval     = time.Duration(math.MaxInt64)
	defaultMinEasyInterval = 4 * 24 * time.Hour
	defaultEase            = 2.5
	defaultMinimumEase     = 1.3
	defaultEasyBonus       = 1.3
	defaultEaseDelta       = 0.15
	defaultAgainEaseDelta  = 0.2
	defaultDayEndHour      = 4
)

// NewDefaultParams returns the scheduler parameters used when no override
// is configured: a two-step learning ramp (10 minutes, then 1 day), an
// interval cap at the longest representable time.Duration (about 292
// years), a 4-day minimum Easy interval, and a day boundary at 04:00 local
// time.
func NewDefaultParams() Params {
	return Params{
		InitialIntervals: []time.Duration{10 * time.Minute, 24 * time.Hour},
		MaxInterval:      defaultMaxInterval,
		MinEasyInterval:  defaultMinEasyInterval,
		DefaultEase:      defaultEase,
		MinimumEase:      defaultMinimumEase,
		EasyBonus:        defaultEasyBonus,
		EaseDelta:        defaultEaseDelta,
		AgainEaseDelta:   defaultAgainEaseDelta,
		DayEndHour:       defaultDayEndHour,
		ReviewOrder:      ReviewOrderDueTime,
	}
}

// ParamsConfig is a builder for Params that starts from the defaults and
// lets callers override individual fields, mirroring the config layer's
// pattern of layering explicit overrides onto sane defaults.
type ParamsConfig struct {
	params Params
}

// NewParamsConfig returns a ParamsConfig seeded with the default Params.
func NewParamsConfig() *ParamsConfig {
	return &ParamsConfig{params: NewDefaultParams()}
}

// WithDayEndHour overrides the day-rollover hour.
func (c *ParamsConfig) WithDayEndHour(hour int) *ParamsConfig {
	c.params.DayEndHour = hour
	return c
}

// WithReviewOrder overrides the order due cards are offered in.
func (c *ParamsConfig) WithReviewOrder(order ReviewOrder) *ParamsConfig {
	c.params.ReviewOrder = order
	return c
}

// WithMaxInterval overrides the interval cap.
func (c *ParamsConfig) WithMaxInterval(d time.Duration) *ParamsConfig {
	c.params.MaxInterval = d
	return c
}

// Build returns the constructed Params.
func (c *ParamsConfig) Build() Params {
	return c.params
}
