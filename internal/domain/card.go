package domain

import (
	"errors"
	"time"
)

// Validation errors for Card.
var (
	ErrEmptyCardPuzzleID    = errors.New("card puzzle ID cannot be empty")
	ErrCardIntervalNotPositive = errors.New("card interval must be greater than zero")
	ErrCardEaseBelowMinimum = errors.New("card ease must be at least the configured minimum")
	ErrCardLearningStageOutOfRange = errors.New("card learning stage out of range")
)

// Card is the scheduling record for one (user, puzzle) pair. It is created
// on first review of a puzzle by a user and mutated on every subsequent
// review; it is never deleted.
type Card struct {
	PuzzleID      string        `json:"puzzle_id"`
	Due           time.Time     `json:"due"`
	Interval      time.Duration `json:"interval"`
	ReviewCount   int           `json:"review_count"`
	Ease          float64       `json:"ease"`
	LearningStage int           `json:"learning_stage"`
}

// NewCard creates a fresh scheduling record for a puzzle that has never been
// reviewed by the user. The card is due immediately, at interval zero-stage
// learning, with the configured default ease.
func NewCard(puzzleID string, now time.Time, defaultEase float64) (*Card, error) {
	card := &Card{
		PuzzleID:      puzzleID,
		Due:           now,
		Interval:      time.Minute, // placeholder, replaced by the first review
		ReviewCount:   0,
		Ease:          defaultEase,
		LearningStage: 0,
	}
	if err := card.Validate(defaultEase); err != nil {
		return nil, err
	}
	return card, nil
}

// Validate checks the card invariants from spec.md §3: ease is at least
// minimumEase, interval is positive, and learning stage is non-negative.
// The upper bound of the learning stage depends on the scheduler's
// InitialIntervals and is not checked here.
func (c *Card) Validate(minimumEase float64) error {
	if c.PuzzleID == "" {
		return ErrEmptyCardPuzzleID
	}
	if c.Interval <= 0 {
		return ErrCardIntervalNotPositive
	}
	if c.Ease < minimumEase {
		return ErrCardEaseBelowMinimum
	}
	if c.LearningStage < 0 {
		return ErrCardLearningStageOutOfRange
	}
	return nil
}
