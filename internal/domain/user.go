package domain

import (
	"errors"
	"time"
)

// Validation errors for User and UserRating.
var (
	ErrEmptyUserID = errors.New("user ID cannot be empty")
)

// Default UserRating values for a brand new user, per spec.md §3.
const (
	DefaultRating           = 500
	DefaultRatingDeviation  = 250
	DefaultRatingVolatility = 0.06
)

// UserRating is a Glicko-2 player triple. Rating and Deviation are reported
// on the Glicko scale (not the internal Glicko-2 mu/phi scale); Volatility
// is dimensionless.
type UserRating struct {
	Rating     int     `json:"rating"`
	Deviation  int     `json:"deviation"`
	Volatility float64 `json:"volatility"`
}

// NewDefaultUserRating returns the default rating triple assigned to a user
// who has never had a rating update.
func NewDefaultUserRating() UserRating {
	return UserRating{
		Rating:     DefaultRating,
		Deviation:  DefaultRatingDeviation,
		Volatility: DefaultRatingVolatility,
	}
}

// UserID is a user identifier. It is a named string type (rather than a
// bare string) so that user identity can't be silently confused with a
// puzzle ID at call sites.
type UserID string

// User is the single logical learner identity the core operates on. The
// core assumes a single user per deployment; multi-tenant accounts are a
// Non-goal (spec.md §1).
type User struct {
	ID     UserID     `json:"id"`
	Rating UserRating `json:"rating"`
	// NextPuzzle is the "sticky" pointer used by the review-selection
	// protocol (spec.md §4.4): a freshly sampled puzzle reappears on
	// subsequent GetRandomPuzzle calls until it is reviewed or explicitly
	// skipped.
	NextPuzzle *string `json:"next_puzzle,omitempty"`
}

// Validate checks that the User has the fields required for persistence.
func (u *User) Validate() error {
	if u.ID == "" {
		return ErrEmptyUserID
	}
	return nil
}

// AppData is the singleton keyed by an environment string (e.g. "production",
// "dev") that tracks whether the puzzle corpus has been imported and when
// the database was last backed up.
type AppData struct {
	Environment        string     `json:"environment"`
	LichessDBImported  bool       `json:"lichess_db_imported"`
	LastBackupDate     *time.Time `json:"last_backup_date,omitempty"`
}
