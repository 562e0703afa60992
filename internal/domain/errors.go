// Package domain defines the core business entities, value objects, and
// validation errors for the tactics trainer. It has no knowledge of HTTP,
// SQL, or any other delivery/storage mechanism.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an identifier is empty or malformed.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidReviewOutcome is returned when a review grade is not one of
	// the four recognized difficulties.
	ErrInvalidReviewOutcome = errors.New("invalid review outcome")

	// ErrInvalidRating is returned when a rating value is out of range.
	ErrInvalidRating = errors.New("invalid rating")
)
