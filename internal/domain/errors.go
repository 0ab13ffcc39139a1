package domain

import "errors"

// Common domain errors returned by the rating engine and result handling.
var (
	// ErrInvalidScore indicates a rating update received a score outside
	// the {0, 0.5, 1} contract. This is a caller bug, not bad input data.
	ErrInvalidScore = errors.New("score must be 0, 0.5, or 1")

	// ErrSelfComparison indicates both sides of an update named the same
	// participant.
	ErrSelfComparison = errors.New("participant cannot be compared against itself")

	// ErrUnknownWinner indicates a judge decision carried a winner label
	// outside {A, B, Tie}.
	ErrUnknownWinner = errors.New("unknown winner label")
)
