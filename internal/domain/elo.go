package domain

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Elo rating defaults. The values match the classic chess parameterization
// and the original evaluation pipeline this engine replaces.
const (
	// DefaultInitialRating is assigned to a participant on first reference.
	DefaultInitialRating = 1500.0

	// DefaultKFactor bounds the maximum rating change per update.
	DefaultKFactor = 32.0
)

// RatingUpdate is an immutable snapshot appended to history on every
// Update call. It exists for audit and replay; the engine never reads
// it back.
type RatingUpdate struct {
	// ModelA and ModelB are the participants in original (unswapped) order.
	ModelA string `json:"model_a"`
	ModelB string `json:"model_b"`

	// ScoreA is A's realized result: 1.0 win, 0.5 tie, 0.0 loss.
	ScoreA float64 `json:"score_a"`

	// ExpectedA is A's expected score given the ratings before the update.
	ExpectedA float64 `json:"expected_a"`

	// RatingA and RatingB are the ratings after applying the update.
	RatingA float64 `json:"rating_a"`
	RatingB float64 `json:"rating_b"`
}

// Standing is one row of the final leaderboard.
type Standing struct {
	Rank   int     `json:"rank"`
	Model  string  `json:"model"`
	Rating float64 `json:"rating"`
}

// EloConfig parameterizes an EloSystem. Zero values select the defaults.
type EloConfig struct {
	// KFactor is the fixed K applied uniformly to every update.
	KFactor float64 `yaml:"k_factor" validate:"omitempty,gt=0"`

	// InitialRating is the rating assigned on first reference of a name.
	InitialRating float64 `yaml:"initial_rating" validate:"omitempty,gt=0"`
}

// EloSystem maintains per-participant ratings and an append-only update
// history for one evaluation run. Updates are plain in-memory arithmetic;
// the only failure mode is an out-of-contract score value.
//
// The mutex makes each Update atomic (history append and rating mutation
// happen under one critical section), though the scheduler already
// serializes updates by construction.
type EloSystem struct {
	mu      sync.Mutex
	k       float64
	initial float64
	ratings map[string]float64
	history []RatingUpdate
}

// NewEloSystem creates a rating engine with the given configuration.
// Zero-valued fields fall back to DefaultKFactor and DefaultInitialRating.
func NewEloSystem(config EloConfig) *EloSystem {
	k := config.KFactor
	if k <= 0 {
		k = DefaultKFactor
	}
	initial := config.InitialRating
	if initial <= 0 {
		initial = DefaultInitialRating
	}
	return &EloSystem{
		k:       k,
		initial: initial,
		ratings: make(map[string]float64),
	}
}

// ExpectedScore returns A's expected result for the standard logistic
// pairing of two ratings: 1 / (1 + 10^((ratingB-ratingA)/400)).
func ExpectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/400.0))
}

// validScore reports whether s is one of the three legal match outcomes.
func validScore(s float64) bool { return s == 0.0 || s == 0.5 || s == 1.0 }

// Update applies one pairwise outcome. scoreA is A's realized result and
// must be exactly 0, 0.5, or 1; anything else is a caller contract
// violation and returns ErrInvalidScore without touching state.
// Both participants are initialized to the initial rating on first mention.
// Returns the new ratings for A and B.
func (e *EloSystem) Update(nameA, nameB string, scoreA float64) (float64, float64, error) {
	if !validScore(scoreA) {
		return 0, 0, fmt.Errorf("%w: got %v", ErrInvalidScore, scoreA)
	}
	if nameA == nameB {
		return 0, 0, fmt.Errorf("%w: %q", ErrSelfComparison, nameA)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ratingA := e.rating(nameA)
	ratingB := e.rating(nameB)

	expectedA := ExpectedScore(ratingA, ratingB)
	expectedB := 1.0 - expectedA
	scoreB := 1.0 - scoreA

	newA := ratingA + e.k*(scoreA-expectedA)
	newB := ratingB + e.k*(scoreB-expectedB)

	e.ratings[nameA] = newA
	e.ratings[nameB] = newB
	e.history = append(e.history, RatingUpdate{
		ModelA:    nameA,
		ModelB:    nameB,
		ScoreA:    scoreA,
		ExpectedA: expectedA,
		RatingA:   newA,
		RatingB:   newB,
	})

	return newA, newB, nil
}

// rating returns the current rating for name, initializing it on first
// reference. Callers must hold e.mu.
func (e *EloSystem) rating(name string) float64 {
	r, ok := e.ratings[name]
	if !ok {
		r = e.initial
		e.ratings[name] = r
	}
	return r
}

// Rating returns the current rating for name and whether it has been seen.
func (e *EloSystem) Rating(name string) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.ratings[name]
	return r, ok
}

// History returns a copy of all updates in chronological application order.
func (e *EloSystem) History() []RatingUpdate {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]RatingUpdate, len(e.history))
	copy(out, e.history)
	return out
}

// Standings returns the leaderboard sorted by descending rating.
// Ties break by ascending model name so repeated runs over identical
// judge outcomes produce identical output.
func (e *EloSystem) Standings() []Standing {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Standing, 0, len(e.ratings))
	for name, rating := range e.ratings {
		out = append(out, Standing{Model: name, Rating: rating})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Model < out[j].Model
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
