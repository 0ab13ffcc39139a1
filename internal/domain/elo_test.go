package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedScore(t *testing.T) {
	tests := []struct {
		name     string
		ratingA  float64
		ratingB  float64
		expected float64
	}{
		{name: "equal ratings", ratingA: 1500, ratingB: 1500, expected: 0.5},
		{name: "400 point advantage", ratingA: 1900, ratingB: 1500, expected: 10.0 / 11.0},
		{name: "400 point deficit", ratingA: 1500, ratingB: 1900, expected: 1.0 / 11.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ExpectedScore(tt.ratingA, tt.ratingB), 1e-9)
		})
	}
}

func TestEloSystem_Update_InitializesOnFirstMention(t *testing.T) {
	elo := NewEloSystem(EloConfig{})

	_, ok := elo.Rating("m1")
	assert.False(t, ok, "unseen participant should have no rating")

	newA, newB, err := elo.Update("m1", "m2", 0.5)
	require.NoError(t, err)

	// A draw between two fresh participants changes nothing.
	assert.InDelta(t, DefaultInitialRating, newA, 1e-9)
	assert.InDelta(t, DefaultInitialRating, newB, 1e-9)
}

func TestEloSystem_Update_ZeroSum(t *testing.T) {
	elo := NewEloSystem(EloConfig{})

	scores := []float64{1.0, 0.0, 0.5, 1.0, 1.0, 0.0}
	for _, s := range scores {
		_, _, err := elo.Update("m1", "m2", s)
		require.NoError(t, err)
	}

	ra, _ := elo.Rating("m1")
	rb, _ := elo.Rating("m2")
	assert.InDelta(t, 2*DefaultInitialRating, ra+rb, 1e-9,
		"total rating mass must be conserved across updates")
}

func TestEloSystem_Update_Direction(t *testing.T) {
	tests := []struct {
		name   string
		scoreA float64
		aGains bool
	}{
		{name: "win moves A up", scoreA: 1.0, aGains: true},
		{name: "loss moves A down", scoreA: 0.0, aGains: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elo := NewEloSystem(EloConfig{})
			newA, newB, err := elo.Update("m1", "m2", tt.scoreA)
			require.NoError(t, err)

			if tt.aGains {
				assert.Greater(t, newA, DefaultInitialRating)
				assert.Less(t, newB, DefaultInitialRating)
			} else {
				assert.Less(t, newA, DefaultInitialRating)
				assert.Greater(t, newB, DefaultInitialRating)
			}
		})
	}
}

func TestEloSystem_Update_RepeatedWinsDiminish(t *testing.T) {
	elo := NewEloSystem(EloConfig{})

	var prevGain float64
	prev := DefaultInitialRating
	for i := 0; i < 10; i++ {
		newA, _, err := elo.Update("m1", "m2", 1.0)
		require.NoError(t, err)

		gain := newA - prev
		assert.Positive(t, gain, "a win must always gain rating")
		if i > 0 {
			assert.Less(t, gain, prevGain,
				"gains should shrink as the rating gap widens")
		}
		prevGain = gain
		prev = newA
	}
}

func TestEloSystem_Update_FirstWinMovesExactlyHalfK(t *testing.T) {
	elo := NewEloSystem(EloConfig{})

	newA, newB, err := elo.Update("m1", "m2", 1.0)
	require.NoError(t, err)

	// Equal ratings give expected 0.5, so the delta is K * 0.5 = 16.
	assert.InDelta(t, 1516.0, newA, 1e-9)
	assert.InDelta(t, 1484.0, newB, 1e-9)
}

func TestEloSystem_Update_RejectsInvalidScore(t *testing.T) {
	elo := NewEloSystem(EloConfig{})

	for _, s := range []float64{-1.0, 0.3, 0.99, 2.0} {
		_, _, err := elo.Update("m1", "m2", s)
		assert.ErrorIs(t, err, ErrInvalidScore, "score %v must be rejected", s)
	}

	_, ok := elo.Rating("m1")
	assert.False(t, ok, "rejected updates must not initialize participants")
	assert.Empty(t, elo.History(), "rejected updates must not reach history")
}

func TestEloSystem_Update_RejectsSelfComparison(t *testing.T) {
	elo := NewEloSystem(EloConfig{})

	_, _, err := elo.Update("m1", "m1", 1.0)
	assert.ErrorIs(t, err, ErrSelfComparison)
}

func TestEloSystem_History(t *testing.T) {
	elo := NewEloSystem(EloConfig{})

	_, _, err := elo.Update("m1", "m2", 1.0)
	require.NoError(t, err)
	_, _, err = elo.Update("m2", "m3", 0.5)
	require.NoError(t, err)

	history := elo.History()
	require.Len(t, history, 2)

	assert.Equal(t, "m1", history[0].ModelA)
	assert.Equal(t, "m2", history[0].ModelB)
	assert.Equal(t, 1.0, history[0].ScoreA)
	assert.InDelta(t, 0.5, history[0].ExpectedA, 1e-9)
	assert.InDelta(t, 1516.0, history[0].RatingA, 1e-9)

	assert.Equal(t, "m2", history[1].ModelA)
	assert.Equal(t, "m3", history[1].ModelB)

	// The returned slice is a copy.
	history[0].ModelA = "mutated"
	assert.Equal(t, "m1", elo.History()[0].ModelA)
}

func TestEloSystem_Standings(t *testing.T) {
	elo := NewEloSystem(EloConfig{})

	_, _, err := elo.Update("bravo", "alpha", 1.0)
	require.NoError(t, err)
	_, _, err = elo.Update("charlie", "alpha", 0.5)
	require.NoError(t, err)

	standings := elo.Standings()
	require.Len(t, standings, 3)

	assert.Equal(t, "bravo", standings[0].Model)
	assert.Equal(t, 1, standings[0].Rank)
	assert.InDelta(t, 1516.0, standings[0].Rating, 1e-9)
	assert.Equal(t, "charlie", standings[1].Model)
	assert.Equal(t, 2, standings[1].Rank)
	assert.Equal(t, "alpha", standings[2].Model)
	assert.Equal(t, 3, standings[2].Rank)
}

func TestEloSystem_Standings_TiesBreakByName(t *testing.T) {
	elo := NewEloSystem(EloConfig{})

	// A draw leaves both participants at the initial rating.
	_, _, err := elo.Update("zeta", "alpha", 0.5)
	require.NoError(t, err)

	standings := elo.Standings()
	require.Len(t, standings, 2)
	assert.Equal(t, "alpha", standings[0].Model, "ties must break by name ascending")
	assert.Equal(t, "zeta", standings[1].Model)
}

func TestNewEloSystem_CustomConfig(t *testing.T) {
	elo := NewEloSystem(EloConfig{KFactor: 10, InitialRating: 1000})

	newA, _, err := elo.Update("m1", "m2", 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 1005.0, newA, 1e-9)
}
