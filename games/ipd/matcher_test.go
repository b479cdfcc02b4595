/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ipd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finishedGroup(t *testing.T, round, index int, a, b string, continueGame bool) *Group {
	t.Helper()
	g, err := newGroup(round, index, []*Player{
		{ID: PlayerID(a), Round: round, Rematched: true},
		{ID: PlayerID(b), Round: round, Rematched: true},
	})
	require.NoError(t, err)
	g.Status = StatusSettled
	g.MatchSuccess = true
	g.ContinueGame = continueGame
	return g
}

func TestMatchRoundFirstRound(t *testing.T) {
	groups, needsConsent, err := MatchRound(1, nil, ids("A", "B", "C", "D"), &scriptedRand{})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, [2]PlayerID{"A", "B"}, pair(groups[0]))
	assert.Equal(t, [2]PlayerID{"C", "D"}, pair(groups[1]))
	assert.Equal(t, []bool{true, true}, needsConsent)

	for _, g := range groups {
		assert.False(t, g.MatchSuccess)
		assert.Equal(t, StatusAwaitingSignal, g.Status)
		for _, p := range g.Players {
			assert.True(t, p.Rematched)
			assert.Equal(t, 1, p.Round)
			assert.Same(t, g, p.Group())
		}
	}
}

func TestMatchRoundRejectsUnpairableRoster(t *testing.T) {
	tests := map[string][]PlayerID{
		"odd":       ids("A", "B", "C"),
		"empty":     nil,
		"duplicate": ids("A", "A"),
	}

	for name, roster := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := MatchRound(1, nil, roster, &scriptedRand{})
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestMatchRoundCarriesContinuingGroups(t *testing.T) {
	previous := []*Group{
		finishedGroup(t, 1, 0, "A", "B", false),
		finishedGroup(t, 1, 1, "C", "D", true),
		finishedGroup(t, 1, 2, "E", "F", false),
	}

	groups, needsConsent, err := MatchRound(2, previous, ids("A", "B", "C", "D", "E", "F"), &scriptedRand{})
	require.NoError(t, err)
	require.Len(t, groups, 3)

	continuing := groups[0]
	assert.Equal(t, [2]PlayerID{"C", "D"}, pair(continuing))
	assert.True(t, continuing.MatchSuccess)
	assert.Equal(t, StatusContinuing, continuing.Status)
	assert.False(t, continuing.Rematched())

	for _, g := range groups[1:] {
		assert.True(t, g.Rematched())
		assert.False(t, g.MatchSuccess)
		assert.Equal(t, StatusAwaitingSignal, g.Status)
	}
	assert.Equal(t, [2]PlayerID{"A", "B"}, pair(groups[1]))
	assert.Equal(t, [2]PlayerID{"E", "F"}, pair(groups[2]))
	assert.Equal(t, []bool{false, true, true}, needsConsent)

	for i, g := range groups {
		assert.Equal(t, i, g.Index)
		assert.Equal(t, 2, g.Round)
	}
}

func TestMatchRoundRequiresFinishedPreviousRound(t *testing.T) {
	previous := []*Group{
		finishedGroup(t, 1, 0, "A", "B", false),
		finishedGroup(t, 1, 1, "C", "D", false),
	}
	previous[1].Status = StatusAwaitingMoves

	_, _, err := MatchRound(2, previous, ids("A", "B", "C", "D"), &scriptedRand{})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestMatchRoundRequiresPreviousPartition(t *testing.T) {
	previous := []*Group{
		finishedGroup(t, 1, 0, "A", "B", false),
	}

	_, _, err := MatchRound(2, previous, ids("A", "B", "C", "D"), &scriptedRand{})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestMatchRoundRejectsMixedGroup(t *testing.T) {
	g := finishedGroup(t, 1, 0, "A", "B", false)
	g.Players[1].Rematched = false

	_, _, err := MatchRound(2, []*Group{g}, ids("A", "B"), &scriptedRand{})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNewGroupRequiresPair(t *testing.T) {
	_, err := newGroup(1, 0, []*Player{{ID: "A"}, {ID: "B"}, {ID: "C"}})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = newGroup(1, 0, []*Player{{ID: "A"}, {ID: "A"}})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestMatchRoundPairingCompleteness(t *testing.T) {
	roster := ids("A", "B", "C", "D", "E", "F", "G", "H", "I", "J")

	for seed := range uint64(50) {
		groups, _, err := MatchRound(1, nil, roster, NewRand(seed))
		require.NoError(t, err)

		seen := map[PlayerID]int{}
		for _, g := range groups {
			assert.NotEqual(t, g.Players[0].ID, g.Players[1].ID)
			for _, p := range g.Players {
				seen[p.ID]++
			}
		}
		assert.Len(t, seen, len(roster))
		for id, n := range seen {
			assert.Equal(t, 1, n, "seed %d: %s grouped %d times", seed, id, n)
		}
	}
}
