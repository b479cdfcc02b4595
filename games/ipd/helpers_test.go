/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ipd

import "testing"

// scriptedRand never reorders and returns draws in order, then 0.
type scriptedRand struct {
	draws []float64
}

func (r *scriptedRand) Float64() float64 {
	if len(r.draws) == 0 {
		return 0
	}
	v := r.draws[0]
	r.draws = r.draws[1:]
	return v
}

func (r *scriptedRand) Shuffle(n int, swap func(i, j int)) {}

func ids(names ...string) []PlayerID {
	out := make([]PlayerID, len(names))
	for i, n := range names {
		out[i] = PlayerID(n)
	}
	return out
}

func newTestSession(t *testing.T, p float64, rng Rand, names ...string) *Session {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ContinuationProb = p
	s, err := NewSession(cfg, ids(names...), rng)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}

func pair(g *Group) [2]PlayerID {
	return [2]PlayerID{g.Players[0].ID, g.Players[1].ID}
}

func unordered(a [2]PlayerID) [2]PlayerID {
	if a[1] < a[0] {
		return [2]PlayerID{a[1], a[0]}
	}
	return a
}
