/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ipd

import (
	"fmt"
	"math/rand/v2"
)

// Rand is the randomness the matcher and sampler draw from.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// NewRand returns a seeded PCG generator.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sampler draws the Bernoulli continuation flag.
type Sampler struct {
	p   float64
	rng Rand
}

func NewSampler(p float64, rng Rand) (*Sampler, error) {
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("%w: continuation probability %v outside [0,1]", ErrConfiguration, p)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrConfiguration)
	}
	return &Sampler{p: p, rng: rng}, nil
}

// Draw returns true with probability p.
func (s *Sampler) Draw() bool {
	return s.rng.Float64() < s.p
}

func (s *Sampler) Probability() float64 {
	return s.p
}
