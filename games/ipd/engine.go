/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ipd

import "fmt"

// Engine settles the Dilemma for groups that matched.
type Engine struct {
	table   PayoffTable
	sampler *Sampler
}

func NewEngine(table PayoffTable, sampler *Sampler) (*Engine, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if sampler == nil {
		return nil, fmt.Errorf("%w: nil continuation sampler", ErrConfiguration)
	}
	return &Engine{table: table, sampler: sampler}, nil
}

// Settle assigns payoffs and the continuation flag. The sampler is always
// drawn; a defection by either player then forces the pair apart.
func (e *Engine) Settle(g *Group) error {
	if err := g.check(); err != nil {
		return err
	}
	if !g.MatchSuccess || g.Status != StatusAwaitingMoves {
		return fmt.Errorf("%w: group %d in round %d is %s and cannot play", ErrInvalidState, g.Index, g.Round, g.Status)
	}

	a, b := g.Players[0], g.Players[1]
	if a.decision == nil || b.decision == nil {
		return fmt.Errorf("%w: group %d in round %d has not finished moving", ErrMissingInput, g.Index, g.Round)
	}

	out, err := e.table.Lookup(*a.decision, *b.decision)
	if err != nil {
		return err
	}

	pa, pb := out[0], out[1]
	a.payoff = &pa
	b.payoff = &pb

	draw := e.sampler.Draw()
	g.draw = &draw
	g.ContinueGame = draw
	if *a.decision == Defect || *b.decision == Defect {
		g.ContinueGame = false
	}
	g.Status = StatusSettled

	return nil
}
