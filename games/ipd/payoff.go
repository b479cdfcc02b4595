/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ipd

import "fmt"

// Move is a Dilemma decision. true cooperates, false defects.
type Move bool

const (
	Cooperate Move = true
	Defect    Move = false
)

func (m Move) String() string {
	if m {
		return "cooperate"
	}
	return "defect"
}

// Profile is an ordered pair of moves: first player, second player.
type Profile struct {
	First  Move
	Second Move
}

// Outcome is a payoff vector assigned positionally to a group's players.
type Outcome [2]int

// PayoffTable maps a move profile to its payoffs.
type PayoffTable map[Profile]Outcome

var profiles = [4]Profile{
	{Cooperate, Cooperate},
	{Cooperate, Defect},
	{Defect, Cooperate},
	{Defect, Defect},
}

// DefaultPayoffTable returns the canonical table:
// (C,C)=(4,4) (C,D)=(0,5) (D,C)=(5,0) (D,D)=(1,1).
func DefaultPayoffTable() PayoffTable {
	return PayoffTable{
		{Cooperate, Cooperate}: {4, 4},
		{Cooperate, Defect}:    {0, 5},
		{Defect, Cooperate}:    {5, 0},
		{Defect, Defect}:       {1, 1},
	}
}

// NewPayoffTable builds a table from eight values in CC, CD, DC, DD order,
// first player's payoff before second player's.
func NewPayoffTable(values []int) (PayoffTable, error) {
	if len(values) != 2*len(profiles) {
		return nil, fmt.Errorf("%w: payoff table needs %d values, got %d", ErrConfiguration, 2*len(profiles), len(values))
	}

	t := make(PayoffTable, len(profiles))
	for i, p := range profiles {
		t[p] = Outcome{values[2*i], values[2*i+1]}
	}
	return t, nil
}

// Validate reports an error if any of the four profiles is missing.
func (t PayoffTable) Validate() error {
	for _, p := range profiles {
		if _, ok := t[p]; !ok {
			return fmt.Errorf("%w: no payoff for (%s, %s)", ErrConfiguration, p.First, p.Second)
		}
	}
	return nil
}

// Lookup returns the payoffs for the ordered pair of moves.
func (t PayoffTable) Lookup(first, second Move) (Outcome, error) {
	o, ok := t[Profile{first, second}]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: no payoff for (%s, %s)", ErrConfiguration, first, second)
	}
	return o, nil
}

// Values flattens the table back into CC, CD, DC, DD order.
func (t PayoffTable) Values() []int {
	out := make([]int, 0, 2*len(profiles))
	for _, p := range profiles {
		o := t[p]
		out = append(out, o[0], o[1])
	}
	return out
}
