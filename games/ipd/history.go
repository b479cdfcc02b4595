/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ipd

import "fmt"

type recordKey struct {
	id    PlayerID
	round int
}

// History is the append-only record of every round in a session, indexed by
// (participant, round). Entries are never replaced.
type History struct {
	rounds  []*Round
	records map[recordKey]*Player
}

func newHistory() *History {
	return &History{
		records: make(map[recordKey]*Player),
	}
}

func (h *History) append(r *Round) error {
	if r.Number != len(h.rounds)+1 {
		return fmt.Errorf("%w: appending round %d after round %d", ErrInvalidState, r.Number, len(h.rounds))
	}

	for _, g := range r.Groups {
		for _, p := range g.Players {
			k := recordKey{id: p.ID, round: r.Number}
			if _, ok := h.records[k]; ok {
				return fmt.Errorf("%w: second record for %s in round %d", ErrConfiguration, p.ID, r.Number)
			}
			h.records[k] = p
		}
	}

	h.rounds = append(h.rounds, r)
	return nil
}

// Len returns the number of rounds recorded.
func (h *History) Len() int {
	return len(h.rounds)
}

// Round returns round n, counting from 1.
func (h *History) Round(n int) (*Round, bool) {
	if n < 1 || n > len(h.rounds) {
		return nil, false
	}
	return h.rounds[n-1], true
}

// Record returns the player record for id in round n.
func (h *History) Record(id PlayerID, round int) (*Player, bool) {
	p, ok := h.records[recordKey{id: id, round: round}]
	return p, ok
}

// CumulativePayoff sums id's assigned payoffs over rounds 1..through.
// Rounds without play contribute nothing.
func (h *History) CumulativePayoff(id PlayerID, through int) int {
	total := 0
	for n := 1; n <= through && n <= len(h.rounds); n++ {
		p, ok := h.Record(id, n)
		if !ok || p.payoff == nil {
			continue
		}
		total += *p.payoff
	}
	return total
}

// LastPartnerMove returns the move most recently played against id, from
// the latest round in which id's group settled the Dilemma.
func (h *History) LastPartnerMove(id PlayerID) (Move, bool) {
	for n := len(h.rounds); n >= 1; n-- {
		p, ok := h.Record(id, n)
		if !ok || p.group == nil || p.group.Status != StatusSettled {
			continue
		}
		partner, _ := p.group.Partner(id)
		if partner.decision == nil {
			continue
		}
		return *partner.decision, true
	}
	return Defect, false
}
