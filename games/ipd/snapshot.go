/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ipd

// RoundSnapshot is a detached copy of a round, safe to serialise or store.
type RoundSnapshot struct {
	Round  int             `json:"round"`
	Phase  string          `json:"phase"`
	Groups []GroupSnapshot `json:"groups"`
}

type GroupSnapshot struct {
	Index        int               `json:"index"`
	Status       string            `json:"status"`
	Rematched    bool              `json:"rematched"`
	MatchSuccess bool              `json:"match_success"`
	ContinueGame bool              `json:"continue_game"`
	ContinueDraw *bool             `json:"continue_draw,omitempty"`
	Players      [2]PlayerSnapshot `json:"players"`
}

type PlayerSnapshot struct {
	ID            PlayerID `json:"id"`
	Rematched     bool     `json:"rematched"`
	Signal        *int     `json:"signal,omitempty"`
	PartnerSignal *int     `json:"partner_signal,omitempty"`
	Accept        *bool    `json:"accept,omitempty"`
	Decision      *bool    `json:"decision,omitempty"`
	Payoff        *int     `json:"payoff,omitempty"`
}

func (r *Round) Snapshot() RoundSnapshot {
	snap := RoundSnapshot{
		Round:  r.Number,
		Phase:  r.phase.String(),
		Groups: make([]GroupSnapshot, 0, len(r.Groups)),
	}

	for _, g := range r.Groups {
		gs := GroupSnapshot{
			Index:        g.Index,
			Status:       g.Status.String(),
			Rematched:    g.Rematched(),
			MatchSuccess: g.MatchSuccess,
			ContinueGame: g.ContinueGame,
			ContinueDraw: copyBool(g.draw),
		}
		for i, p := range g.Players {
			ps := PlayerSnapshot{
				ID:            p.ID,
				Rematched:     p.Rematched,
				Signal:        copyInt(p.signal),
				PartnerSignal: copyInt(p.partnerSignal),
				Accept:        copyBool(p.accept),
				Payoff:        copyInt(p.payoff),
			}
			if p.decision != nil {
				d := bool(*p.decision)
				ps.Decision = &d
			}
			gs.Players[i] = ps
		}
		snap.Groups = append(snap.Groups, gs)
	}

	return snap
}

// Snapshots returns every recorded round, oldest first.
func (h *History) Snapshots() []RoundSnapshot {
	out := make([]RoundSnapshot, 0, len(h.rounds))
	for _, r := range h.rounds {
		out = append(out, r.Snapshot())
	}
	return out
}
