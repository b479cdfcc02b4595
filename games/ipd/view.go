/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ipd

import "fmt"

// PlayerView is what one participant may see of the current round. The Show
// flags mirror the pages of the experiment; value fields are filled only once
// the barrier that produces them has fired.
type PlayerView struct {
	Player    PlayerID `json:"player"`
	Round     int      `json:"round"`
	NumRounds int      `json:"num_rounds"`
	Phase     string   `json:"phase"`
	Status    string   `json:"status"`
	Rematched bool     `json:"rematched"`
	Waiting   bool     `json:"waiting"`

	ShowIntroduction  bool `json:"show_introduction"`
	ShowSendSignal    bool `json:"show_send_signal"`
	ShowReceiveSignal bool `json:"show_receive_signal"`
	ShowMatchResult   bool `json:"show_match_result"`
	ShowDilemma       bool `json:"show_dilemma"`
	ShowDilemmaResult bool `json:"show_dilemma_result"`
	ShowFinalResults  bool `json:"show_final_results"`

	Signal          *int  `json:"signal,omitempty"`
	PartnerSignal   *int  `json:"partner_signal,omitempty"`
	Accept          *bool `json:"accept,omitempty"`
	MatchSuccess    *bool `json:"match_success,omitempty"`
	Decision        *bool `json:"decision,omitempty"`
	PartnerDecision *bool `json:"partner_decision,omitempty"`
	Payoff          *int  `json:"payoff,omitempty"`
	ContinueGame    *bool `json:"continue_game,omitempty"`
	Cumulative      int   `json:"cumulative"`
}

// View returns id's view of the current round.
func (s *Session) View(id PlayerID) (PlayerView, error) {
	r := s.current
	if r == nil {
		return PlayerView{}, fmt.Errorf("%w: no round in progress", ErrInvalidState)
	}
	p, ok := r.Player(id)
	if !ok {
		return PlayerView{}, fmt.Errorf("%w: %s is not in this session", ErrInvalidState, id)
	}
	g := p.group
	partner, _ := g.Partner(id)

	v := PlayerView{
		Player:    id,
		Round:     r.Number,
		NumRounds: s.cfg.Rounds,
		Phase:     s.Phase().String(),
		Status:    g.Status.String(),
		Rematched: p.Rematched,
		Waiting:   r.Waiting(id),

		ShowIntroduction: r.Number == 1,
		ShowSendSignal:   p.Rematched,
		// every rematched player decides for themself, so nobody's consent
		// page is suppressed in favour of a counterpart's
		ShowReceiveSignal: p.Rematched,
		ShowFinalResults:  s.Finished(),

		Cumulative: s.CumulativePayoff(id),
	}

	resolved := !p.Rematched || (g.Status != StatusAwaitingSignal && g.Status != StatusAwaitingDecision)

	if p.Rematched {
		v.Signal = copyInt(p.signal)
		v.PartnerSignal = copyInt(p.partnerSignal)
		v.Accept = copyBool(p.accept)
		v.ShowMatchResult = resolved
	}

	if resolved {
		ms := g.MatchSuccess
		v.MatchSuccess = &ms
		v.ShowDilemma = g.MatchSuccess
	}

	if p.decision != nil {
		d := bool(*p.decision)
		v.Decision = &d
	}

	if g.Status == StatusSettled {
		v.ShowDilemmaResult = true
		if partner.decision != nil {
			pd := bool(*partner.decision)
			v.PartnerDecision = &pd
		}
		v.Payoff = copyInt(p.payoff)
		cg := g.ContinueGame
		v.ContinueGame = &cg
	}

	return v, nil
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
