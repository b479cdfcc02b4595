/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ipd

import "fmt"

// MaxSignal is the highest number of stars a participant can send.
const MaxSignal = 5

// PlayerID identifies a participant across rounds.
type PlayerID string

// Player is one participant's record for one round. Fields are written once,
// in order, by the component that owns them and are read back through
// accessors that refuse reads the group's path through the round never
// produced.
type Player struct {
	ID        PlayerID
	Round     int
	Rematched bool

	group *Group

	signal        *int
	partnerSignal *int
	accept        *bool
	decision      *Move
	payoff        *int
}

// Group returns the pair this record belongs to.
func (p *Player) Group() *Group {
	return p.group
}

func (p *Player) requireConsent(field string) error {
	if !p.Rematched {
		return fmt.Errorf("%w: %s of %s in round %d: group continued without consent", ErrInvalidState, field, p.ID, p.Round)
	}
	return nil
}

// Signal returns the stars this player sent.
func (p *Player) Signal() (int, error) {
	if err := p.requireConsent("signal"); err != nil {
		return 0, err
	}
	if p.signal == nil {
		return 0, fmt.Errorf("%w: signal of %s in round %d", ErrMissingInput, p.ID, p.Round)
	}
	return *p.signal, nil
}

// PartnerSignal returns the stars the partner sent, once both have signalled.
func (p *Player) PartnerSignal() (int, error) {
	if err := p.requireConsent("partner signal"); err != nil {
		return 0, err
	}
	if p.partnerSignal == nil {
		return 0, fmt.Errorf("%w: partner signal of %s in round %d not exchanged", ErrMissingInput, p.ID, p.Round)
	}
	return *p.partnerSignal, nil
}

// AcceptPartner returns this player's consent decision.
func (p *Player) AcceptPartner() (bool, error) {
	if err := p.requireConsent("accept"); err != nil {
		return false, err
	}
	if p.accept == nil {
		return false, fmt.Errorf("%w: accept of %s in round %d", ErrMissingInput, p.ID, p.Round)
	}
	return *p.accept, nil
}

func (p *Player) requirePlay(field string) error {
	if p.group == nil || !p.group.Played() {
		return fmt.Errorf("%w: %s of %s in round %d: group did not play", ErrInvalidState, field, p.ID, p.Round)
	}
	return nil
}

// Decision returns the Dilemma move.
func (p *Player) Decision() (Move, error) {
	if err := p.requirePlay("decision"); err != nil {
		return Defect, err
	}
	if p.decision == nil {
		return Defect, fmt.Errorf("%w: decision of %s in round %d", ErrMissingInput, p.ID, p.Round)
	}
	return *p.decision, nil
}

// Payoff returns the payoff earned this round.
func (p *Player) Payoff() (int, error) {
	if err := p.requirePlay("payoff"); err != nil {
		return 0, err
	}
	if p.payoff == nil {
		return 0, fmt.Errorf("%w: payoff of %s in round %d not settled", ErrMissingInput, p.ID, p.Round)
	}
	return *p.payoff, nil
}

// HasPayoff reports whether a payoff was assigned this round.
func (p *Player) HasPayoff() bool {
	return p.payoff != nil
}

func (p *Player) setSignal(stars int) error {
	if err := p.requireConsent("signal"); err != nil {
		return err
	}
	if stars < 0 || stars > MaxSignal {
		return fmt.Errorf("%w: signal %d outside 0..%d", ErrInvalidInput, stars, MaxSignal)
	}
	if p.signal != nil {
		return fmt.Errorf("%w: %s already signalled in round %d", ErrInvalidState, p.ID, p.Round)
	}
	p.signal = &stars
	return nil
}

func (p *Player) setAccept(accept bool) error {
	if err := p.requireConsent("accept"); err != nil {
		return err
	}
	if p.accept != nil {
		return fmt.Errorf("%w: %s already decided in round %d", ErrInvalidState, p.ID, p.Round)
	}
	p.accept = &accept
	return nil
}

func (p *Player) setDecision(m Move) error {
	if p.decision != nil {
		return fmt.Errorf("%w: %s already moved in round %d", ErrInvalidState, p.ID, p.Round)
	}
	p.decision = &m
	return nil
}

// Status is a group's position in the per-round state machine.
type Status int

const (
	StatusPendingMatch Status = iota
	StatusContinuing
	StatusAwaitingSignal
	StatusAwaitingDecision
	StatusConsentFailed
	StatusAwaitingMoves
	StatusSettled
)

func (s Status) String() string {
	switch s {
	case StatusPendingMatch:
		return "pending_match"
	case StatusContinuing:
		return "continuing"
	case StatusAwaitingSignal:
		return "awaiting_signal"
	case StatusAwaitingDecision:
		return "awaiting_decision"
	case StatusConsentFailed:
		return "consent_failed"
	case StatusAwaitingMoves:
		return "awaiting_moves"
	case StatusSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Final reports whether the group is done for the round.
func (s Status) Final() bool {
	return s == StatusConsentFailed || s == StatusSettled
}

// Group is a pair of players for one round.
type Group struct {
	Round        int
	Index        int
	Players      [2]*Player
	Status       Status
	MatchSuccess bool
	ContinueGame bool

	draw *bool
}

// newGroup pairs members. Anything other than two distinct players sharing
// the same rematched flag is a configuration error.
func newGroup(round, index int, members []*Player) (*Group, error) {
	if len(members) != 2 {
		return nil, fmt.Errorf("%w: group %d in round %d has %d members, want 2", ErrConfiguration, index, round, len(members))
	}

	g := &Group{
		Round:   round,
		Index:   index,
		Players: [2]*Player{members[0], members[1]},
		Status:  StatusPendingMatch,
	}
	if err := g.check(); err != nil {
		return nil, err
	}
	for _, p := range g.Players {
		p.group = g
	}
	return g, nil
}

func (g *Group) check() error {
	a, b := g.Players[0], g.Players[1]
	if a == nil || b == nil {
		return fmt.Errorf("%w: group %d in round %d is not a pair", ErrConfiguration, g.Index, g.Round)
	}
	if a.ID == b.ID {
		return fmt.Errorf("%w: group %d in round %d pairs %s with itself", ErrConfiguration, g.Index, g.Round, a.ID)
	}
	if a.Rematched != b.Rematched {
		return fmt.Errorf("%w: group %d in round %d mixes rematched and continuing players", ErrConfiguration, g.Index, g.Round)
	}
	return nil
}

// Rematched reports whether the pair was formed from the rematch pool.
func (g *Group) Rematched() bool {
	return g.Players[0].Rematched
}

// Played reports whether the group entered the Dilemma this round.
func (g *Group) Played() bool {
	return g.MatchSuccess && (g.Status == StatusAwaitingMoves || g.Status == StatusSettled)
}

// Member returns the player record for id.
func (g *Group) Member(id PlayerID) (*Player, bool) {
	for _, p := range g.Players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Partner returns the other player in the group.
func (g *Group) Partner(id PlayerID) (*Player, bool) {
	switch id {
	case g.Players[0].ID:
		return g.Players[1], true
	case g.Players[1].ID:
		return g.Players[0], true
	}
	return nil, false
}

// Draw returns the sampled continuation value before the defection override.
func (g *Group) Draw() (bool, error) {
	if g.draw == nil {
		return false, fmt.Errorf("%w: group %d in round %d was not settled", ErrInvalidState, g.Index, g.Round)
	}
	return *g.draw, nil
}

func (g *Group) pending() []PlayerID {
	var out []PlayerID
	for _, p := range g.Players {
		switch g.Status {
		case StatusAwaitingSignal:
			if p.signal == nil {
				out = append(out, p.ID)
			}
		case StatusAwaitingDecision:
			if p.accept == nil {
				out = append(out, p.ID)
			}
		case StatusAwaitingMoves:
			if p.decision == nil {
				out = append(out, p.ID)
			}
		}
	}
	return out
}
