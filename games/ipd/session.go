/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ipd

import (
	"fmt"
	"slices"
)

// Config holds the constants a session is run with.
type Config struct {
	Rounds           int
	ContinuationProb float64
	Payoffs          PayoffTable
}

// DefaultConfig returns 10 rounds, p = 0.8 and the canonical payoff table.
func DefaultConfig() Config {
	return Config{
		Rounds:           10,
		ContinuationProb: 0.8,
		Payoffs:          DefaultPayoffTable(),
	}
}

func (c Config) Validate() error {
	if c.Rounds < 1 {
		return fmt.Errorf("%w: %d rounds", ErrConfiguration, c.Rounds)
	}
	if c.ContinuationProb < 0 || c.ContinuationProb > 1 {
		return fmt.Errorf("%w: continuation probability %v outside [0,1]", ErrConfiguration, c.ContinuationProb)
	}
	return c.Payoffs.Validate()
}

// Phase is the session-wide position inside a round. Every player moves
// from one phase to the next together.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseSignal
	PhaseDecision
	PhaseMoves
	PhaseRoundComplete
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseSignal:
		return "signal"
	case PhaseDecision:
		return "decision"
	case PhaseMoves:
		return "moves"
	case PhaseRoundComplete:
		return "round_complete"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Round is one round's grouping and its phase.
type Round struct {
	Number int
	Groups []*Group

	phase   Phase
	players map[PlayerID]*Player
}

func newRound(n int, groups []*Group) *Round {
	r := &Round{
		Number:  n,
		Groups:  groups,
		players: make(map[PlayerID]*Player, 2*len(groups)),
	}
	for _, g := range groups {
		for _, p := range g.Players {
			r.players[p.ID] = p
		}
	}
	return r
}

func (r *Round) Phase() Phase {
	return r.phase
}

// Player returns id's record for this round.
func (r *Round) Player(id PlayerID) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// Pending lists the players whose input the current phase still needs,
// in group order.
func (r *Round) Pending() []PlayerID {
	var out []PlayerID
	for _, g := range r.Groups {
		out = append(out, g.pending()...)
	}
	return out
}

// Waiting reports whether id owes nothing in the current input phase and is
// only waiting on the barrier.
func (r *Round) Waiting(id PlayerID) bool {
	switch r.phase {
	case PhaseSignal, PhaseDecision, PhaseMoves:
	default:
		return false
	}
	p, ok := r.players[id]
	if !ok {
		return false
	}
	return !slices.Contains(p.group.pending(), id)
}

// Session sequences rounds 1..Rounds over a fixed roster.
type Session struct {
	cfg     Config
	roster  []PlayerID
	rng     Rand
	engine  *Engine
	history *History
	current *Round
}

// NewSession validates cfg and roster. rng drives both matching and the
// continuation sampler.
func NewSession(cfg Config, roster []PlayerID, rng Rand) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkRoster(roster); err != nil {
		return nil, err
	}

	sampler, err := NewSampler(cfg.ContinuationProb, rng)
	if err != nil {
		return nil, err
	}
	engine, err := NewEngine(cfg.Payoffs, sampler)
	if err != nil {
		return nil, err
	}

	return &Session{
		cfg:     cfg,
		roster:  slices.Clone(roster),
		rng:     rng,
		engine:  engine,
		history: newHistory(),
	}, nil
}

func (s *Session) Config() Config {
	return s.cfg
}

// Roster returns a copy of the participants.
func (s *Session) Roster() []PlayerID {
	return slices.Clone(s.roster)
}

// Current returns the round in progress, or nil before the first round.
func (s *Session) Current() *Round {
	return s.current
}

func (s *Session) History() *History {
	return s.history
}

func (s *Session) Phase() Phase {
	if s.current == nil {
		return PhaseLobby
	}
	if s.current.phase == PhaseRoundComplete && s.current.Number >= s.cfg.Rounds {
		return PhaseFinished
	}
	return s.current.phase
}

func (s *Session) Finished() bool {
	return s.Phase() == PhaseFinished
}

// StartRound matches the next round. The previous round must be complete.
func (s *Session) StartRound() (*Round, error) {
	var previous []*Group
	n := 1

	if s.current != nil {
		if s.Finished() {
			return nil, fmt.Errorf("%w: all %d rounds played", ErrInvalidState, s.cfg.Rounds)
		}
		if s.current.phase != PhaseRoundComplete {
			return nil, fmt.Errorf("%w: round %d is in %s", ErrInvalidState, s.current.Number, s.current.phase)
		}
		previous = s.current.Groups
		n = s.current.Number + 1
	}

	groups, needsConsent, err := MatchRound(n, previous, s.roster, s.rng)
	if err != nil {
		return nil, err
	}

	r := newRound(n, groups)
	if err := s.history.append(r); err != nil {
		return nil, err
	}
	s.current = r

	if slices.Contains(needsConsent, true) {
		r.phase = PhaseSignal
	} else {
		beginMoves(r)
	}

	return r, nil
}

func beginMoves(r *Round) {
	playing := false
	for _, g := range r.Groups {
		if g.Status == StatusContinuing {
			g.Status = StatusAwaitingMoves
		}
		if g.Status == StatusAwaitingMoves {
			playing = true
		}
	}

	if playing {
		r.phase = PhaseMoves
	} else {
		r.phase = PhaseRoundComplete
	}
}

func (s *Session) member(id PlayerID, phase Phase) (*Player, error) {
	if s.current == nil {
		return nil, fmt.Errorf("%w: no round in progress", ErrInvalidState)
	}
	if s.current.phase != phase {
		return nil, fmt.Errorf("%w: round %d is in %s, not %s", ErrInvalidState, s.current.Number, s.current.phase, phase)
	}
	p, ok := s.current.players[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not in this session", ErrInvalidState, id)
	}
	return p, nil
}

// SubmitSignal records id's stars for the signal phase.
func (s *Session) SubmitSignal(id PlayerID, stars int) error {
	p, err := s.member(id, PhaseSignal)
	if err != nil {
		return err
	}
	if p.group.Status != StatusAwaitingSignal {
		return fmt.Errorf("%w: %s is not signalling this round", ErrInvalidState, id)
	}
	return p.setSignal(stars)
}

// SubmitAccept records id's consent decision.
func (s *Session) SubmitAccept(id PlayerID, accept bool) error {
	p, err := s.member(id, PhaseDecision)
	if err != nil {
		return err
	}
	if p.group.Status != StatusAwaitingDecision {
		return fmt.Errorf("%w: %s is not deciding this round", ErrInvalidState, id)
	}
	return p.setAccept(accept)
}

// SubmitMove records id's Dilemma move.
func (s *Session) SubmitMove(id PlayerID, m Move) error {
	p, err := s.member(id, PhaseMoves)
	if err != nil {
		return err
	}
	if p.group.Status != StatusAwaitingMoves {
		return fmt.Errorf("%w: %s is not playing this round", ErrInvalidState, id)
	}
	return p.setDecision(m)
}

// Pending lists the players the current phase is waiting on.
func (s *Session) Pending() []PlayerID {
	if s.current == nil {
		return nil
	}
	return s.current.Pending()
}

// Ready reports whether the current phase's barrier can fire.
func (s *Session) Ready() bool {
	if s.current == nil {
		return false
	}
	switch s.current.phase {
	case PhaseSignal, PhaseDecision, PhaseMoves:
		return len(s.current.Pending()) == 0
	}
	return false
}

// Advance fires the barrier at the end of the current phase: signals are
// exchanged, consent is resolved, or the Dilemma is settled. Every expected
// input must be present.
func (s *Session) Advance() error {
	r := s.current
	if r == nil {
		return fmt.Errorf("%w: no round in progress", ErrInvalidState)
	}

	switch r.phase {
	case PhaseSignal, PhaseDecision, PhaseMoves:
	default:
		return fmt.Errorf("%w: nothing to resolve in %s", ErrInvalidState, r.phase)
	}

	if pending := r.Pending(); len(pending) > 0 {
		return fmt.Errorf("%w: round %d %s waiting on %v", ErrMissingInput, r.Number, r.phase, pending)
	}

	switch r.phase {
	case PhaseSignal:
		for _, g := range r.Groups {
			if g.Status != StatusAwaitingSignal {
				continue
			}
			if err := ExchangeSignals(g); err != nil {
				return err
			}
		}
		r.phase = PhaseDecision

	case PhaseDecision:
		for _, g := range r.Groups {
			if g.Status != StatusAwaitingDecision {
				continue
			}
			if err := ResolveConsent(g); err != nil {
				return err
			}
		}
		beginMoves(r)

	case PhaseMoves:
		for _, g := range r.Groups {
			if g.Status != StatusAwaitingMoves {
				continue
			}
			if err := s.engine.Settle(g); err != nil {
				return err
			}
		}
		r.phase = PhaseRoundComplete
	}

	return nil
}

// CumulativePayoff sums id's payoffs through the current round.
func (s *Session) CumulativePayoff(id PlayerID) int {
	return s.history.CumulativePayoff(id, s.history.Len())
}
