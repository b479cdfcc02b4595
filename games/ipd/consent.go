/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ipd

import "fmt"

func requireConsentStatus(g *Group, want Status) error {
	if err := g.check(); err != nil {
		return err
	}
	if !g.Rematched() {
		return fmt.Errorf("%w: group %d in round %d continued without consent", ErrInvalidState, g.Index, g.Round)
	}
	if g.Status != want {
		return fmt.Errorf("%w: group %d in round %d is %s, want %s", ErrInvalidState, g.Index, g.Round, g.Status, want)
	}
	return nil
}

// ExchangeSignals copies each player's signal to the partner. Both signals
// must be present.
func ExchangeSignals(g *Group) error {
	if err := requireConsentStatus(g, StatusAwaitingSignal); err != nil {
		return err
	}

	a, b := g.Players[0], g.Players[1]
	if a.signal == nil || b.signal == nil {
		return fmt.Errorf("%w: group %d in round %d has not finished signalling", ErrMissingInput, g.Index, g.Round)
	}

	sa, sb := *a.signal, *b.signal
	a.partnerSignal = &sb
	b.partnerSignal = &sa
	g.Status = StatusAwaitingDecision

	return nil
}

// ResolveConsent sets MatchSuccess when both players accepted. A single
// rejection fails the group for the round.
func ResolveConsent(g *Group) error {
	if err := requireConsentStatus(g, StatusAwaitingDecision); err != nil {
		return err
	}

	a, b := g.Players[0], g.Players[1]
	if a.accept == nil || b.accept == nil {
		return fmt.Errorf("%w: group %d in round %d has not finished deciding", ErrMissingInput, g.Index, g.Round)
	}

	g.MatchSuccess = *a.accept && *b.accept
	if g.MatchSuccess {
		g.Status = StatusAwaitingMoves
	} else {
		g.Status = StatusConsentFailed
	}

	return nil
}
