/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ipd

import "fmt"

// MatchRound builds the grouping for round. Round 1 pairs the roster at
// random. Later rounds carry every group whose continuation flag is set
// forward unchanged and re-pair everyone else from a shuffled pool.
//
// The second return value holds, per group, whether it must pass the
// consent gate before playing.
func MatchRound(round int, previous []*Group, roster []PlayerID, rng Rand) ([]*Group, []bool, error) {
	if rng == nil {
		return nil, nil, fmt.Errorf("%w: nil random source", ErrConfiguration)
	}
	if err := checkRoster(roster); err != nil {
		return nil, nil, err
	}

	var groups []*Group
	var pool []PlayerID

	if round == 1 {
		pool = append(pool, roster...)
	} else {
		if err := checkPrevious(round, previous, roster); err != nil {
			return nil, nil, err
		}

		for _, g := range previous {
			if !g.ContinueGame {
				pool = append(pool, g.Players[0].ID, g.Players[1].ID)
				continue
			}

			members := []*Player{
				{ID: g.Players[0].ID, Round: round},
				{ID: g.Players[1].ID, Round: round},
			}
			cg, err := newGroup(round, len(groups), members)
			if err != nil {
				return nil, nil, err
			}
			cg.Status = StatusContinuing
			cg.MatchSuccess = true
			groups = append(groups, cg)
		}
	}

	if len(pool)%2 != 0 {
		return nil, nil, fmt.Errorf("%w: rematch pool of %d players in round %d", ErrConfiguration, len(pool), round)
	}

	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	for i := 0; i < len(pool); i += 2 {
		members := []*Player{
			{ID: pool[i], Round: round, Rematched: true},
			{ID: pool[i+1], Round: round, Rematched: true},
		}
		rg, err := newGroup(round, len(groups), members)
		if err != nil {
			return nil, nil, err
		}
		rg.Status = StatusAwaitingSignal
		groups = append(groups, rg)
	}

	needsConsent := make([]bool, len(groups))
	for i, g := range groups {
		needsConsent[i] = g.Rematched()
	}

	return groups, needsConsent, nil
}

func checkRoster(roster []PlayerID) error {
	if len(roster) < 2 || len(roster)%2 != 0 {
		return fmt.Errorf("%w: roster of %d players cannot be paired", ErrConfiguration, len(roster))
	}

	seen := make(map[PlayerID]bool, len(roster))
	for _, id := range roster {
		if seen[id] {
			return fmt.Errorf("%w: %s appears twice in roster", ErrConfiguration, id)
		}
		seen[id] = true
	}
	return nil
}

// checkPrevious requires the previous round to be finished and to partition
// the roster exactly.
func checkPrevious(round int, previous []*Group, roster []PlayerID) error {
	seen := make(map[PlayerID]bool, len(roster))
	for _, g := range previous {
		if g.Round != round-1 {
			return fmt.Errorf("%w: group %d belongs to round %d, want %d", ErrConfiguration, g.Index, g.Round, round-1)
		}
		if err := g.check(); err != nil {
			return err
		}
		if !g.Status.Final() {
			return fmt.Errorf("%w: group %d in round %d is %s", ErrInvalidState, g.Index, g.Round, g.Status)
		}
		for _, p := range g.Players {
			if seen[p.ID] {
				return fmt.Errorf("%w: %s in two groups in round %d", ErrConfiguration, p.ID, g.Round)
			}
			seen[p.ID] = true
		}
	}

	if len(seen) != len(roster) {
		return fmt.Errorf("%w: round %d grouped %d players, roster has %d", ErrConfiguration, round-1, len(seen), len(roster))
	}
	for _, id := range roster {
		if !seen[id] {
			return fmt.Errorf("%w: %s missing from round %d", ErrConfiguration, id, round-1)
		}
	}
	return nil
}
