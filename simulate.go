/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"cmp"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Seednode/dilemma/games/ipd"
)

type simConfig struct {
	players    int
	strategies []string
	acceptAt   int
}

func (s *simConfig) validate() error {
	if s.players < 2 || s.players%2 != 0 {
		return fmt.Errorf("invalid player count (must be even and at least 2): %d", s.players)
	}
	if len(s.strategies) == 0 {
		return fmt.Errorf("%w: none given", errUnknownStrat)
	}
	for _, name := range s.strategies {
		if _, ok := strategies[name]; !ok {
			return fmt.Errorf("%w: %q", errUnknownStrat, name)
		}
	}
	if s.acceptAt < 0 || s.acceptAt > ipd.MaxSignal+1 {
		return fmt.Errorf("invalid accept threshold (must be between 0-%d inclusive): %d", ipd.MaxSignal+1, s.acceptAt)
	}
	return nil
}

// strategy scripts one bot: the stars it sends and the move it plays.
type strategy struct {
	signal func(rng *rand.Rand) int
	move   func(h *ipd.History, id ipd.PlayerID, rng *rand.Rand) ipd.Move
}

var strategies = map[string]strategy{
	"cooperate": {
		signal: func(*rand.Rand) int { return ipd.MaxSignal },
		move:   func(*ipd.History, ipd.PlayerID, *rand.Rand) ipd.Move { return ipd.Cooperate },
	},
	"defect": {
		signal: func(*rand.Rand) int { return 0 },
		move:   func(*ipd.History, ipd.PlayerID, *rand.Rand) ipd.Move { return ipd.Defect },
	},
	"tit-for-tat": {
		signal: func(*rand.Rand) int { return 3 },
		move: func(h *ipd.History, id ipd.PlayerID, _ *rand.Rand) ipd.Move {
			if m, ok := h.LastPartnerMove(id); ok {
				return m
			}
			return ipd.Cooperate
		},
	},
	"random": {
		signal: func(rng *rand.Rand) int { return rng.IntN(ipd.MaxSignal + 1) },
		move: func(_ *ipd.History, _ ipd.PlayerID, rng *rand.Rand) ipd.Move {
			return ipd.Move(rng.Float64() < 0.5)
		},
	},
}

type bot struct {
	id       ipd.PlayerID
	strategy string
}

func newBots(sim *simConfig) []bot {
	bots := make([]bot, sim.players)
	for i := range bots {
		bots[i] = bot{
			id:       ipd.PlayerID(fmt.Sprintf("p%02d", i+1)),
			strategy: sim.strategies[i%len(sim.strategies)],
		}
	}
	return bots
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	roundStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	coopStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	defectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func cell(width int, s string) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

// runSimulation plays a whole session with scripted participants and writes
// each round's groups and the final standings to w.
func runSimulation(w io.Writer, cfg *Config, sim *simConfig) error {
	game, err := cfg.gameConfig()
	if err != nil {
		return err
	}

	seed := cfg.newSeed()
	bots := newBots(sim)

	roster := make([]ipd.PlayerID, len(bots))
	byID := make(map[ipd.PlayerID]bot, len(bots))
	for i, b := range bots {
		roster[i] = b.id
		byID[b.id] = b
	}

	session, err := ipd.NewSession(game, roster, ipd.NewRand(seed))
	if err != nil {
		return err
	}
	botRand := ipd.NewRand(seed + 1)

	logf(cfg, "GAMES: Simulating %d players for %d rounds with seed %d", sim.players, game.Rounds, seed)

	fmt.Fprintf(w, "%s\n", headerStyle.Render(fmt.Sprintf(
		"Simulating %d players, %d rounds, p=%v, seed %d", sim.players, game.Rounds, game.ContinuationProb, seed)))

	for !session.Finished() {
		r, err := session.StartRound()
		if err != nil {
			return err
		}

		for r.Phase() != ipd.PhaseRoundComplete {
			for _, id := range session.Pending() {
				if err := playTurn(session, r, byID[id], sim, botRand); err != nil {
					return err
				}
			}
			if err := session.Advance(); err != nil {
				return err
			}
		}

		writeRound(w, r, byID)
	}

	writeStandings(w, session, bots)

	return nil
}

func playTurn(s *ipd.Session, r *ipd.Round, b bot, sim *simConfig, rng *rand.Rand) error {
	st := strategies[b.strategy]

	switch r.Phase() {
	case ipd.PhaseSignal:
		return s.SubmitSignal(b.id, st.signal(rng))
	case ipd.PhaseDecision:
		p, _ := r.Player(b.id)
		stars, err := p.PartnerSignal()
		if err != nil {
			return err
		}
		return s.SubmitAccept(b.id, stars >= sim.acceptAt)
	case ipd.PhaseMoves:
		return s.SubmitMove(b.id, st.move(s.History(), b.id, rng))
	}
	return nil
}

func moveLabel(m ipd.Move) string {
	if m == ipd.Cooperate {
		return coopStyle.Render("C")
	}
	return defectStyle.Render("D")
}

func writeRound(w io.Writer, r *ipd.Round, byID map[ipd.PlayerID]bot) {
	fmt.Fprintf(w, "\n%s\n", roundStyle.Render(fmt.Sprintf("Round %d", r.Number)))

	for _, g := range r.Groups {
		a, b := g.Players[0], g.Players[1]
		pair := fmt.Sprintf("%s (%s) & %s (%s)", a.ID, byID[a.ID].strategy, b.ID, byID[b.ID].strategy)

		var detail string
		switch {
		case g.Played():
			ma, _ := a.Decision()
			mb, _ := b.Decision()
			pa, _ := a.Payoff()
			pb, _ := b.Payoff()
			next := "rematch"
			if g.ContinueGame {
				next = "stay"
			}
			detail = fmt.Sprintf("%s/%s  %d/%d  %s", moveLabel(ma), moveLabel(mb), pa, pb, next)
		default:
			detail = mutedStyle.Render("no match")
		}

		origin := "new"
		if !g.Rematched() {
			origin = "kept"
		}

		fmt.Fprintf(w, "  %s%s%s\n", cell(40, pair), cell(6, origin), detail)
	}
}

func writeStandings(w io.Writer, s *ipd.Session, bots []bot) {
	type standing struct {
		bot   bot
		total int
	}

	rows := make([]standing, len(bots))
	for i, b := range bots {
		rows[i] = standing{bot: b, total: s.CumulativePayoff(b.id)}
	}
	slices.SortStableFunc(rows, func(x, y standing) int {
		return cmp.Compare(y.total, x.total)
	})

	fmt.Fprintf(w, "\n%s\n", headerStyle.Render("Final standings"))
	for _, row := range rows {
		fmt.Fprintf(w, "  %s%s%d\n", cell(6, string(row.bot.id)), cell(14, row.bot.strategy), row.total)
	}
}

func newSimulateCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	sim := &simConfig{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Plays a session headless with scripted participants.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validateGame(); err != nil {
				return err
			}
			if err := sim.validate(); err != nil {
				return err
			}
			return runSimulation(cmd.OutOrStdout(), cfg, sim)
		},
	}

	fs := cmd.Flags()

	fs.IntVar(&sim.acceptAt, "accept-at", 2, "fewest partner stars a bot accepts (env: DILEMMA_ACCEPT_AT)")
	fs.IntVar(&sim.players, "players", 8, "number of scripted players (env: DILEMMA_PLAYERS)")
	fs.StringSliceVar(&sim.strategies, "strategy", []string{"tit-for-tat"},
		"strategies assigned to players in turn: "+strings.Join(strategyNames(), ", ")+" (env: DILEMMA_STRATEGY)")

	bindFlags(v, fs)

	return cmd
}

func strategyNames() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
