/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simulate(t *testing.T, cfg *Config, sim *simConfig) string {
	t.Helper()

	require.NoError(t, sim.validate())

	var buf bytes.Buffer
	require.NoError(t, runSimulation(&buf, cfg, sim))
	return buf.String()
}

func TestSimulateIsReproducible(t *testing.T) {
	cfg := validConfig()
	cfg.seed = 7
	sim := &simConfig{players: 6, strategies: []string{"tit-for-tat", "random", "defect"}, acceptAt: 2}

	first := simulate(t, cfg, sim)
	second := simulate(t, cfg, sim)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "Round 10")
	assert.Contains(t, first, "Final standings")
}

func TestSimulateCooperatorsStayTogether(t *testing.T) {
	cfg := validConfig()
	cfg.seed = 3
	cfg.rounds = 3
	cfg.continuationProb = 1
	sim := &simConfig{players: 4, strategies: []string{"cooperate"}, acceptAt: 0}

	out := simulate(t, cfg, sim)

	assert.Equal(t, 2, strings.Count(out, " new "))
	assert.Equal(t, 4, strings.Count(out, " kept "))
	assert.Len(t, regexp.MustCompile(`p0\d\s+cooperate\s+12\n`).FindAllString(out, -1), 4)
}

func TestSimulateRejectedDefectorsNeverPlay(t *testing.T) {
	cfg := validConfig()
	cfg.seed = 1
	cfg.rounds = 3
	sim := &simConfig{players: 2, strategies: []string{"cooperate", "defect"}, acceptAt: 2}

	out := simulate(t, cfg, sim)

	assert.Equal(t, 3, strings.Count(out, "no match"))
	assert.Regexp(t, `p01\s+cooperate\s+0\n`, out)
	assert.Regexp(t, `p02\s+defect\s+0\n`, out)
}

func TestSimConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		sim  simConfig
		ok   bool
	}{
		{"valid", simConfig{players: 4, strategies: []string{"random"}, acceptAt: 3}, true},
		{"odd players", simConfig{players: 3, strategies: []string{"random"}}, false},
		{"too few players", simConfig{players: 0, strategies: []string{"random"}}, false},
		{"unknown strategy", simConfig{players: 2, strategies: []string{"grudger"}}, false},
		{"no strategy", simConfig{players: 2}, false},
		{"threshold too high", simConfig{players: 2, strategies: []string{"random"}, acceptAt: 7}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sim.validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSimulateCommand(t *testing.T) {
	cfg := &Config{}
	cmd := newCmd(cfg)

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"simulate", "--players", "4", "--rounds", "2", "--seed", "9", "--strategy", "cooperate"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Simulating 4 players, 2 rounds")
	assert.Contains(t, buf.String(), "Round 2")
}
