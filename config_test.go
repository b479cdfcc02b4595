/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/dilemma/games/ipd"
)

func validConfig() *Config {
	return &Config{
		bind:             "127.0.0.1",
		port:             8080,
		rounds:           10,
		continuationProb: 0.8,
		payoffs:          []int{4, 4, 0, 5, 5, 0, 1, 1},
		sessionTimeout:   time.Hour,
		playerTimeout:    time.Minute,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"cert without key", func(c *Config) { c.tlsCert = "cert.pem" }, false},
		{"port too low", func(c *Config) { c.port = 0 }, false},
		{"port too high", func(c *Config) { c.port = 70000 }, false},
		{"no rounds", func(c *Config) { c.rounds = 0 }, false},
		{"probability above one", func(c *Config) { c.continuationProb = 1.5 }, false},
		{"probability below zero", func(c *Config) { c.continuationProb = -0.1 }, false},
		{"probability one", func(c *Config) { c.continuationProb = 1 }, true},
		{"short payoff table", func(c *Config) { c.payoffs = []int{1, 2, 3} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestConfigGameConfig(t *testing.T) {
	cfg := validConfig()
	cfg.rounds = 3
	cfg.payoffs = []int{3, 3, 0, 5, 5, 0, 1, 1}

	game, err := cfg.gameConfig()
	require.NoError(t, err)

	assert.Equal(t, 3, game.Rounds)
	assert.Equal(t, 0.8, game.ContinuationProb)

	out, err := game.Payoffs.Lookup(ipd.Cooperate, ipd.Cooperate)
	require.NoError(t, err)
	assert.Equal(t, ipd.Outcome{3, 3}, out)
}

func TestConfigScheme(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "http", cfg.scheme())

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	assert.Equal(t, "https", cfg.scheme())
}

func TestConfigSeed(t *testing.T) {
	cfg := validConfig()
	cfg.seed = 42
	assert.Equal(t, uint64(42), cfg.newSeed())
}

func TestFlagsFromEnvironment(t *testing.T) {
	t.Setenv("DILEMMA_ROUNDS", "3")
	t.Setenv("DILEMMA_CONTINUATION_PROB", "0.5")
	t.Setenv("DILEMMA_PAYOFFS", "3,3,0,5,5,0,1,1")
	t.Setenv("DILEMMA_CORS_ORIGIN", "https://a.example,https://b.example")

	cfg := &Config{}
	newCmd(cfg)

	assert.Equal(t, 3, cfg.rounds)
	assert.Equal(t, 0.5, cfg.continuationProb)
	assert.Equal(t, []int{3, 3, 0, 5, 5, 0, 1, 1}, cfg.payoffs)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.corsOrigins)
	assert.Equal(t, 8080, cfg.port)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("DILEMMA_ROUNDS", "3")

	cfg := &Config{}
	cmd := newCmd(cfg)
	require.NoError(t, cmd.ParseFlags([]string{"--rounds", "5"}))

	assert.Equal(t, 5, cfg.rounds)
}
