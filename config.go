/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/dilemma/games/ipd"
)

type Config struct {
	bind             string
	continuationProb float64
	corsOrigins      []string
	databaseURL      string
	payoffs          []int
	playerTimeout    time.Duration
	port             int
	prefix           string
	profile          bool
	rounds           int
	seed             int64
	sessionTimeout   time.Duration
	tlsCert          string
	tlsKey           string
	verbose          bool
	version          bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	return c.validateGame()
}

func (c *Config) validateGame() error {
	if c.rounds < 1 {
		return fmt.Errorf("invalid round count (must be at least 1): %d", c.rounds)
	}
	if c.continuationProb < 0 || c.continuationProb > 1 {
		return fmt.Errorf("invalid continuation probability (must be between 0-1 inclusive): %v", c.continuationProb)
	}
	if len(c.payoffs) != 8 {
		return fmt.Errorf("invalid payoff table (need 8 values in CC,CD,DC,DD order): %v", c.payoffs)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// gameConfig converts the flags into the constants a session runs with.
func (c *Config) gameConfig() (ipd.Config, error) {
	table, err := ipd.NewPayoffTable(c.payoffs)
	if err != nil {
		return ipd.Config{}, err
	}

	gc := ipd.Config{
		Rounds:           c.rounds,
		ContinuationProb: c.continuationProb,
		Payoffs:          table,
	}
	return gc, gc.Validate()
}

// newSeed returns the configured seed, or a time-based one when unset.
func (c *Config) newSeed() uint64 {
	if c.seed != 0 {
		return uint64(c.seed)
	}
	return uint64(time.Now().UnixNano())
}

// bindFlags mirrors every flag in fs to an environment variable. Values set
// in the environment replace the flag default; the command line still wins.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, envValue(v.Get(f.Name)))
		}
	})
}

func envValue(val any) string {
	switch t := val.(type) {
	case []string:
		return strings.Join(t, ",")
	case []int:
		parts := make([]string, len(t))
		for i, n := range t {
			parts[i] = fmt.Sprint(n)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", val)
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("DILEMMA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func newCmd(cfg *Config) *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:           "dilemma",
		Short:         "Hosts partner-choice iterated Prisoner's Dilemma experiments over websockets.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	pfs := cmd.PersistentFlags()

	pfs.Float64Var(&cfg.continuationProb, "continuation-prob", 0.8, "probability a matched pair stays together after a round (env: DILEMMA_CONTINUATION_PROB)")
	pfs.IntSliceVar(&cfg.payoffs, "payoffs", []int{4, 4, 0, 5, 5, 0, 1, 1}, "payoff table as CC,CD,DC,DD pairs (env: DILEMMA_PAYOFFS)")
	pfs.IntVar(&cfg.rounds, "rounds", 10, "number of rounds per session (env: DILEMMA_ROUNDS)")
	pfs.Int64Var(&cfg.seed, "seed", 0, "seed for matching and continuation draws, 0 for time-based (env: DILEMMA_SEED)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: DILEMMA_VERBOSE)")

	fs := cmd.Flags()

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: DILEMMA_BIND)")
	fs.StringSliceVar(&cfg.corsOrigins, "cors-origin", nil, "origins allowed to fetch session exports (env: DILEMMA_CORS_ORIGIN)")
	fs.StringVar(&cfg.databaseURL, "database-url", "", "postgres url for round history, in-memory if unset (env: DILEMMA_DATABASE_URL)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", 10*time.Minute, "time before disconnected lobby players are removed (env: DILEMMA_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: DILEMMA_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: DILEMMA_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: DILEMMA_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle sessions are ended (env: DILEMMA_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: DILEMMA_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: DILEMMA_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: DILEMMA_VERSION)")

	bindFlags(v, pfs)
	bindFlags(v, fs)

	cmd.AddCommand(newSimulateCmd(cfg, v))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("dilemma v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
