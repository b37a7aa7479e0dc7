package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/domino14/matchharness/harness"
)

const (
	ConfigProfile        = "profile"
	ConfigRunner         = "runner"
	ConfigBoardSize      = "board-size"
	ConfigKomi           = "komi"
	ConfigTime           = "time"
	ConfigSGFFile        = "sgf-file"
	ConfigCandidateColor = "candidate-color"
	ConfigCandidate      = "candidate"
	ConfigBaseline       = "baseline"
	ConfigOverrides      = "overrides"
	ConfigWorkRoot       = "work-root"
	ConfigDebug          = "debug"
	ConfigThreads        = "threads"
	ConfigAttempts       = "attempts"
	ConfigFirstID        = "first-id"
	ConfigLogFile        = "log-file"
	ConfigDB             = "db"
	ConfigConfigFile     = "config"
)

const DefaultCandidate = "matilda --losing resign -m gtp -l --disable_opening_books --memory 3200"

type Config struct {
	*viper.Viper
	args []string
}

func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigProfile, harness.ProfileMatilda9x9)
	c.SetDefault(ConfigCandidate, DefaultCandidate)
	c.SetDefault(ConfigWorkRoot, ".")
	c.SetDefault(ConfigThreads, 1)
	c.SetDefault(ConfigAttempts, 1)
}

// Load parses flags, the environment (MATCHHARNESS_*) and an optional
// config file. Flag parsing stops at the first positional argument so
// override values such as "-1" are never taken for flags; the positional
// arguments are available from Args.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	c.setDefaults()

	fs := pflag.NewFlagSet("matchharness", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.String(ConfigProfile, harness.ProfileMatilda9x9, "match profile: matilda-9x9 or komi75")
	fs.String(ConfigRunner, "", "match runner executable (default from profile)")
	fs.Int(ConfigBoardSize, 0, "board size (default from profile)")
	fs.Float64(ConfigKomi, 0, "komi (default from profile)")
	fs.String(ConfigTime, "", "time budget per move, e.g. 30s; \"none\" disables it")
	fs.String(ConfigSGFFile, "", "base name of the runner's sgf/report files")
	fs.String(ConfigCandidateColor, "", "color the candidate plays: white or black")
	fs.String(ConfigCandidate, DefaultCandidate, "candidate engine command")
	fs.String(ConfigBaseline, "", "baseline engine command (default from profile)")
	fs.String(ConfigOverrides, "", "extra candidate overrides as name=value,name=value")
	fs.String(ConfigWorkRoot, ".", "directory holding the per-trial working directories")
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.Int(ConfigThreads, 1, "trials played in parallel (series only)")
	fs.Uint(ConfigAttempts, 1, "times a failed trial is played in total (series only)")
	fs.Int(ConfigFirstID, 0, "id of the first trial (series only)")
	fs.String(ConfigLogFile, "", "csv file receiving one row per trial (series only)")
	fs.String(ConfigDB, "", "sqlite database receiving results (series only)")
	fs.String(ConfigConfigFile, "", "yaml config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.args = fs.Args()

	c.SetEnvPrefix("MATCHHARNESS")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()
	if err := c.BindPFlags(fs); err != nil {
		return err
	}

	if cfgFile := c.GetString(ConfigConfigFile); cfgFile != "" {
		c.SetConfigFile(cfgFile)
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}

// Args returns the positional arguments left after flag parsing.
func (c *Config) Args() []string {
	return c.args
}

// AdjustRelativePaths resolves the work root against basedir.
func (c *Config) AdjustRelativePaths(basedir string) {
	root := c.GetString(ConfigWorkRoot)
	if !filepath.IsAbs(root) {
		c.Set(ConfigWorkRoot, filepath.Join(basedir, root))
	}
}

// MatchProfile starts from the named built-in profile and applies any
// explicitly set keys on top of it.
func (c *Config) MatchProfile() (harness.Profile, error) {
	p, err := harness.LookupProfile(c.GetString(ConfigProfile))
	if err != nil {
		return p, err
	}
	if v := c.GetString(ConfigRunner); v != "" {
		p.Runner = v
	}
	if c.IsSet(ConfigBoardSize) {
		p.BoardSize = c.GetInt(ConfigBoardSize)
	}
	// Komi 0 is legitimate, so only an explicitly given value counts.
	if c.IsSet(ConfigKomi) {
		p.Komi = c.GetFloat64(ConfigKomi)
	}
	switch v := c.GetString(ConfigTime); v {
	case "":
	case "none":
		p.TimePerMove = ""
	default:
		p.TimePerMove = v
	}
	if v := c.GetString(ConfigSGFFile); v != "" {
		p.SGFFile = v
	}
	if v := c.GetString(ConfigCandidateColor); v != "" {
		color, err := harness.ParseColor(v)
		if err != nil {
			return p, err
		}
		p.CandidateColor = color
	}
	if v := c.GetString(ConfigBaseline); v != "" {
		p.Baseline = v
	}
	return p, p.Validate()
}

// Harness builds a harness from the configuration.
func (c *Config) Harness() (*harness.Harness, error) {
	p, err := c.MatchProfile()
	if err != nil {
		return nil, err
	}
	return &harness.Harness{
		Profile:   p,
		Candidate: harness.ProgramSpec{Base: c.GetString(ConfigCandidate)},
		Baseline:  harness.ProgramSpec{Base: p.Baseline},
		WorkRoot:  c.GetString(ConfigWorkRoot),
		Runner:    harness.ExecRunner{},
	}, nil
}

// ExtraOverrides returns the overrides given through the overrides key.
func (c *Config) ExtraOverrides() ([]harness.Override, error) {
	return harness.ParseOverrideList(c.GetString(ConfigOverrides))
}
