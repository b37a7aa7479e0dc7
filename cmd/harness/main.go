// Command harness plays one game between a candidate GTP engine and a
// baseline through gogui-twogtp and prints W, L or "Error: ..." as its
// only line of output. It is meant to be called by an optimizer such as
// CLOP:
//
//	harness [flags] <processor> <trial id> [<name> <value>]...
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/domino14/matchharness/config"
	"github.com/domino14/matchharness/harness"
	"github.com/domino14/matchharness/logging"
)

var GitVersion string

const usage = "usage: harness [flags] <processor> <trial id> [<name> <value>]..."

// parseTrial turns the positional arguments into a trial.
func parseTrial(args []string) (harness.Trial, error) {
	if len(args) < 2 {
		return harness.Trial{}, errors.New(usage)
	}
	id, err := strconv.Atoi(args[1])
	if err != nil {
		return harness.Trial{}, fmt.Errorf("bad trial id %q: %w", args[1], err)
	}
	overrides, err := harness.ParseOverrides(args[2:])
	if err != nil {
		return harness.Trial{}, err
	}
	t := harness.Trial{ID: id, Overrides: overrides, Tag: args[0]}
	return t, t.Validate()
}

// run returns the process exit code. stdout receives exactly one line
// whenever a trial was attempted.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg := &config.Config{}
	if err := cfg.Load(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(stderr, usage)
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	logger := logging.NewLogger(stderr, cfg.GetBool(config.ConfigDebug))
	ctx = logging.Install(ctx, logger)

	trial, err := parseTrial(cfg.Args())
	if err != nil {
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr, usage)
		return 2
	}
	extra, err := cfg.ExtraOverrides()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	// Configured overrides come first; the optimizer's own ones follow
	// and win with order-sensitive engines.
	trial.Overrides = append(extra, trial.Overrides...)

	if wd, err := os.Getwd(); err == nil {
		cfg.AdjustRelativePaths(wd)
	}
	logger.Debug().Interface("config", cfg.AllSettings()).Str("version", GitVersion).Msg("loaded-config")

	var outcome harness.Outcome
	h, err := cfg.Harness()
	if err != nil {
		logger.Error().Err(err).Msg("bad-configuration")
		outcome = harness.ErrorOutcome(err.Error())
	} else {
		outcome = h.RunTrial(ctx, trial)
	}
	fmt.Fprintln(stdout, outcome.String())
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
