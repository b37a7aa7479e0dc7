// Command series plays a number of harness trials with fixed overrides and
// summarizes the candidate's results.
//
//	series [flags] <games> [<name> <value>]...
//	series analyze <log.csv>
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

	"github.com/domino14/matchharness/config"
	"github.com/domino14/matchharness/harness"
	"github.com/domino14/matchharness/logging"
	"github.com/domino14/matchharness/series"
)

const usage = "usage: series [flags] <games> [<name> <value>]...\n       series analyze <log.csv>"

func analyze(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, usage)
		return 2
	}
	text, err := series.AnalyzeLogFile(args[0])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprint(stdout, text)
	return 0
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "analyze" {
		return analyze(args[1:], stdout, stderr)
	}
	cfg := &config.Config{}
	if err := cfg.Load(args); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	logger := logging.NewLogger(stderr, cfg.GetBool(config.ConfigDebug))
	ctx = logging.Install(ctx, logger)

	pos := cfg.Args()
	if len(pos) < 1 {
		fmt.Fprintln(stderr, usage)
		return 2
	}
	games, err := strconv.Atoi(pos[0])
	if err != nil {
		fmt.Fprintf(stderr, "bad number of games %q\n", pos[0])
		return 2
	}
	overrides, err := harness.ParseOverrides(pos[1:])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	extra, err := cfg.ExtraOverrides()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	overrides = append(extra, overrides...)

	if wd, err := os.Getwd(); err == nil {
		cfg.AdjustRelativePaths(wd)
	}
	h, err := cfg.Harness()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	var sinks []series.Sink
	if path := cfg.GetString(config.ConfigLogFile); path != "" {
		f, err := os.Create(path)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		defer f.Close()
		sinks = append(sinks, series.NewCSVSink(f))
	}
	if path := cfg.GetString(config.ConfigDB); path != "" {
		store, err := series.OpenSQLStore(path)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		defer store.Close()
		id, err := store.StartSeries(ctx, series.SeriesInfo{
			Profile:   h.Profile.Name,
			Candidate: h.Candidate.Base,
			Baseline:  h.Baseline.Base,
			Overrides: overrides,
			Games:     games,
		})
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		logger.Info().Str("series", id).Msg("recording-to-db")
		sinks = append(sinks, store)
	}

	summary, err := series.Run(ctx, h, series.Options{
		Games:     games,
		FirstID:   cfg.GetInt(config.ConfigFirstID),
		Threads:   cfg.GetInt(config.ConfigThreads),
		Attempts:  cfg.GetUint(config.ConfigAttempts),
		Overrides: overrides,
		Tag:       "series",
	}, sinks...)
	if summary != nil {
		fmt.Fprint(stdout, summary.String())
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
