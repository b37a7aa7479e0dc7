// Package series plays a fixed number of harness trials, possibly in
// parallel, and records each outcome. It is the caller side of the
// harness: retries and parallelism live here, never in a trial.
package series

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/matchharness/harness"
)

var (
	TrialCounter *expvar.Int
	IsPlaying    *expvar.Int
)

func init() {
	TrialCounter = expvar.NewInt("trialCounter")
	IsPlaying = expvar.NewInt("isPlaying")
}

var ErrAlreadyPlaying = errors.New("a series is already being played, please wait till complete")

// playing guards Run; IsPlaying only publishes it.
var playing atomic.Bool

// TrialRunner is satisfied by *harness.Harness.
type TrialRunner interface {
	RunTrial(ctx context.Context, t harness.Trial) harness.Outcome
}

type Options struct {
	Games   int
	FirstID int
	Threads int
	// Attempts is how many times a trial with an Error outcome is played
	// in total. 1 (or less) means it is never re-run.
	Attempts   uint
	RetryDelay time.Duration
	Overrides  []harness.Override
	Tag        string
}

// Result is one finished trial.
type Result struct {
	Trial    int
	Outcome  harness.Outcome
	Attempts uint
	Duration time.Duration
}

// Sink receives results one at a time from a single goroutine.
type Sink interface {
	Record(ctx context.Context, r Result) error
}

type trialError struct {
	outcome harness.Outcome
}

func (e trialError) Error() string {
	return e.outcome.String()
}

// playOne reports false when ctx was cancelled before the trial was
// played even once.
func playOne(ctx context.Context, h TrialRunner, t harness.Trial, opts Options) (Result, bool) {
	log := zerolog.Ctx(ctx)
	if ctx.Err() != nil {
		return Result{Trial: t.ID}, false
	}
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}
	res := Result{Trial: t.ID}
	started := time.Now()
	// Errors from Do are fully described by res.Outcome.
	_ = retry.Do(
		func() error {
			res.Attempts++
			res.Outcome = h.RunTrial(ctx, t)
			if res.Outcome.IsError() {
				return trialError{res.Outcome}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(opts.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Int("trial", t.ID).Uint("n", n).Err(err).Msg("replaying-trial")
		}),
	)
	res.Duration = time.Since(started)
	return res, res.Attempts > 0
}

// Run plays opts.Games trials with ids FirstID, FirstID+1, ... Ids are
// distinct so parallel trials never share a working directory. Run stops
// queueing new trials when ctx is cancelled and returns the summary of
// what was played.
func Run(ctx context.Context, h TrialRunner, opts Options, sinks ...Sink) (*Summary, error) {
	if opts.Games < 1 {
		return nil, fmt.Errorf("games must be positive, got %d", opts.Games)
	}
	if opts.FirstID < 0 {
		return nil, fmt.Errorf("%w: %d", harness.ErrNegativeTrialID, opts.FirstID)
	}
	if !playing.CompareAndSwap(false, true) {
		return nil, ErrAlreadyPlaying
	}
	IsPlaying.Set(1)
	defer func() {
		IsPlaying.Set(0)
		playing.Store(false)
	}()
	TrialCounter.Set(0)
	threads := max(opts.Threads, 1)
	log := zerolog.Ctx(ctx)
	log.Info().Int("games", opts.Games).Int("threads", threads).Msg("starting-series")

	results := make(chan Result, 100)
	summary := &Summary{}

	// Trials still finishing after a stop signal are recorded.
	recordCtx := context.WithoutCancel(ctx)
	writer := errgroup.Group{}
	writer.Go(func() error {
		var firstErr error
		for r := range results {
			summary.Add(r)
			for _, s := range sinks {
				if err := s.Record(recordCtx, r); err != nil && firstErr == nil {
					firstErr = err
				}
			}
		}
		return firstErr
	})

	players := errgroup.Group{}
	players.SetLimit(threads)
queueLoop:
	for i := 0; i < opts.Games; i++ {
		select {
		case <-ctx.Done():
			log.Info().Int("queued", i).Msg("got stop signal, not queueing more trials")
			break queueLoop
		default:
		}
		t := harness.Trial{ID: opts.FirstID + i, Overrides: opts.Overrides, Tag: opts.Tag}
		players.Go(func() error {
			res, played := playOne(ctx, h, t, opts)
			if !played {
				log.Debug().Int("trial", t.ID).Msg("trial-skipped-after-stop")
				return nil
			}
			results <- res
			TrialCounter.Add(1)
			return nil
		})
	}
	// Trial goroutines never return errors; outcomes carry them.
	_ = players.Wait()
	close(results)
	if err := writer.Wait(); err != nil {
		return summary, err
	}
	log.Info().Str("summary", summary.Line()).Msg("series-finished")
	return summary, nil
}
