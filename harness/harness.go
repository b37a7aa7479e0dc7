// Package harness runs a single isolated match between a candidate GTP
// engine and a fixed baseline through an external match runner
// (gogui-twogtp), and reports the result as W, L or an error line.
package harness

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const RunnerLogFile = "runner.log"

// Harness holds everything a trial needs. It keeps no state between
// trials.
type Harness struct {
	Profile   Profile
	Candidate ProgramSpec
	Baseline  ProgramSpec
	WorkRoot  string
	Runner    Runner
}

// Commands returns the white and black command lines for a trial.
func (h *Harness) Commands(t Trial) (white, black string) {
	cand := h.Candidate.CommandLine(t.Overrides)
	base := h.Baseline.CommandLine(nil)
	if h.Profile.CandidateColor == Black {
		return base, cand
	}
	return cand, base
}

// CommandString renders the runner invocation as one shell line with each
// program command enclosed in quotes. It is for logs and manifests only;
// the runner is never started through a shell.
func (h *Harness) CommandString(t Trial) string {
	cand := h.Candidate.Quoted(t.Overrides)
	base := h.Baseline.Quoted(nil)
	white, black := cand, base
	if h.Profile.CandidateColor == Black {
		white, black = base, cand
	}
	return strings.Join(append([]string{h.Profile.Runner}, h.Profile.RunnerArgs(white, black)...), " ")
}

// RunTrial plays one game and returns its outcome. It never retries and
// never returns a Go error; every failure is folded into an Error outcome.
func (h *Harness) RunTrial(ctx context.Context, t Trial) Outcome {
	log := zerolog.Ctx(ctx).With().Int("trial", t.ID).Str("tag", t.Tag).Logger()

	if err := t.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid-trial")
		return ErrorOutcome(err.Error())
	}
	if err := h.Profile.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid-profile")
		return ErrorOutcome(err.Error())
	}
	if err := h.Candidate.Validate(t.Overrides); err != nil {
		log.Error().Err(err).Msg("invalid-candidate")
		return ErrorOutcome(ReasonBadCommand)
	}
	argv, err := h.Candidate.Args(t.Overrides)
	if err != nil {
		log.Error().Err(err).Msg("invalid-candidate")
		return ErrorOutcome(ReasonBadCommand)
	}
	if err := h.Baseline.Validate(nil); err != nil {
		log.Error().Err(err).Msg("invalid-baseline")
		return ErrorOutcome(ReasonBadCommand)
	}

	dir, err := PrepareWorkdir(h.WorkRoot, t.ID)
	if err != nil {
		log.Error().Err(err).Msg("prepare-workdir-failed")
		return ErrorOutcome(err.Error())
	}

	white, black := h.Commands(t)
	args := h.Profile.RunnerArgs(white, black)
	command := h.CommandString(t)
	log.Debug().Str("dir", dir).Str("command", command).Strs("candidate-argv", argv).Msg("starting-match")

	runner := h.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	var output bytes.Buffer
	started := time.Now()
	runErr := runner.Run(ctx, Invocation{
		Dir:    dir,
		Name:   h.Profile.Runner,
		Args:   args,
		Output: &output,
	})
	elapsed := time.Since(started)
	if runErr != nil {
		// The exit status is not interpreted; the report decides.
		log.Warn().Err(runErr).Msg("runner-exited-with-error")
	}

	outcome := ReadReport(filepath.Join(dir, h.Profile.ReportFile()), h.Profile.CandidateColor)
	log.Info().Str("outcome", outcome.String()).Dur("elapsed", elapsed).Msg("match-finished")

	if output.Len() > 0 {
		if err := os.WriteFile(filepath.Join(dir, RunnerLogFile), output.Bytes(), 0o644); err != nil {
			log.Warn().Err(err).Msg("could-not-write-runner-log")
		}
	}
	m := &Manifest{
		Trial:         t.ID,
		Tag:           t.Tag,
		Profile:       h.Profile,
		Overrides:     t.Overrides,
		Candidate:     h.Candidate.CommandLine(t.Overrides),
		Baseline:      h.Baseline.CommandLine(nil),
		CandidateArgv: argv,
		Command:       command,
		Args:          args,
		Outcome:       outcome.String(),
		Started:       started,
		Duration:      elapsed.String(),
	}
	if runErr != nil {
		m.RunnerErr = runErr.Error()
	}
	if err := WriteManifest(dir, m); err != nil {
		log.Warn().Err(err).Msg("could-not-write-manifest")
	}
	return outcome
}
