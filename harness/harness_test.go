package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

// fakeRunner stands in for gogui-twogtp: it records what it was asked to
// run and writes a report with the given result line.
type fakeRunner struct {
	result   string
	writeDat bool
	err      error

	calls    []Invocation
	dirFiles [][]string
}

func (f *fakeRunner) Run(ctx context.Context, inv Invocation) error {
	f.calls = append(f.calls, inv)
	entries, err := os.ReadDir(inv.Dir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	f.dirFiles = append(f.dirFiles, names)

	fmt.Fprintln(inv.Output, "fake runner output")
	if f.writeDat {
		err := os.WriteFile(filepath.Join(inv.Dir, DefaultSGFFile+".dat"),
			[]byte(reportWithResult(f.result)), 0o644)
		if err != nil {
			return err
		}
	}
	return f.err
}

func newTestHarness(t *testing.T, r Runner) *Harness {
	return &Harness{
		Profile:   Profiles[ProfileMatilda9x9],
		Candidate: ProgramSpec{Base: matildaBase},
		Baseline:  ProgramSpec{Base: "matilda-old -m gtp"},
		WorkRoot:  t.TempDir(),
		Runner:    r,
	}
}

func TestRunTrialOutcomes(t *testing.T) {
	is := is.New(t)
	type testcase struct {
		result   string
		writeDat bool
		expected string
	}
	cases := []testcase{
		{"0\tW+3.5\tW+3.5", true, "W"},
		{"0\tB+7.5\tB+7.5", true, "L"},
		{"Black terminated unexpectedly", true, "Error: Black terminated unexpectedly"},
		{"0\t?\t?", true, "Error: could not determine game result"},
		{"", false, "Error: IOError"},
	}
	for i, tc := range cases {
		r := &fakeRunner{result: tc.result, writeDat: tc.writeDat}
		h := newTestHarness(t, r)
		o := h.RunTrial(context.Background(), Trial{ID: i})
		is.Equal(o.String(), tc.expected)
		is.Equal(len(r.calls), 1)
	}
}

func TestRunTrialInvocation(t *testing.T) {
	is := is.New(t)
	r := &fakeRunner{result: "W+1.5", writeDat: true}
	h := newTestHarness(t, r)
	tr := Trial{ID: 7, Tag: "cpu-3", Overrides: []Override{{"playouts", "1000"}, {"resign", "false"}}}

	o := h.RunTrial(context.Background(), tr)
	is.Equal(o, WinOutcome())

	inv := r.calls[0]
	is.Equal(inv.Name, "gogui-twogtp")
	is.Equal(inv.Dir, TrialDir(h.WorkRoot, 7))
	is.Equal(inv.Args, []string{
		"-size", "9", "-komi", "4.5",
		"-white", matildaBase + " --set playouts 1000 --set resign false",
		"-black", "matilda-old -m gtp",
		"-sgffile", "twogtp.sgf", "-games", "1", "-auto", "-time", "30s",
	})

	m, err := ReadManifest(inv.Dir)
	is.NoErr(err)
	is.Equal(m.Trial, 7)
	is.Equal(m.Tag, "cpu-3")
	is.Equal(m.Outcome, "W")
	is.Equal(m.Overrides, tr.Overrides)
	is.Equal(m.Profile.CandidateColor, White)
	is.Equal(m.CandidateArgv, []string{
		"matilda", "--losing", "resign", "-m", "gtp", "-l", "--disable_opening_books",
		"--memory", "3200", "--set", "playouts", "1000", "--set", "resign", "false",
	})

	logged, err := os.ReadFile(filepath.Join(inv.Dir, RunnerLogFile))
	is.NoErr(err)
	is.Equal(string(logged), "fake runner output\n")
}

func TestRunTrialCandidateAsBlack(t *testing.T) {
	is := is.New(t)
	r := &fakeRunner{result: "B+R", writeDat: true}
	h := newTestHarness(t, r)
	h.Profile.CandidateColor = Black

	o := h.RunTrial(context.Background(), Trial{ID: 1, Overrides: []Override{{"playouts", "50"}}})
	is.Equal(o, WinOutcome())
	is.Equal(r.calls[0].Args[5], "matilda-old -m gtp")
	is.Equal(r.calls[0].Args[7], matildaBase+" --set playouts 50")
}

func TestRunTrialFreshWorkdir(t *testing.T) {
	is := is.New(t)
	r := &fakeRunner{result: "W+3.5", writeDat: true}
	h := newTestHarness(t, r)

	o := h.RunTrial(context.Background(), Trial{ID: 4})
	is.Equal(o, WinOutcome())
	dir := TrialDir(h.WorkRoot, 4)
	is.NoErr(os.WriteFile(filepath.Join(dir, "leftover.sgf"), []byte("(;)"), 0o644))

	o = h.RunTrial(context.Background(), Trial{ID: 4})
	is.Equal(o, WinOutcome())
	is.Equal(len(r.dirFiles), 2)
	is.Equal(len(r.dirFiles[0]), 0)
	is.Equal(len(r.dirFiles[1]), 0) // nothing from the first run survives
}

func TestRunTrialRunnerFailure(t *testing.T) {
	is := is.New(t)
	// A runner that cannot even start leaves no report behind.
	r := &fakeRunner{err: errors.New("exec: \"gogui-twogtp\": executable file not found in $PATH")}
	h := newTestHarness(t, r)

	o := h.RunTrial(context.Background(), Trial{ID: 2})
	is.Equal(o.String(), "Error: IOError")

	m, err := ReadManifest(TrialDir(h.WorkRoot, 2))
	is.NoErr(err)
	is.True(m.RunnerErr != "")
}

func TestRunTrialExitCodeIgnored(t *testing.T) {
	is := is.New(t)
	r := &fakeRunner{result: "B+0.5", writeDat: true, err: errors.New("exit status 1")}
	h := newTestHarness(t, r)
	is.Equal(h.RunTrial(context.Background(), Trial{ID: 0}), LossOutcome())
}

func TestRunTrialRejectsBadInput(t *testing.T) {
	is := is.New(t)
	r := &fakeRunner{result: "W+3.5", writeDat: true}
	h := newTestHarness(t, r)

	o := h.RunTrial(context.Background(), Trial{ID: -1})
	is.True(o.IsError())

	o = h.RunTrial(context.Background(), Trial{ID: 1, Overrides: []Override{{"name", `"quoted"`}}})
	is.Equal(o, ErrorOutcome(ReasonBadCommand))
	is.Equal(len(r.calls), 0)
}

func TestRunTrialWithRunnerFunc(t *testing.T) {
	is := is.New(t)
	var seen string
	h := newTestHarness(t, RunnerFunc(func(ctx context.Context, inv Invocation) error {
		seen = inv.Dir
		return os.WriteFile(filepath.Join(inv.Dir, "twogtp.sgf.dat"),
			[]byte(reportWithResult("W+R")), 0o644)
	}))
	is.Equal(h.RunTrial(context.Background(), Trial{ID: 12}), WinOutcome())
	is.Equal(filepath.Base(seen), "trial-12")
}
