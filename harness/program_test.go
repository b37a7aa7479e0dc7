package harness

import (
	"errors"
	"strings"
	"testing"

	"github.com/kballard/go-shellquote"
	"github.com/matryer/is"
)

const matildaBase = "matilda --losing resign -m gtp -l --disable_opening_books --memory 3200"

func TestCandidateCommandLine(t *testing.T) {
	is := is.New(t)
	p := ProgramSpec{Base: matildaBase}
	overrides := []Override{{"playouts", "1000"}, {"resign", "false"}}

	line := p.CommandLine(overrides)
	is.Equal(line, matildaBase+" --set playouts 1000 --set resign false")
	is.True(strings.HasPrefix(line, matildaBase))

	args, err := p.Args(overrides)
	is.NoErr(err)
	is.Equal(args[len(args)-6:], []string{"--set", "playouts", "1000", "--set", "resign", "false"})
	is.Equal(args[0], "matilda")
}

func TestBaselineHasNoOverrides(t *testing.T) {
	is := is.New(t)
	h := &Harness{
		Profile:   Profiles[ProfileMatilda9x9],
		Candidate: ProgramSpec{Base: matildaBase},
		Baseline:  ProgramSpec{Base: "matilda-old -m gtp"},
	}
	tr := Trial{ID: 3, Overrides: []Override{{"playouts", "1000"}, {"resign", "false"}}}
	white, black := h.Commands(tr)
	is.Equal(white, matildaBase+" --set playouts 1000 --set resign false")
	is.Equal(black, "matilda-old -m gtp")
	is.True(!strings.Contains(black, "--set"))

	h.Profile.CandidateColor = Black
	white, black = h.Commands(tr)
	is.Equal(white, "matilda-old -m gtp")
	is.True(strings.HasSuffix(black, "--set resign false"))
}

func TestQuotedIsSingleToken(t *testing.T) {
	is := is.New(t)
	p := ProgramSpec{Base: "/opt/go engines/matilda -m gtp"}
	overrides := []Override{{"playouts", "1000"}}
	is.NoErr(p.Validate(overrides))

	q := p.Quoted(overrides)
	words, err := shellquote.Split(q)
	is.NoErr(err)
	is.Equal(len(words), 1)
	is.Equal(words[0], p.CommandLine(overrides))
}

func TestValidateRejectsQuotes(t *testing.T) {
	is := is.New(t)
	err := ProgramSpec{Base: `matilda -d "my data"`}.Validate(nil)
	is.True(errors.Is(err, ErrQuoteInCommand))

	err = ProgramSpec{Base: "matilda"}.Validate([]Override{{"name", `a"b`}})
	is.True(errors.Is(err, ErrQuoteInCommand))

	err = ProgramSpec{Base: "   "}.Validate(nil)
	is.True(errors.Is(err, ErrEmptyProgram))

	err = ProgramSpec{Base: "matilda 'unterminated"}.Validate(nil)
	is.True(err != nil)
}

func TestCommandString(t *testing.T) {
	is := is.New(t)
	h := &Harness{
		Profile:   Profiles[ProfileMatilda9x9],
		Candidate: ProgramSpec{Base: "matilda -m gtp"},
		Baseline:  ProgramSpec{Base: "matilda-old -m gtp"},
	}
	tr := Trial{ID: 1, Overrides: []Override{{"playouts", "1000"}}}
	is.Equal(h.CommandString(tr),
		`gogui-twogtp -size 9 -komi 4.5 -white "matilda -m gtp --set playouts 1000" -black "matilda-old -m gtp" -sgffile twogtp.sgf -games 1 -auto -time 30s`)

	words, err := shellquote.Split(h.CommandString(tr))
	is.NoErr(err)
	is.Equal(words[6], "matilda -m gtp --set playouts 1000")
	is.Equal(words[8], "matilda-old -m gtp")
}

func TestRunnerArgsWithoutTimeBudget(t *testing.T) {
	is := is.New(t)
	p := Profiles[ProfileKomi75]
	args := p.RunnerArgs("w", "b")
	is.Equal(args, []string{
		"-size", "9", "-komi", "7.5", "-white", "w", "-black", "b",
		"-sgffile", "twogtp.sgf", "-games", "1", "-auto",
	})
}
