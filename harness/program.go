package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"
)

// quoteChar encloses a program command line when it is shown as one
// token. It must never appear inside the command itself.
const quoteChar = `"`

var (
	ErrQuoteInCommand = errors.New("program command contains a quote character")
	ErrEmptyProgram   = errors.New("program command is empty")
)

// ProgramSpec is a GTP engine invocation: executable path plus fixed
// flags. Overrides are appended as `--set <name> <value>`.
type ProgramSpec struct {
	Base string `yaml:"base"`
}

func setFlags(overrides []Override) []string {
	return lo.FlatMap(overrides, func(o Override, _ int) []string {
		return []string{"--set", o.Name, o.Value}
	})
}

// Validate checks the preconditions for handing the command to the match
// runner as a single token.
func (p ProgramSpec) Validate(overrides []Override) error {
	words, err := shellquote.Split(p.Base)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", p.Base, err)
	}
	if len(words) == 0 {
		return ErrEmptyProgram
	}
	if strings.Contains(p.Base, quoteChar) {
		return fmt.Errorf("%w: %q", ErrQuoteInCommand, p.Base)
	}
	for _, o := range overrides {
		if strings.Contains(o.Name, quoteChar) || strings.Contains(o.Value, quoteChar) {
			return fmt.Errorf("%w: override %q=%q", ErrQuoteInCommand, o.Name, o.Value)
		}
	}
	return nil
}

// Args returns the engine's argv: the base invocation split with shell
// word rules, followed by the override flags in order.
func (p ProgramSpec) Args(overrides []Override) ([]string, error) {
	words, err := shellquote.Split(p.Base)
	if err != nil {
		return nil, err
	}
	return append(words, setFlags(overrides)...), nil
}

// CommandLine is the string the match runner receives for this program.
// The runner splits it itself, so no shell quoting is applied.
func (p ProgramSpec) CommandLine(overrides []Override) string {
	parts := append([]string{strings.TrimSpace(p.Base)}, setFlags(overrides)...)
	return strings.Join(parts, " ")
}

// Quoted wraps the command line in one pair of quotes, the form used when
// the runner invocation is written out as a single shell line.
func (p ProgramSpec) Quoted(overrides []Override) string {
	return quoteChar + p.CommandLine(overrides) + quoteChar
}
