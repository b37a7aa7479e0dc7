package harness

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNegativeTrialID  = errors.New("trial id must be non-negative")
	ErrUnpairedOverride = errors.New("override name without a value")
)

// Override is a single engine option set on the candidate's command line
// as `--set <Name> <Value>`.
type Override struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Trial identifies one match execution. The order of Overrides is kept
// verbatim on the candidate's command line; some engines parse options
// in order.
type Trial struct {
	ID        int
	Overrides []Override
	// Tag is free-form metadata from the caller (the optimizer's
	// processor name). It is never used to compute the outcome.
	Tag string
}

// ParseOverrides consumes name/value pairs.
func ParseOverrides(args []string) ([]Override, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnpairedOverride, args[len(args)-1])
	}
	overrides := make([]Override, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		overrides = append(overrides, Override{Name: args[i], Value: args[i+1]})
	}
	return overrides, nil
}

// ParseOverrideList parses a comma-separated `name=value` list, which is
// how overrides are given in config files and environment variables.
func ParseOverrideList(s string) ([]Override, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var overrides []Override
	for _, kv := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(kv), "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnpairedOverride, kv)
		}
		overrides = append(overrides, Override{Name: name, Value: value})
	}
	return overrides, nil
}

func (t Trial) Validate() error {
	if t.ID < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeTrialID, t.ID)
	}
	return nil
}
