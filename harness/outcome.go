package harness

import (
	"fmt"
	"strings"
)

type OutcomeKind int

const (
	Error OutcomeKind = iota
	Win
	Loss
)

const (
	ReasonIOError    = "IOError"
	ReasonUnknown    = "could not determine game result"
	ReasonBadCommand = "invalid program command"
)

// Outcome is the result of one trial from the candidate's point of view.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

func WinOutcome() Outcome  { return Outcome{Kind: Win} }
func LossOutcome() Outcome { return Outcome{Kind: Loss} }

func ErrorOutcome(reason string) Outcome {
	return Outcome{Kind: Error, Reason: reason}
}

func (o Outcome) IsError() bool {
	return o.Kind == Error
}

// String renders the single token an optimizer reads back from stdout:
// W, L or "Error: <reason>".
func (o Outcome) String() string {
	switch o.Kind {
	case Win:
		return "W"
	case Loss:
		return "L"
	}
	return fmt.Sprintf("Error: %s", o.Reason)
}

func (k OutcomeKind) String() string {
	switch k {
	case Win:
		return "win"
	case Loss:
		return "loss"
	}
	return "error"
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "W":
		return WinOutcome(), nil
	case "L":
		return LossOutcome(), nil
	}
	if reason, ok := strings.CutPrefix(s, "Error: "); ok {
		return ErrorOutcome(reason), nil
	}
	return Outcome{}, fmt.Errorf("unrecognized outcome %q", s)
}
