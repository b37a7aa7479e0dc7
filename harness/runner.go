package harness

import (
	"context"
	"io"
	"os/exec"
)

// Invocation is one blocking call of the external match runner.
type Invocation struct {
	Dir  string
	Name string
	Args []string
	// Output receives the runner's combined stdout and stderr. It must not
	// be the process's stdout, which carries the outcome token.
	Output io.Writer
}

// Runner executes the match runner. Implementations block until the
// process terminates.
type Runner interface {
	Run(ctx context.Context, inv Invocation) error
}

// ExecRunner runs the match runner as a subprocess.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, inv Invocation) error {
	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdout = inv.Output
	cmd.Stderr = inv.Output
	return cmd.Run()
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, inv Invocation) error

func (f RunnerFunc) Run(ctx context.Context, inv Invocation) error {
	return f(ctx, inv)
}
