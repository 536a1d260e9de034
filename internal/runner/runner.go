// Where: internal/runner/runner.go
// What: Subprocess execution abstraction.
// Why: Let every component shell out through one swappable interface.
package runner

import (
	"context"
	"os"
	"os/exec"
)

// CommandRunner defines the interface for executing external commands.
// Dir may be empty to run in the current working directory.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
	RunOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error)
	RunQuiet(ctx context.Context, dir, name string, args ...string) error
}

// ExecRunner is a concrete implementation of CommandRunner using os/exec.
// Stdout/stderr of Run are streamed to the parent process so installer and
// build output stays visible.
type ExecRunner struct{}

func (r ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (r ExecRunner) RunOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

func (r ExecRunner) RunQuiet(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.Run()
}

// LookPath reports whether the named executable resolves on the current
// search path. Swappable for tests.
var LookPath = func(name string) (string, error) {
	return exec.LookPath(name)
}
