// Package runner executes validated commands with bounded wall-clock time.
// It exposes two explicit variants with different safety guarantees: Run
// takes an argument vector handed directly to the process, RunShell takes a
// raw string parsed by a shell. RunShell is the single shell-interpreting
// execution tier and must only receive commands that already passed the
// security policy.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Runner errors.
var (
	// ErrTimeout is returned when the subprocess exceeded its wall-clock
	// bound and was terminated.
	ErrTimeout = errors.New("command timed out")

	// ErrSpawn is returned when the process could not be started at all
	// (binary missing, permission denied). Distinct from a non-zero exit.
	ErrSpawn = errors.New("command could not be started")

	// ErrEmptyArgv is returned when Run receives an empty argument vector.
	ErrEmptyArgv = errors.New("argument vector must not be empty")
)

// Result captures a completed subprocess: independently captured output
// streams, the raw exit code, and the derived success flag (exit code zero).
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Success  bool
}

// Runner executes subprocesses inside the workspace root.
type Runner struct {
	shell string
}

// New creates a Runner using /bin/sh for the shell-interpreted variant.
func New() *Runner {
	return &Runner{shell: "/bin/sh"}
}

// RunShell executes a raw command line through the shell, in dir, bounded by
// timeout. Globbing and piping inside the command work; that is exactly why
// this variant exists and why it is gated behind the command policy.
func (r *Runner) RunShell(ctx context.Context, raw, dir string, timeout time.Duration) (Result, error) {
	return r.start(ctx, dir, timeout, r.shell, "-c", raw)
}

// Run executes an argument vector directly, in dir, bounded by timeout.
// No shell is involved: metacharacters in argv elements stay literal.
func (r *Runner) Run(ctx context.Context, argv []string, dir string, timeout time.Duration) (Result, error) {
	if len(argv) == 0 {
		return Result{}, ErrEmptyArgv
	}
	return r.start(ctx, dir, timeout, argv[0], argv[1:]...)
}

func (r *Runner) start(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	//nolint:gosec // the command is validated upstream by policy or builder.
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Result{}, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("%w: %v", ErrSpawn, err)
		}
		// Non-zero exit is a regular result, not an error.
	}

	code := cmd.ProcessState.ExitCode()
	return Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: code,
		Success:  code == 0,
	}, nil
}
