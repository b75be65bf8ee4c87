package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/agentlow/agentlow/internal/command"
	"github.com/agentlow/agentlow/internal/runner"
	"github.com/agentlow/agentlow/internal/security"
)

type shellArgs struct {
	Cmd string `json:"cmd"`
}

// shell validates the raw command against the policy, then executes it via
// the shell-interpreting runner variant. That tier exists because the
// allowlisted verbs need shell semantics (globbing, piping) inside the
// allowed command itself; nothing reaches it without passing the policy.
func (e *Executor) shell(ctx context.Context, args json.RawMessage) Result {
	var a shellArgs
	if err := decodeArgs(args, &a); err != nil {
		return FromError(err)
	}

	token, err := e.policy.Validate(a.Cmd)
	if err != nil {
		e.audit.Log(security.AuditEvent{
			Type:   security.EventPolicyDeny,
			Detail: a.Cmd,
		})
		return FromError(err)
	}
	e.logger.Debug("tool: shell command validated", "token", token)

	res, err := e.runner.RunShell(ctx, a.Cmd, e.guard.Root(), e.timeouts.Shell)
	if err != nil {
		return runError(err)
	}

	return Success(map[string]any{
		"stdout":   res.Stdout,
		"stderr":   res.Stderr,
		"exitCode": res.ExitCode,
		"success":  res.Success,
	})
}

type gitArgs struct {
	Action  string `json:"action"`
	Message string `json:"message"`
	Branch  string `json:"branch"`
	Files   string `json:"files"`
}

// git validates the action against the enumerated family, builds an argument
// vector, and runs it without shell interpretation.
func (e *Executor) git(ctx context.Context, args json.RawMessage) Result {
	var a gitArgs
	if err := decodeArgs(args, &a); err != nil {
		return FromError(err)
	}

	argv, err := command.Git(command.GitRequest{
		Action:  a.Action,
		Message: a.Message,
		Branch:  a.Branch,
		Files:   a.Files,
	})
	if err != nil {
		return FromError(err)
	}

	return e.runVector(ctx, argv, e.timeouts.Git)
}

type dockerArgs struct {
	Action  string `json:"action"`
	Service string `json:"service"`
	Detach  *bool  `json:"detach"`
}

// docker validates the action against the enumerated family, builds an
// argument vector, and runs it without shell interpretation.
func (e *Executor) docker(ctx context.Context, args json.RawMessage) Result {
	var a dockerArgs
	if err := decodeArgs(args, &a); err != nil {
		return FromError(err)
	}

	argv, err := command.Docker(command.DockerRequest{
		Action:  a.Action,
		Service: a.Service,
		Detach:  a.Detach,
	})
	if err != nil {
		return FromError(err)
	}

	return e.runVector(ctx, argv, e.timeouts.Docker)
}

// runVector executes an argument vector and shapes the combined-output
// result the git and docker tools share.
func (e *Executor) runVector(ctx context.Context, argv []string, timeout time.Duration) Result {
	res, err := e.runner.Run(ctx, argv, e.guard.Root(), timeout)
	if err != nil {
		return runError(err)
	}

	output := res.Stdout
	if res.Stderr != "" {
		if output != "" && !strings.HasSuffix(output, "\n") {
			output += "\n"
		}
		output += res.Stderr
	}

	return Success(map[string]any{
		"output":   output,
		"exitCode": res.ExitCode,
		"success":  res.Success,
	})
}

// runError maps runner errors to result errors, keeping timeout and spawn
// failures distinguishable in the message.
func runError(err error) Result {
	switch {
	case errors.Is(err, runner.ErrTimeout):
		return Errorf("command timed out: %v", err)
	case errors.Is(err, runner.ErrSpawn):
		return Errorf("command failed to start: %v", err)
	default:
		return FromError(err)
	}
}
