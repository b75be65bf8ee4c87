// Package command builds injection-safe argument vectors for the
// version-control and container tool families. Commands are always discrete
// string slices handed directly to the process, never a single interpolated
// shell string, so shell metacharacters in user-supplied values (commit
// messages, branch names, service names) stay literal data.
package command

import (
	"errors"
	"fmt"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
)

// Builder errors.
var (
	// ErrUnknownGitAction is returned for a git action outside the
	// enumerated set.
	ErrUnknownGitAction = errors.New("git action not allowed")

	// ErrUnknownDockerAction is returned for a docker action outside the
	// enumerated set.
	ErrUnknownDockerAction = errors.New("docker action not allowed")

	// ErrMissingField is returned when a required field for an action is
	// empty. The wrapped message names the missing field.
	ErrMissingField = errors.New("missing required field")
)

// GitActions is the enumerated set of permitted git actions.
var GitActions = []string{
	"add", "branch", "checkout", "commit", "diff", "fetch",
	"log", "pull", "push", "remote", "stash", "status", "tag",
}

// DockerActions is the enumerated set of permitted docker actions.
var DockerActions = []string{
	"compose_down", "compose_logs", "compose_ps", "compose_up",
	"images", "logs", "ps",
}

// GitRequest describes a git action and its optional user-supplied values.
type GitRequest struct {
	Action  string
	Message string
	Branch  string
	Files   string
}

// Git builds the argument vector for a git action. Required-field checks run
// before building: commit requires a message, checkout requires a branch.
func Git(req GitRequest) ([]string, error) {
	switch req.Action {
	case "status":
		return []string{"git", "status"}, nil
	case "log":
		return []string{"git", "log", "--oneline", "-10"}, nil
	case "diff":
		return []string{"git", "diff"}, nil
	case "branch":
		return []string{"git", "branch"}, nil
	case "add":
		files, err := splitFiles(req.Files)
		if err != nil {
			return nil, err
		}
		return append([]string{"git", "add"}, files...), nil
	case "commit":
		if strings.TrimSpace(req.Message) == "" {
			return nil, fmt.Errorf("%w: commit requires %q", ErrMissingField, "message")
		}
		return []string{"git", "commit", "-m", req.Message}, nil
	case "push":
		args := []string{"git", "push"}
		if req.Branch != "" {
			args = append(args, "origin", req.Branch)
		}
		return args, nil
	case "pull":
		args := []string{"git", "pull"}
		if req.Branch != "" {
			args = append(args, "origin", req.Branch)
		}
		return args, nil
	case "checkout":
		if strings.TrimSpace(req.Branch) == "" {
			return nil, fmt.Errorf("%w: checkout requires %q", ErrMissingField, "branch")
		}
		return []string{"git", "checkout", req.Branch}, nil
	case "stash":
		return []string{"git", "stash"}, nil
	case "fetch":
		return []string{"git", "fetch", "--all"}, nil
	case "remote":
		return []string{"git", "remote", "-v"}, nil
	case "tag":
		return []string{"git", "tag"}, nil
	default:
		return nil, fmt.Errorf("%w: %s (allowed: %s)", ErrUnknownGitAction, req.Action, strings.Join(GitActions, ", "))
	}
}

// DockerRequest describes a docker action and its optional values.
// Detach defaults to true for compose_up when nil.
type DockerRequest struct {
	Action  string
	Service string
	Detach  *bool
}

// Docker builds the argument vector for a docker or docker-compose action.
// logs requires a service name.
func Docker(req DockerRequest) ([]string, error) {
	switch req.Action {
	case "ps":
		return []string{"docker", "ps"}, nil
	case "images":
		return []string{"docker", "images"}, nil
	case "logs":
		if strings.TrimSpace(req.Service) == "" {
			return nil, fmt.Errorf("%w: logs requires %q", ErrMissingField, "service")
		}
		return []string{"docker", "logs", req.Service, "--tail", "100"}, nil
	case "compose_up":
		args := []string{"docker-compose", "up"}
		if req.Detach == nil || *req.Detach {
			args = append(args, "-d")
		}
		return args, nil
	case "compose_down":
		return []string{"docker-compose", "down"}, nil
	case "compose_ps":
		return []string{"docker-compose", "ps"}, nil
	case "compose_logs":
		args := []string{"docker-compose", "logs"}
		if req.Service != "" {
			args = append(args, req.Service)
		}
		return append(args, "--tail", "100"), nil
	default:
		return nil, fmt.Errorf("%w: %s (allowed: %s)", ErrUnknownDockerAction, req.Action, strings.Join(DockerActions, ", "))
	}
}

// splitFiles splits a user-supplied file list into discrete argv elements
// using shell-word rules, so quoted names with spaces survive as single
// elements. An empty list means the whole tree.
func splitFiles(files string) ([]string, error) {
	files = strings.TrimSpace(files)
	if files == "" {
		return []string{"."}, nil
	}
	parsed, err := shellwords.Parse(files)
	if err != nil {
		return nil, fmt.Errorf("command: parse files %q: %w", files, err)
	}
	if len(parsed) == 0 {
		return []string{"."}, nil
	}
	return parsed, nil
}
