package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/agentlow/agentlow/internal/runner"
	"github.com/agentlow/agentlow/internal/security"
	"github.com/agentlow/agentlow/internal/workspace"
)

// Timeouts are the per-tool wall-clock bounds. Container operations get a
// longer default because image pulls and compose startups are slow.
type Timeouts struct {
	Shell  time.Duration
	HTTP   time.Duration
	Git    time.Duration
	Docker time.Duration
}

// defaults fills zero values with the standard bounds.
func (t *Timeouts) defaults() {
	if t.Shell <= 0 {
		t.Shell = 30 * time.Second
	}
	if t.HTTP <= 0 {
		t.HTTP = 30 * time.Second
	}
	if t.Git <= 0 {
		t.Git = 30 * time.Second
	}
	if t.Docker <= 0 {
		t.Docker = 60 * time.Second
	}
}

// DefaultMaxFileSize bounds read_file content (10 MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// Config holds the executor's collaborators. Guard, Policy, and Runner are
// required; Audit and Metrics are optional.
type Config struct {
	Guard    *workspace.Guard
	Policy   *security.Policy
	Runner   *runner.Runner
	Audit    *security.AuditLogger
	Metrics  *Metrics
	Timeouts Timeouts

	// HTTPClient overrides the default client (testing). The per-request
	// timeout still comes from Timeouts.HTTP via the request context.
	HTTPClient *http.Client

	// MaxFileSize bounds read_file. Zero means DefaultMaxFileSize.
	MaxFileSize int64

	Logger *slog.Logger
}

// Executor dispatches named actions over the closed tool set. It is
// stateless between calls and safe for concurrent use; each invocation is
// synchronous and blocking for its caller.
type Executor struct {
	guard       *workspace.Guard
	policy      *security.Policy
	runner      *runner.Runner
	audit       *security.AuditLogger
	metrics     *Metrics
	timeouts    Timeouts
	httpClient  *http.Client
	maxFileSize int64
	logger      *slog.Logger
}

// New creates an Executor from the given configuration.
func New(cfg Config) *Executor {
	cfg.Timeouts.defaults()
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Executor{
		guard:       cfg.Guard,
		policy:      cfg.Policy,
		runner:      cfg.Runner,
		audit:       cfg.Audit,
		metrics:     cfg.Metrics,
		timeouts:    cfg.Timeouts,
		httpClient:  cfg.HTTPClient,
		maxFileSize: cfg.MaxFileSize,
		logger:      cfg.Logger,
	}
}

// ExecuteRaw parses a raw tool name and dispatches. Convenience for callers
// holding the model's string, like the CLI and the agent loop.
func (e *Executor) ExecuteRaw(ctx context.Context, name string, args json.RawMessage) Result {
	parsed, ok := ParseName(name)
	if !ok {
		return Errorf("unknown tool: %s", name)
	}
	return e.Execute(ctx, parsed, args)
}

// Execute runs one tool call and returns a uniform Result. Errors of every
// kind, including panics inside a handler, become error results: a malformed
// or hostile tool call is feedback the model should see and correct, not a
// process-fatal condition.
func (e *Executor) Execute(ctx context.Context, name Name, args json.RawMessage) (res Result) {
	start := time.Now()

	e.audit.Log(security.AuditEvent{
		Type:     security.EventToolCall,
		ToolName: string(name),
		Detail:   string(args),
	})

	defer func() {
		if r := recover(); r != nil {
			res = Errorf("panic: %v", r)
		}

		detail := "ok"
		if res.IsError() {
			detail = res.ErrorMessage()
		}
		e.audit.Log(security.AuditEvent{
			Type:     security.EventToolResult,
			ToolName: string(name),
			Detail:   detail,
			Metadata: map[string]string{"is_error": fmt.Sprintf("%v", res.IsError())},
		})
		e.metrics.observe(string(name), res.IsError(), time.Since(start))
	}()

	switch name {
	case NameShell:
		return e.shell(ctx, args)
	case NameReadFile:
		return e.readFile(args)
	case NameWriteFile:
		return e.writeFile(args)
	case NameListDirectory:
		return e.listDirectory(args)
	case NameHTTPRequest:
		return e.httpRequest(ctx, args)
	case NameGit:
		return e.git(ctx, args)
	case NameDocker:
		return e.docker(ctx, args)
	default:
		return Errorf("unknown tool: %q", string(name))
	}
}

// decodeArgs unmarshals tool arguments into dst, treating empty input as an
// empty object so required-field checks produce the specific errors.
func decodeArgs(args json.RawMessage, dst any) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
