package tool

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentlow/agentlow/internal/runner"
	"github.com/agentlow/agentlow/internal/security"
	"github.com/agentlow/agentlow/internal/workspace"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()

	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatalf("workspace.New: %v", err)
	}
	guard, err := workspace.NewGuard(ws)
	if err != nil {
		t.Fatalf("workspace.NewGuard: %v", err)
	}

	return New(Config{
		Guard:  guard,
		Policy: security.NewPolicy(nil, nil),
		Runner: runner.New(),
	})
}

func rawArgs(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	return b
}

func TestExecuteUnknownTool(t *testing.T) {
	t.Parallel()
	e := newTestExecutor(t)

	res := e.ExecuteRaw(context.Background(), "teleport", nil)
	if !res.IsError() {
		t.Fatal("expected error result for unknown tool")
	}
	if got := res.ErrorMessage(); !strings.Contains(got, "unknown tool: teleport") {
		t.Errorf("error = %q, want mention of unknown tool", got)
	}
}

// Execute called directly with a Name outside the known set, including the
// zero value, falls through to the error result rather than a handler.
func TestExecuteUnrecognizedName(t *testing.T) {
	t.Parallel()
	e := newTestExecutor(t)

	for _, name := range []Name{NameUnknown, Name("teleport")} {
		res := e.Execute(context.Background(), name, nil)
		if !res.IsError() {
			t.Fatalf("Execute(%q): expected error result", string(name))
		}
		if got := res.ErrorMessage(); !strings.Contains(got, "unknown tool") {
			t.Errorf("Execute(%q) error = %q, want mention of unknown tool", string(name), got)
		}
	}
}

func TestWriteThenReadRoundtrip(t *testing.T) {
	t.Parallel()
	e := newTestExecutor(t)
	ctx := context.Background()

	res := e.Execute(ctx, NameWriteFile, rawArgs(t, map[string]any{
		"path":    "sub/dir/f.txt",
		"content": "data",
	}))
	if res.IsError() {
		t.Fatalf("write_file: %s", res.ErrorMessage())
	}
	if got, _ := res.Get("bytesWritten"); got != 4 {
		t.Errorf("bytesWritten = %v, want 4", got)
	}

	res = e.Execute(ctx, NameReadFile, rawArgs(t, map[string]any{"path": "sub/dir/f.txt"}))
	if res.IsError() {
		t.Fatalf("read_file: %s", res.ErrorMessage())
	}
	if got, _ := res.Get("content"); got != "data" {
		t.Errorf("content = %v, want %q", got, "data")
	}
	if got, _ := res.Get("size"); got != 4 {
		t.Errorf("size = %v, want 4", got)
	}
	if got, _ := res.Get("lineCount"); got != 1 {
		t.Errorf("lineCount = %v, want 1", got)
	}
}

func TestListDirectory(t *testing.T) {
	t.Parallel()
	e := newTestExecutor(t)
	ctx := context.Background()

	for _, p := range []string{"sub/inner.txt", "top.txt"} {
		res := e.Execute(ctx, NameWriteFile, rawArgs(t, map[string]any{
			"path":    p,
			"content": "x",
		}))
		if res.IsError() {
			t.Fatalf("write_file %s: %s", p, res.ErrorMessage())
		}
	}

	res := e.Execute(ctx, NameListDirectory, rawArgs(t, map[string]any{"path": "."}))
	if res.IsError() {
		t.Fatalf("list_directory: %s", res.ErrorMessage())
	}

	items, _ := res.Get("items")
	entries, ok := items.([]listEntry)
	if !ok {
		t.Fatalf("items has type %T, want []listEntry", items)
	}

	byName := map[string]listEntry{}
	for _, it := range entries {
		byName[it.Name] = it
	}
	if e, ok := byName["sub"]; !ok || e.Type != "dir" || e.Size != nil {
		t.Errorf("sub = %+v, want dir entry with null size", e)
	}
	if e, ok := byName["top.txt"]; !ok || e.Type != "file" || e.Size == nil || *e.Size != 1 {
		t.Errorf("top.txt = %+v, want file entry of size 1", e)
	}
}

func TestReadFileNotFound(t *testing.T) {
	t.Parallel()
	e := newTestExecutor(t)

	res := e.Execute(context.Background(), NameReadFile, rawArgs(t, map[string]any{"path": "absent.txt"}))
	if !res.IsError() {
		t.Fatal("expected error for missing file")
	}
	if got := res.ErrorMessage(); !strings.Contains(got, "file not found") {
		t.Errorf("error = %q, want file-not-found message", got)
	}
}

func TestReadFileRejectsBinary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0xff, 0xfe, 0x00, 0x01}, 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	ws, _ := workspace.New(dir)
	guard, err := workspace.NewGuard(ws)
	if err != nil {
		t.Fatalf("workspace.NewGuard: %v", err)
	}
	e := New(Config{Guard: guard, Policy: security.NewPolicy(nil, nil), Runner: runner.New()})

	res := e.Execute(context.Background(), NameReadFile, rawArgs(t, map[string]any{"path": "blob.bin"}))
	if !res.IsError() {
		t.Fatal("expected error for binary file")
	}
}

func TestPathEscapeRejected(t *testing.T) {
	t.Parallel()
	e := newTestExecutor(t)
	ctx := context.Background()

	for _, name := range []Name{NameReadFile, NameListDirectory} {
		res := e.Execute(ctx, name, rawArgs(t, map[string]any{"path": "../outside"}))
		if !res.IsError() {
			t.Errorf("%s: expected error for path escaping the workspace", name)
			continue
		}
		if got := res.ErrorMessage(); !strings.Contains(got, "outside the workspace") {
			t.Errorf("%s: error = %q, want confinement message", name, got)
		}
	}

	res := e.Execute(ctx, NameWriteFile, rawArgs(t, map[string]any{
		"path":    "../outside",
		"content": "x",
	}))
	if !res.IsError() {
		t.Error("write_file: expected error for path escaping the workspace")
	}
}

func TestShellPolicyRejection(t *testing.T) {
	t.Parallel()
	e := newTestExecutor(t)

	res := e.Execute(context.Background(), NameShell, rawArgs(t, map[string]any{"cmd": "sudo ls"}))
	if !res.IsError() {
		t.Fatal("expected forbidden command to be rejected")
	}
	if got := res.ErrorMessage(); !strings.Contains(got, "forbidden") {
		t.Errorf("error = %q, want forbidden-command message", got)
	}
}

func TestShellRunsAllowedCommand(t *testing.T) {
	t.Parallel()
	e := newTestExecutor(t)

	res := e.Execute(context.Background(), NameShell, rawArgs(t, map[string]any{"cmd": "echo hello"}))
	if res.IsError() {
		t.Fatalf("shell: %s", res.ErrorMessage())
	}
	if got, _ := res.Get("stdout"); got != "hello\n" {
		t.Errorf("stdout = %q, want %q", got, "hello\n")
	}
	if got, _ := res.Get("success"); got != true {
		t.Errorf("success = %v, want true", got)
	}
}

func TestGitCommitRequiresMessage(t *testing.T) {
	t.Parallel()
	e := newTestExecutor(t)

	res := e.Execute(context.Background(), NameGit, rawArgs(t, map[string]any{"action": "commit"}))
	if !res.IsError() {
		t.Fatal("expected error for commit without message")
	}
}

func TestHTTPRequest(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Probe") != "yes" {
			http.Error(w, "missing header", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	e := newTestExecutor(t)
	res := e.Execute(context.Background(), NameHTTPRequest, rawArgs(t, map[string]any{
		"method":  "GET",
		"url":     srv.URL,
		"headers": map[string]string{"X-Probe": "yes"},
	}))
	if res.IsError() {
		t.Fatalf("http_request: %s", res.ErrorMessage())
	}
	if got, _ := res.Get("statusCode"); got != 200 {
		t.Errorf("statusCode = %v, want 200", got)
	}
	if got, _ := res.Get("success"); got != true {
		t.Errorf("success = %v, want true", got)
	}
	body, _ := res.Get("body")
	parsed, ok := body.(map[string]any)
	if !ok || parsed["ok"] != true {
		t.Errorf("body = %#v, want parsed JSON object", body)
	}
}

func TestHTTPRequestPostJSONBody(t *testing.T) {
	t.Parallel()

	var gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	e := newTestExecutor(t)
	res := e.Execute(context.Background(), NameHTTPRequest, rawArgs(t, map[string]any{
		"method": "POST",
		"url":    srv.URL,
		"body":   map[string]any{"name": "peanut"},
	}))
	if res.IsError() {
		t.Fatalf("http_request: %s", res.ErrorMessage())
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	var decoded map[string]any
	if err := json.Unmarshal(gotBody, &decoded); err != nil || decoded["name"] != "peanut" {
		t.Errorf("server received body %q, want JSON with name=peanut", gotBody)
	}
	if got, _ := res.Get("statusCode"); got != 201 {
		t.Errorf("statusCode = %v, want 201", got)
	}
}

func TestHTTPRequestValidation(t *testing.T) {
	t.Parallel()
	e := newTestExecutor(t)
	ctx := context.Background()

	res := e.Execute(ctx, NameHTTPRequest, rawArgs(t, map[string]any{
		"method": "TRACE",
		"url":    "http://example.invalid",
	}))
	if !res.IsError() || !strings.Contains(res.ErrorMessage(), "unsupported HTTP method") {
		t.Errorf("TRACE: got %q, want unsupported-method error", res.ErrorMessage())
	}

	res = e.Execute(ctx, NameHTTPRequest, rawArgs(t, map[string]any{"method": "GET"}))
	if !res.IsError() {
		t.Error("expected error for missing url")
	}

	res = e.Execute(ctx, NameHTTPRequest, rawArgs(t, map[string]any{
		"method":  "GET",
		"url":     "http://example.invalid",
		"headers": map[string]any{"X-Num": 7},
	}))
	if !res.IsError() || !strings.Contains(res.ErrorMessage(), "must be a string") {
		t.Errorf("non-string header: got %q, want type error", res.ErrorMessage())
	}
}

func TestExecuteRecoversFromPanic(t *testing.T) {
	t.Parallel()

	// A nil guard makes the file tools dereference nil, which must surface
	// as an error result rather than crashing the process.
	e := New(Config{Policy: security.NewPolicy(nil, nil), Runner: runner.New()})

	res := e.Execute(context.Background(), NameReadFile, json.RawMessage(`{"path":"x"}`))
	if !res.IsError() {
		t.Fatal("expected panic to become an error result")
	}
	if got := res.ErrorMessage(); !strings.Contains(got, "panic") {
		t.Errorf("error = %q, want panic message", got)
	}
}

func TestExecuteAuditsCalls(t *testing.T) {
	t.Parallel()

	var events []security.AuditEvent
	audit := security.NewAuditLogger(security.AuditLoggerConfig{
		OnEvent: func(ev security.AuditEvent) { events = append(events, ev) },
	})

	ws, _ := workspace.New(t.TempDir())
	guard, err := workspace.NewGuard(ws)
	if err != nil {
		t.Fatalf("workspace.NewGuard: %v", err)
	}
	e := New(Config{
		Guard:  guard,
		Policy: security.NewPolicy(nil, nil),
		Runner: runner.New(),
		Audit:  audit,
	})

	e.Execute(context.Background(), NameListDirectory, json.RawMessage(`{"path":"."}`))

	if len(events) != 2 {
		t.Fatalf("got %d audit events, want 2", len(events))
	}
	if events[0].Type != security.EventToolCall || events[1].Type != security.EventToolResult {
		t.Errorf("event types = %s, %s; want tool_call then tool_result", events[0].Type, events[1].Type)
	}
	if events[1].Metadata["is_error"] != "false" {
		t.Errorf("is_error = %q, want false", events[1].Metadata["is_error"])
	}
}

func TestResultMarshalSingleErrorField(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Errorf("boom %d", 7))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(m) != 1 || m["error"] != "boom 7" {
		t.Errorf("marshaled = %v, want single error field", m)
	}
}

func TestSchemasCoverToolSet(t *testing.T) {
	t.Parallel()

	schemas := Schemas()
	if len(schemas) != len(Names()) {
		t.Fatalf("got %d schemas, want %d", len(schemas), len(Names()))
	}
	for i, s := range schemas {
		if s.Name != Names()[i] {
			t.Errorf("schema %d name = %s, want %s", i, s.Name, Names()[i])
		}
		if !json.Valid(s.Parameters) {
			t.Errorf("schema %s has invalid parameters JSON", s.Name)
		}
	}
}
