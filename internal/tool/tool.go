// Package tool implements the sandboxed tool-execution engine: it receives a
// structured action request from the agent loop, validates it against the
// security policy, executes it with strict confinement and timeouts, and
// returns a uniform result. Tools are the primary security boundary: every
// action the agent takes goes through this package.
package tool

import (
	"encoding/json"
	"fmt"
)

// Name identifies a tool. The set is closed: dispatch over it is exhaustive
// and an unrecognized name is an explicit variant, not a silent fallthrough.
type Name string

// The closed set of tool names, plus the explicit unrecognized variant.
const (
	NameShell         Name = "shell"
	NameReadFile      Name = "read_file"
	NameWriteFile     Name = "write_file"
	NameListDirectory Name = "list_directory"
	NameHTTPRequest   Name = "http_request"
	NameGit           Name = "git"
	NameDocker        Name = "docker"
	NameUnknown       Name = ""
)

// ParseName maps a raw tool name to its closed variant. Unrecognized names
// map to NameUnknown with ok=false.
func ParseName(s string) (Name, bool) {
	switch Name(s) {
	case NameShell, NameReadFile, NameWriteFile, NameListDirectory,
		NameHTTPRequest, NameGit, NameDocker:
		return Name(s), true
	default:
		return NameUnknown, false
	}
}

// Names returns all tool names in a stable order.
func Names() []Name {
	return []Name{
		NameShell, NameReadFile, NameWriteFile, NameListDirectory,
		NameHTTPRequest, NameGit, NameDocker,
	}
}

// Result is the uniform outcome of a tool execution: either a success
// payload with tool-specific fields, or a single human-readable error
// string. Exactly one of the two is populated, so callers can branch on the
// presence of the error field alone.
type Result struct {
	fields map[string]any
}

// Success builds a success result from tool-specific fields.
func Success(fields map[string]any) Result {
	return Result{fields: fields}
}

// Errorf builds an error result with a formatted message.
func Errorf(format string, args ...any) Result {
	return Result{fields: map[string]any{"error": fmt.Sprintf(format, args...)}}
}

// FromError builds an error result from an error value.
func FromError(err error) Result {
	return Result{fields: map[string]any{"error": err.Error()}}
}

// IsError reports whether the result carries an error.
func (r Result) IsError() bool {
	_, ok := r.fields["error"]
	return ok
}

// ErrorMessage returns the error string, or "" for a success result.
func (r Result) ErrorMessage() string {
	msg, _ := r.fields["error"].(string)
	return msg
}

// Fields returns the payload map. Callers must treat it as read-only.
func (r Result) Fields() map[string]any {
	return r.fields
}

// Get returns a single payload field.
func (r Result) Get(key string) (any, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// MarshalJSON serializes the payload, which is what the agent loop feeds
// back to the model.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(r.fields)
	if err != nil {
		return nil, fmt.Errorf("tool: marshal result: %w", err)
	}
	return b, nil
}
