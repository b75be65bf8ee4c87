package security

import (
	"encoding/json"
	"io"
	"sync"
	"time"
	"unicode/utf8"
)

// EventType categorizes audit events.
type EventType string

// Audit event types covering the security-relevant interactions.
const (
	EventToolCall      EventType = "tool_call"
	EventToolResult    EventType = "tool_result"
	EventPolicyDeny    EventType = "policy_deny"
	EventCachePrune    EventType = "cache_prune"
	EventSessionCreate EventType = "session_create"
	EventSessionDelete EventType = "session_delete"
)

// AuditEvent is a single audit log entry.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"type"`
	ToolName  string            `json:"tool_name,omitempty"`
	Session   string            `json:"session,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditLoggerConfig configures the audit logger.
type AuditLoggerConfig struct {
	// Writer is the destination for JSONL output. If nil, events are only
	// dispatched to OnEvent (useful for testing).
	Writer io.Writer

	// OnEvent, if non-nil, is called for every event (used in tests).
	OnEvent func(AuditEvent)

	// Now overrides time.Now for testing. Defaults to time.Now.
	Now func() time.Time
}

// AuditLogger writes structured audit events as JSONL.
type AuditLogger struct {
	writer  io.Writer
	onEvent func(AuditEvent)
	now     func() time.Time
	mu      sync.Mutex
}

// NewAuditLogger creates an audit logger with the given configuration.
func NewAuditLogger(cfg AuditLoggerConfig) *AuditLogger {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &AuditLogger{
		writer:  cfg.Writer,
		onEvent: cfg.OnEvent,
		now:     now,
	}
}

// Log writes an audit event. The timestamp is set automatically.
// Detail is truncated to keep the log bounded regardless of tool output size.
func (l *AuditLogger) Log(event AuditEvent) {
	if l == nil {
		return
	}

	event.Timestamp = l.now()
	event.Detail = TruncateDetail(event.Detail)

	// Dispatch to the test callback and write JSONL under the same lock
	// to keep event ordering consistent.
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.onEvent != nil {
		l.onEvent(event)
	}
	if l.writer != nil {
		_ = json.NewEncoder(l.writer).Encode(event)
	}
}

// maxAuditDetailLen is the maximum length of audit detail strings.
const maxAuditDetailLen = 4096

// TruncateDetail truncates a string to maxAuditDetailLen, appending a
// truncation indicator if the string was shortened. It walks back to a valid
// UTF-8 rune boundary to avoid splitting multi-byte characters.
func TruncateDetail(s string) string {
	if len(s) <= maxAuditDetailLen {
		return s
	}
	i := maxAuditDetailLen
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i] + "...(truncated)"
}
