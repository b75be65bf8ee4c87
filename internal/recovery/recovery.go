// Package recovery extracts a well-formed JSON object from noisy model
// output: markdown fences, commentary before and after, braces inside quoted
// strings. It never returns malformed text; a candidate that does not parse
// is discarded and scanning continues.
package recovery

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject scans text for the first span that is a parseable JSON
// object. The boolean reports whether one was found. The scan is a
// string-aware balanced-brace state machine: characters inside a quoted
// string never affect depth, and an escaped quote does not toggle the
// in-string flag. Every candidate is re-parsed before being returned; a
// failing candidate is skipped in favor of a later one.
func ExtractJSONObject(text string) (json.RawMessage, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, false
	}

	s = stripFences(s)

	// Whole-string fast path, still validated.
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") && json.Valid([]byte(s)) {
		return json.RawMessage(s), true
	}

	var (
		inString bool
		escaped  bool
		depth    int
		start    = -1
	)

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start != -1 {
				candidate := s[start : i+1]
				if json.Valid([]byte(candidate)) {
					return json.RawMessage(candidate), true
				}
				// Malformed span: keep scanning after it.
				start = -1
				inString = false
			}
		}
	}

	return nil, false
}

// stripFences removes a leading markdown code fence (```json ... ```):
// the first line and, if present, the trailing fence line.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	lines := strings.Split(s, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
