// Package security holds the command execution policy and the audit trail.
// The policy is the gate in front of the one shell-interpreted execution
// path: a command that does not pass Validate must never reach a shell.
package security

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Policy errors.
var (
	// ErrEmptyCommand is returned for empty or whitespace-only commands.
	ErrEmptyCommand = errors.New("command must not be empty")

	// ErrForbiddenToken is returned when any word of the command, in any
	// position, is a forbidden command name.
	ErrForbiddenToken = errors.New("command contains a forbidden token")

	// ErrForbiddenPattern is returned when the raw command contains a
	// forbidden pattern, regardless of its leading token.
	ErrForbiddenPattern = errors.New("command contains a forbidden pattern")

	// ErrCommandNotAllowed is returned when the leading token is not in
	// the allowlist.
	ErrCommandNotAllowed = errors.New("command not in allowlist")
)

// defaultAllowedCommands are the permitted leading tokens: read-oriented
// tools, language runtimes, version-control and container CLIs.
var defaultAllowedCommands = []string{
	"ls", "cat", "head", "tail", "grep", "find", "pwd", "whoami",
	"df", "du", "wc", "file", "stat", "tree",
	"date", "uname", "hostname", "sort", "uniq", "cut", "tr",
	"python3", "python", "pip", "node", "npm", "npx",
	"git", "docker", "docker-compose",
	"curl", "wget", "ping", "which", "echo", "env", "printenv",
}

// defaultForbiddenTokens veto execution when they appear as a whole word
// anywhere in the command, including after sequencing operators: destructive
// commands, privilege escalation, permission changes. Matching whole words
// instead of substrings keeps "rm" from vetoing "format-like" arguments
// while still catching "ls && rm f".
var defaultForbiddenTokens = []string{
	"rm", "rmdir", "dd", "mkfs", "fdisk", "format",
	"kill", "killall", "shutdown", "reboot", "halt", "poweroff",
	"sudo", "su", "chmod", "chown",
	"eval", "exec",
}

// defaultForbiddenPatterns veto execution when found anywhere in the raw
// command (case-insensitive): output redirection and pipe-to-shell idioms,
// which are not single words.
var defaultForbiddenPatterns = []string{
	">", "| bash", "| sh",
}

// Policy classifies free-text shell commands as allowed or forbidden.
// It is immutable after construction and safe for concurrent use.
//
// Known limitation, carried deliberately: only the leading token before the
// first pipe is checked against the allowlist. Command sequencing operators
// ("&&", ";", command substitution) are not tokenized for allowlist
// purposes, so a permitted leading command followed by a non-forbidden,
// non-allowlisted one can evade the allowlist check; the forbidden token and
// pattern scans are the remaining defense, and they do cover the sequenced
// destructive forms ("ls && rm f", "echo x; sudo reboot").
type Policy struct {
	allowed   map[string]struct{}
	tokens    map[string]struct{}
	forbidden []string // lowercase
}

// NewPolicy builds a Policy from the default sets plus optional extensions.
// Extra forbidden patterns are matched the same way as the defaults:
// case-insensitive substring scan over the whole raw command.
func NewPolicy(extraAllow, extraForbid []string) *Policy {
	allowed := make(map[string]struct{}, len(defaultAllowedCommands)+len(extraAllow))
	for _, cmd := range defaultAllowedCommands {
		allowed[cmd] = struct{}{}
	}
	for _, cmd := range extraAllow {
		cmd = strings.ToLower(strings.TrimSpace(cmd))
		if cmd != "" {
			allowed[cmd] = struct{}{}
		}
	}

	tokens := make(map[string]struct{}, len(defaultForbiddenTokens))
	for _, tok := range defaultForbiddenTokens {
		tokens[tok] = struct{}{}
	}

	forbidden := make([]string, 0, len(defaultForbiddenPatterns)+len(extraForbid))
	forbidden = append(forbidden, defaultForbiddenPatterns...)
	for _, pat := range extraForbid {
		if pat != "" {
			forbidden = append(forbidden, strings.ToLower(pat))
		}
	}

	return &Policy{allowed: allowed, tokens: tokens, forbidden: forbidden}
}

// Validate checks a raw shell command against the policy and returns its
// leading token on success. The forbidden scans run before allowlist
// matching so they cannot be bypassed by a permitted leading token followed
// by a forbidden tail. The full raw string is what gets executed, not the
// token.
func (p *Policy) Validate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyCommand
	}

	lowered := strings.ToLower(raw)
	for _, pat := range p.forbidden {
		if strings.Contains(lowered, pat) {
			return "", fmt.Errorf("%w: %q", ErrForbiddenPattern, pat)
		}
	}
	for _, word := range commandWords(lowered) {
		if _, bad := p.tokens[word]; bad {
			return "", fmt.Errorf("%w: %q", ErrForbiddenToken, word)
		}
	}

	token := leadingToken(raw)
	if _, ok := p.allowed[token]; !ok {
		return "", fmt.Errorf("%w: %s (allowed: %s)", ErrCommandNotAllowed, token, strings.Join(p.Allowed(), ", "))
	}
	return token, nil
}

// Allowed returns the sorted allowlist, for error messages and status output.
func (p *Policy) Allowed() []string {
	cmds := make([]string, 0, len(p.allowed))
	for cmd := range p.allowed {
		cmds = append(cmds, cmd)
	}
	sort.Strings(cmds)
	return cmds
}

// commandWords splits a command into its words, treating shell sequencing
// and substitution characters as separators so a forbidden command is found
// in any position: after "&&", ";", a pipe, or inside "$(...)" and
// backticks.
func commandWords(lowered string) []string {
	return strings.FieldsFunc(lowered, func(r rune) bool {
		switch r {
		case ';', '|', '&', '(', ')', '`', '$':
			return true
		}
		return unicode.IsSpace(r)
	})
}

// leadingToken extracts the command's leading token: the first whitespace
// field, then the segment before the first pipe character.
func leadingToken(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	token, _, _ := strings.Cut(fields[0], "|")
	return strings.ToLower(token)
}
