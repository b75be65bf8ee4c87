// Package workspace manages the agent workspace directory: the single root
// every file and shell operation is confined to, plus the per-workspace
// data directories derived from it.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace represents the workspace directory structure.
type Workspace struct {
	Root string
}

// New creates a Workspace rooted at the given directory. The root is made
// absolute so later comparisons are stable regardless of the process cwd.
func New(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve root %s: %w", root, err)
	}
	return &Workspace{Root: abs}, nil
}

// EnsureStructure creates the workspace directory tree if it does not exist.
// Idempotent — safe to call multiple times.
func (w *Workspace) EnsureStructure() error {
	dirs := []string{
		w.Root,
		w.DataDir(),
		w.CacheDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("workspace: create %s: %w", dir, err)
		}
	}
	return nil
}

// DataDir returns the per-workspace data directory.
func (w *Workspace) DataDir() string {
	return filepath.Join(w.Root, ".agentlow")
}

// CacheDir returns the per-workspace response cache directory.
func (w *Workspace) CacheDir() string {
	return filepath.Join(w.DataDir(), "cache")
}

// AuditLogPath returns the path of the JSONL audit log.
func (w *Workspace) AuditLogPath() string {
	return filepath.Join(w.DataDir(), "audit.jsonl")
}
