package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Guard errors.
var (
	// ErrEmptyPath is returned when the relative path is empty or missing.
	ErrEmptyPath = errors.New("path must not be empty")

	// ErrOutsideWorkspace is returned when a path resolves outside the
	// workspace root, directly or through a symbolic link.
	ErrOutsideWorkspace = errors.New("path resolves outside the workspace")
)

// Guard confines relative paths to a workspace root. It canonicalizes the
// joined path (".", "..", and symbolic links) before comparing against the
// canonicalized root, so a symlink pointing outside the root cannot pass.
type Guard struct {
	root string // canonicalized absolute root
}

// NewGuard creates a Guard for the given workspace. The root directory must
// exist so its canonical form can be established up front.
func NewGuard(w *Workspace) (*Guard, error) {
	canon, err := filepath.EvalSymlinks(w.Root)
	if err != nil {
		return nil, fmt.Errorf("workspace: canonicalize root %s: %w", w.Root, err)
	}
	return &Guard{root: canon}, nil
}

// Root returns the canonicalized workspace root.
func (g *Guard) Root() string {
	return g.root
}

// Resolve joins rel onto the workspace root and returns the canonical
// absolute path, or ErrOutsideWorkspace if the result escapes the root.
// The target itself does not need to exist: for not-yet-created paths the
// longest existing ancestor is canonicalized and the remainder re-joined,
// so traversal through an in-root symlink is still caught.
func (g *Guard) Resolve(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", ErrEmptyPath
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, rel)
	}

	joined := filepath.Join(g.root, rel)
	canon, err := canonicalize(joined)
	if err != nil {
		return "", fmt.Errorf("workspace: canonicalize %s: %w", rel, err)
	}

	if canon != g.root && !strings.HasPrefix(canon, g.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, rel)
	}
	return canon, nil
}

// canonicalize resolves symlinks in path. If the path does not exist yet,
// the longest existing ancestor is resolved and the non-existing remainder
// is appended lexically.
func canonicalize(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	parent := filepath.Dir(path)
	if parent == path {
		// Filesystem root reported as missing; nothing left to resolve.
		return path, nil
	}

	resolvedParent, err := canonicalize(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}
