package tool

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/agentlow/agentlow/internal/workspace"
)

type readFileArgs struct {
	Path string `json:"path"`
}

// readFile returns the UTF-8 content of a regular file inside the workspace,
// with its byte length and line count.
func (e *Executor) readFile(args json.RawMessage) Result {
	var a readFileArgs
	if err := decodeArgs(args, &a); err != nil {
		return FromError(err)
	}

	full, err := e.guard.Resolve(a.Path)
	if err != nil {
		return pathError(err, a.Path)
	}

	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return Errorf("file not found: %s", a.Path)
	}
	if err != nil {
		return Errorf("stat %s: %v", a.Path, err)
	}
	if !info.Mode().IsRegular() {
		return Errorf("not a regular file: %s", a.Path)
	}
	if info.Size() > e.maxFileSize {
		return Errorf("file too large: %s (%d bytes, max %d)", a.Path, info.Size(), e.maxFileSize)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return Errorf("read %s: %v", a.Path, err)
	}
	if !utf8.Valid(data) {
		return Errorf("file is not UTF-8 text (binary?): %s", a.Path)
	}

	content := string(data)
	return Success(map[string]any{
		"content":   content,
		"size":      len(data),
		"lineCount": countLines(content),
	})
}

type writeFileArgs struct {
	Path    string  `json:"path"`
	Content *string `json:"content"`
}

// writeFile creates or overwrites a file inside the workspace, creating
// parent directories as needed. The write goes through a temp file in the
// destination directory plus a rename, so readers never observe a partial
// file.
func (e *Executor) writeFile(args json.RawMessage) Result {
	var a writeFileArgs
	if err := decodeArgs(args, &a); err != nil {
		return FromError(err)
	}
	if a.Content == nil {
		return Errorf("write_file requires %q", "content")
	}

	full, err := e.guard.Resolve(a.Path)
	if err != nil {
		return pathError(err, a.Path)
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Errorf("create parent directories for %s: %v", a.Path, err)
	}

	if err := atomicWrite(dir, full, []byte(*a.Content)); err != nil {
		return Errorf("write %s: %v", a.Path, err)
	}

	return Success(map[string]any{
		"success":      true,
		"path":         a.Path,
		"bytesWritten": len(*a.Content),
	})
}

// atomicWrite writes data to a temp file in dir and renames it over dst.
func atomicWrite(dir, dst string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".agentlow-write-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

type listDirectoryArgs struct {
	Path string `json:"path"`
}

// listEntry is one directory entry in a list_directory result. Size is null
// for directories.
type listEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size *int64 `json:"size"`
}

// listDirectory returns the entries of a directory inside the workspace,
// ordered by name.
func (e *Executor) listDirectory(args json.RawMessage) Result {
	var a listDirectoryArgs
	if err := decodeArgs(args, &a); err != nil {
		return FromError(err)
	}

	full, err := e.guard.Resolve(a.Path)
	if err != nil {
		return pathError(err, a.Path)
	}

	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return Errorf("directory not found: %s", a.Path)
	}
	if err != nil {
		return Errorf("stat %s: %v", a.Path, err)
	}
	if !info.IsDir() {
		return Errorf("not a directory: %s", a.Path)
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return Errorf("list %s: %v", a.Path, err)
	}

	items := make([]listEntry, 0, len(entries))
	for _, entry := range entries {
		item := listEntry{Name: entry.Name(), Type: "file"}
		if entry.IsDir() {
			item.Type = "dir"
		} else if fi, err := entry.Info(); err == nil {
			size := fi.Size()
			item.Size = &size
		}
		items = append(items, item)
	}

	return Success(map[string]any{
		"path":  a.Path,
		"items": items,
		"count": len(items),
	})
}

// pathError shapes guard failures, naming the offending path for
// confinement errors.
func pathError(err error, path string) Result {
	if errors.Is(err, workspace.ErrOutsideWorkspace) {
		return Errorf("path outside the workspace: %s", path)
	}
	if errors.Is(err, workspace.ErrEmptyPath) {
		return Errorf("path must not be empty")
	}
	return FromError(err)
}

// countLines counts lines the way text editors do: a trailing newline does
// not open a new line, and empty content has zero lines.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
