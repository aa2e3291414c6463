// Package fsguard confines file access to a configured directory. It is
// used both for the input files the front-ends read and for the artifacts
// the downloader writes.
package fsguard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Guard resolves paths against a root directory and rejects any path that
// escapes it, including through symlinks.
type Guard struct {
	root string
}

// New creates a guard for root. The directory does not have to exist yet.
func New(root string) (*Guard, error) {
	if root == "" {
		return nil, fmt.Errorf("root directory cannot be empty")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}

	return &Guard{root: filepath.Clean(absRoot)}, nil
}

// Root returns the absolute root directory
func (g *Guard) Root() string {
	return g.root
}

// Resolve returns the absolute form of path, interpreting relative paths
// against the root. It fails when the result lies outside the root.
func (g *Guard) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(g.root, path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if !g.Contains(absPath) {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}

	return absPath, nil
}

// ResolveName joins a bare file name onto the root. Names carrying
// directory components are rejected.
func (g *Guard) ResolveName(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name: %q", name)
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", fmt.Errorf("file name must not contain directories: %q", name)
	}
	return g.Resolve(name)
}

// Contains reports whether path is the root or lies beneath it. Both the
// literal path and its symlink target must satisfy the check.
func (g *Guard) Contains(path string) bool {
	cleanPath := filepath.Clean(path)

	realRoot := g.root
	if resolved, err := filepath.EvalSymlinks(g.root); err == nil {
		realRoot = resolved
	}

	realPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(cleanPath)
		if err != nil {
			return false
		}
		realPath = resolved
	}

	within := func(p string) bool {
		return isUnder(p, g.root) || isUnder(p, realRoot)
	}

	return within(cleanPath) && within(realPath)
}

func isUnder(path, dir string) bool {
	if path == dir {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
