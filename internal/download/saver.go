package download

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-pdf-ops/internal/fsguard"
)

// Saver hands retrieved bytes to the user under the given file name and
// returns where they ended up.
type Saver interface {
	Save(name string, data []byte) (string, error)
}

// SaverFunc adapts a function to the Saver interface
type SaverFunc func(name string, data []byte) (string, error)

// Save calls f
func (f SaverFunc) Save(name string, data []byte) (string, error) {
	return f(name, data)
}

// LocalSaver writes artifacts into an output directory. Each file is
// written to a temporary sibling and renamed into place, so a failed save
// never leaves a partial file behind.
type LocalSaver struct {
	guard     *fsguard.Guard
	overwrite bool
}

// NewLocalSaver creates the output directory if needed. Existing files are
// kept and new ones get a numbered name unless overwrite is set.
func NewLocalSaver(dir string, overwrite bool) (*LocalSaver, error) {
	guard, err := fsguard.New(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid output directory: %w", err)
	}

	if err := os.MkdirAll(guard.Root(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &LocalSaver{guard: guard, overwrite: overwrite}, nil
}

// Dir returns the absolute output directory
func (s *LocalSaver) Dir() string {
	return s.guard.Root()
}

// Save writes data under name and returns the final path
func (s *LocalSaver) Save(name string, data []byte) (string, error) {
	target, err := s.guard.ResolveName(name)
	if err != nil {
		return "", err
	}

	if !s.overwrite {
		target = s.availableName(target)
	}

	tmp, err := os.CreateTemp(s.guard.Root(), ".pdf-ops-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return "", fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", name, err)
	}

	committed = true
	return target, nil
}

// availableName returns path, or "name (n).ext" for the first n not taken
func (s *LocalSaver) availableName(path string) string {
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return path
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
