package fsguard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)

	g, err := New("relative/dir")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(g.Root()))
}

func TestGuard_Resolve(t *testing.T) {
	root := t.TempDir()
	g, err := New(root)
	require.NoError(t, err)

	tests := []struct {
		name        string
		path        string
		expected    string
		expectError bool
	}{
		{name: "relative file", path: "doc.pdf", expected: filepath.Join(g.Root(), "doc.pdf")},
		{name: "nested file", path: "a/b.pdf", expected: filepath.Join(g.Root(), "a", "b.pdf")},
		{name: "absolute inside", path: filepath.Join(root, "x.pdf"), expected: filepath.Join(g.Root(), "x.pdf")},
		{name: "root itself", path: root, expected: g.Root()},
		{name: "parent traversal", path: "../escape.pdf", expectError: true},
		{name: "absolute outside", path: "/etc/passwd", expectError: true},
		{name: "prefix sibling", path: root + "-other/doc.pdf", expectError: true},
		{name: "empty", path: "", expectError: true},
		{name: "null byte only", path: "\x00", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := g.Resolve(tt.path)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resolved)
		})
	}
}

func TestGuard_ResolveName(t *testing.T) {
	g, err := New(t.TempDir())
	require.NoError(t, err)

	path, err := g.ResolveName("merged.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(g.Root(), "merged.pdf"), path)

	for _, name := range []string{"", ".", "..", "../x.pdf", "sub/x.pdf", `sub\x.pdf`} {
		_, err := g.ResolveName(name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestGuard_RejectsSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	target := filepath.Join(outside, "secret.pdf")
	require.NoError(t, os.WriteFile(target, []byte("%PDF"), 0o600))

	link := filepath.Join(root, "link.pdf")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	g, err := New(root)
	require.NoError(t, err)

	assert.False(t, g.Contains(link))
	_, err = g.Resolve("link.pdf")
	assert.Error(t, err)
}
