package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-ops/internal/testutil"
)

// fakeBackend answers operation paths with canned envelopes and serves
// /download/<name> unless the name is listed as missing.
type fakeBackend struct {
	envelopes map[string]any
	missing   map[string]bool
	fields    map[string][]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		envelopes: map[string]any{},
		missing:   map[string]bool{},
		fields:    map[string][]string{},
	}
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if name, ok := strings.CutPrefix(r.URL.Path, "/download/"); ok {
		if b.missing[name] {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("artifact:" + name))
		return
	}

	env, ok := b.envelopes[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseMultipartForm(1 << 20); err == nil {
		for k, v := range r.MultipartForm.Value {
			b.fields[k] = v
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(env)
}

func (b *fakeBackend) succeed(path, message string, data any) {
	b.envelopes[path] = map[string]any{"success": true, "message": message, "data": data}
}

type cliEnv struct {
	backend *fakeBackend
	url     string
	dir     string
	out     string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	backend := newFakeBackend()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	return &cliEnv{backend: backend, url: srv.URL, dir: dir, out: filepath.Join(dir, "out")}
}

func (e *cliEnv) writePDF(t *testing.T, name string, pages ...string) string {
	t.Helper()

	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, testutil.MinimalPDF("Annual Plan", "Ops", pages...), 0o644))
	return path
}

// run executes the command tree and returns stdout
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCommand("1.2.3")
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args,
		"--no-tui",
		"--api-url", e.url,
		"--output-dir", e.out,
		"--download-delay", "0s",
	))

	err := root.ExecuteContext(t.Context())
	t.Logf("stderr:\n%s", stderr.String())
	return stdout.String(), err
}

func TestMerge(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.succeed("/merge", "PDFs merged successfully",
		map[string]any{"fileName": "plan.pdf", "fileSize": 12, "downloadUrl": "/download/plan.pdf"})

	a := env.writePDF(t, "a.pdf", "one")
	b := env.writePDF(t, "b.pdf", "two")

	out, err := env.run(t, "merge", a, b, "-o", "plan.pdf")
	require.NoError(t, err)

	assert.Contains(t, out, "Merge PDFs")
	assert.Contains(t, out, "PDFs merged successfully")
	assert.Equal(t, []string{"plan.pdf"}, env.backend.fields["outputFileName"])

	data, err := os.ReadFile(filepath.Join(env.out, "plan.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "artifact:plan.pdf", string(data))
}

func TestMerge_NeedsTwoFiles(t *testing.T) {
	env := newCLIEnv(t)
	a := env.writePDF(t, "a.pdf")

	_, err := env.run(t, "merge", a)
	require.Error(t, err)
}

func TestSplit_PartialDownload(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.succeed("/split", "PDF split successfully", []map[string]any{
		{"fileName": "part_1.pdf", "fileSize": 10, "downloadUrl": "/download/part_1.pdf"},
		{"fileName": "part_2.pdf", "fileSize": 10, "downloadUrl": "/download/part_2.pdf"},
	})
	env.backend.missing["part_2.pdf"] = true

	src := env.writePDF(t, "report.pdf", "a", "b", "c", "d")

	out, err := env.run(t, "split", src, "--by", "pages", "--points", "2", "--output-base", "part")
	require.Error(t, err)

	assert.Contains(t, out, "Downloaded 1 of 2 files")
	assert.Contains(t, out, "succeeded")
	assert.Equal(t, []string{"pages"}, env.backend.fields["splitMode"])
	assert.FileExists(t, filepath.Join(env.out, "part_1.pdf"))
	assert.NoFileExists(t, filepath.Join(env.out, "part_2.pdf"))
}

func TestSplit_RejectsMalformedPoints(t *testing.T) {
	env := newCLIEnv(t)
	src := env.writePDF(t, "report.pdf")

	_, err := env.run(t, "split", src, "--by", "ranges", "--points", "3-1")
	require.Error(t, err)
	assert.Empty(t, env.backend.fields, "nothing should reach the backend")
}

func TestExtract_PrintsText(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.succeed("/extract", "Data extracted successfully", map[string]any{
		"textContent": "Hello\nWorld",
		"pages": []map[string]any{
			{"pageNumber": 1, "text": "Hello", "wordCount": 1},
			{"pageNumber": 2, "text": "World", "wordCount": 1},
		},
		"wordCount": 2,
	})
	src := env.writePDF(t, "doc.pdf", "Hello", "World")

	out, err := env.run(t, "extract", src, "--text", "--images")
	require.NoError(t, err)

	assert.Contains(t, out, "--- Page 2 ---\nWorld")
	assert.Equal(t, []string{"true"}, env.backend.fields["extractImages"])
}

func TestValidatePDFA_ListsIssues(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.succeed("/validate-pdfa", "Validation completed", map[string]any{
		"isCompliant":  false,
		"errorCount":   1,
		"warningCount": 0,
		"errors": []map[string]any{
			{"code": "6.2.11", "message": "Font not embedded", "severity": "error", "pageNumber": 3},
		},
	})
	src := env.writePDF(t, "doc.pdf")

	out, err := env.run(t, "validate-pdfa", src, "--level", "2b")
	require.NoError(t, err)

	assert.Contains(t, out, "1. [6.2.11] Font not embedded (page 3)")
	assert.Equal(t, []string{"2b"}, env.backend.fields["conformanceLevel"])
}

func TestBackendFailure(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.envelopes["/metadata"] = map[string]any{"success": false, "message": "Corrupt document"}
	src := env.writePDF(t, "doc.pdf")

	out, err := env.run(t, "metadata", src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Corrupt document")
	assert.Contains(t, out, "failed")
}

func TestView(t *testing.T) {
	env := newCLIEnv(t)
	src := env.writePDF(t, "doc.pdf", "First page", "Second page")

	out, err := env.run(t, "view", src, "--page", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "doc.pdf")
	assert.Contains(t, out, "Annual Plan")
	assert.Contains(t, out, "Second page")
	assert.Contains(t, out, "unlicensed")
}

func TestInvalidConfiguration(t *testing.T) {
	env := newCLIEnv(t)
	src := env.writePDF(t, "doc.pdf")

	_, err := env.run(t, "metadata", src, "--timeout", "0s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
