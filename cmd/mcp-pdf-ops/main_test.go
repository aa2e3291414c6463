package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-ops/internal/config"
)

const testVersion = "1.2.3"

// captureStdout runs fn with os.Stdout redirected into a pipe
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	originalStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = originalStdout }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
		w.Close()
	}()

	var buf bytes.Buffer
	io.Copy(&buf, r)
	<-done
	return buf.String()
}

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	version = testVersion
	buildTime = "2023-12-01_10:30:00"
	gitCommit = "abc123"

	output := captureStdout(t, printVersion)

	for _, expected := range []string{
		"MCP PDF Ops",
		"Version: " + testVersion,
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestPrintVersionWithDefaults(t *testing.T) {
	output := captureStdout(t, printVersion)

	for _, expected := range []string{"Version: dev", "Build Time: unknown", "Git Commit: unknown"} {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestSetupLogging(t *testing.T) {
	tests := []struct {
		name       string
		config     *config.Config
		wantLevel  logrus.Level
		wantStderr bool
		wantCaller bool
	}{
		{
			name:       "stdio mode - debug enabled",
			config:     &config.Config{Mode: config.ModeStdio, LogLevel: "debug"},
			wantLevel:  logrus.DebugLevel,
			wantStderr: true,
		},
		{
			name:      "stdio mode - debug disabled",
			config:    &config.Config{Mode: config.ModeStdio, LogLevel: "info"},
			wantLevel: logrus.InfoLevel,
		},
		{
			name:       "server mode - info",
			config:     &config.Config{Mode: config.ModeServer, LogLevel: "info"},
			wantLevel:  logrus.InfoLevel,
			wantStderr: true,
		},
		{
			name:       "server mode - debug",
			config:     &config.Config{Mode: config.ModeServer, LogLevel: "debug"},
			wantLevel:  logrus.DebugLevel,
			wantStderr: true,
			wantCaller: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := setupLogging(tt.config)

			if logger.GetLevel() != tt.wantLevel {
				t.Errorf("level = %s, want %s", logger.GetLevel(), tt.wantLevel)
			}
			if got := logger.Out == os.Stderr; got != tt.wantStderr {
				t.Errorf("writes to stderr = %t, want %t", got, tt.wantStderr)
			}
			if logger.ReportCaller != tt.wantCaller {
				t.Errorf("ReportCaller = %t, want %t", logger.ReportCaller, tt.wantCaller)
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.APIURL = "http://127.0.0.1:1/api"
	cfg.RequestTimeout = time.Second
	cfg.InputDirectory = t.TempDir()
	cfg.OutputDirectory = t.TempDir()

	server, err := newServer(cfg, logrus.New())
	if err != nil {
		t.Fatalf("newServer() error = %v", err)
	}
	if server == nil {
		t.Fatal("newServer() returned nil server")
	}

	cfg.APIURL = "://bad"
	if _, err := newServer(cfg, logrus.New()); err == nil {
		t.Error("newServer() should reject an invalid backend URL")
	}
}
