package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-ops/internal/config"
	"github.com/a3tai/mcp-pdf-ops/internal/logging"
	"github.com/a3tai/mcp-pdf-ops/internal/mcp"
	"github.com/a3tai/mcp-pdf-ops/internal/operation"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the server mode. In stdio
// mode stdout belongs to the MCP protocol.
func setupLogging(cfg *config.Config) *logrus.Logger {
	logger := logging.New(cfg.LogLevel, cfg.IsStdioMode())
	if cfg.IsServerMode() {
		logger.SetReportCaller(cfg.IsDebug())
	}
	return logger
}

// newServer wires the backend client into an MCP server
func newServer(cfg *config.Config, logger *logrus.Logger) (*mcp.Server, error) {
	client, err := operation.NewClient(cfg.APIURL,
		operation.WithTimeout(cfg.RequestTimeout),
		operation.WithLogger(logger),
		operation.WithUserAgent(cfg.ServerName+"/"+cfg.Version),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	return mcp.NewServer(cfg, client, logger)
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, logger *logrus.Logger) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		logger.WithField("signal", sig.String()).Info("Initiating graceful shutdown")
		cancel()

		if err := <-serverErrCh; err != nil {
			logger.WithError(err).Error("Server shutdown with error")
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			logger.WithError(err).Error("Server error")
			os.Exit(1)
		}
	}

	logger.Info("Server stopped successfully")
}

// runStdioMode handles stdio mode execution. The parent process controls
// our lifecycle; we exit when stdin is closed.
func runStdioMode(ctx context.Context, server *mcp.Server, logger *logrus.Logger) {
	if err := server.Run(ctx); err != nil {
		logger.WithError(err).Debug("Server error")
		os.Exit(1)
	}
}

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger := setupLogging(cfg)
	logger.WithField("config", cfg.String()).Debug("Starting")

	server, err := newServer(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create MCP server: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsServerMode() {
		runServerMode(ctx, cancel, server, logger)
	} else {
		runStdioMode(ctx, server, logger)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MCP PDF Ops\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
