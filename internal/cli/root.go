// Package cli implements the pdf-ops command line front-end.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-pdf-ops/internal/config"
	"github.com/a3tai/mcp-pdf-ops/internal/logging"
)

// app carries the state shared by every subcommand
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	logger  *logrus.Logger
	noTUI   bool
	version string
}

// NewRootCommand builds the pdf-ops command tree
func NewRootCommand(version string) *cobra.Command {
	defaults := config.DefaultConfig()
	a := &app{
		v:       config.NewViper(defaults),
		version: version,
	}

	root := &cobra.Command{
		Use:           "pdf-ops",
		Short:         "pdf-ops - run PDF operations against a processing backend",
		Long:          "pdf-ops uploads PDFs to a processing backend, runs one operation and saves the produced files.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromViper(a.v)
			if err != nil {
				return err
			}
			cfg.Version = a.version
			a.cfg = cfg
			// stderr carries the progress view, so logs stay quiet unless debugging
			a.logger = logging.New(cfg.LogLevel, true)
			a.logger.WithField("config", cfg.String()).Debug("Configuration loaded")
			return nil
		},
	}

	config.BindFlags(root.PersistentFlags(), a.v, defaults)
	root.PersistentFlags().BoolVar(&a.noTUI, "no-tui", false, "print plain progress lines instead of the interactive view")
	// server-only settings are shared with the MCP binary but mean nothing here
	for _, name := range []string{"mode", "host", "port", "input-dir"} {
		_ = root.PersistentFlags().MarkHidden(name)
	}

	for _, cmd := range a.operationCommands() {
		root.AddCommand(cmd)
	}
	root.AddCommand(a.viewCommand())

	return root
}

// Execute runs the command tree and exits non-zero on failure
func Execute(version string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand(version).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// interactive reports whether the bubbletea view should be used
func (a *app) interactive() bool {
	return !a.noTUI && isatty.IsTerminal(os.Stderr.Fd())
}
