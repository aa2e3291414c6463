package cli

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-pdf-ops/internal/download"
	"github.com/a3tai/mcp-pdf-ops/internal/operation"
	"github.com/a3tai/mcp-pdf-ops/internal/panel"
	"github.com/a3tai/mcp-pdf-ops/internal/tui"
)

const updateBuffer = 64

// runOperation drives one panel for the given files and prints the summary.
// A partial download still prints the summary but exits non-zero.
func (a *app) runOperation(
	cmd *cobra.Command, kind operation.Kind, paths []string, params operation.Params, opts ...panel.Option,
) (*operation.Result, error) {
	cfg := operation.MustLookup(kind)
	if cfg.MaxFiles > 0 && len(paths) > cfg.MaxFiles {
		return nil, fmt.Errorf("%s accepts at most %d file(s), got %d", cfg.Title, cfg.MaxFiles, len(paths))
	}

	files := make([]operation.FilePayload, 0, len(paths))
	for _, path := range paths {
		file, err := operation.LoadFile(path, a.cfg.MaxFileSize)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	client, err := operation.NewClient(a.cfg.APIURL,
		operation.WithTimeout(a.cfg.RequestTimeout),
		operation.WithLogger(a.logger),
		operation.WithUserAgent("pdf-ops/"+a.version),
	)
	if err != nil {
		return nil, err
	}

	saver, err := download.NewLocalSaver(a.cfg.OutputDirectory, a.cfg.Overwrite)
	if err != nil {
		return nil, err
	}

	updates := make(chan tui.Update, updateBuffer)
	downloader := download.NewDownloader(client, saver,
		download.WithDelay(a.cfg.DownloadDelay),
		download.WithLogger(a.logger),
		download.WithProgress(func(p download.Progress) {
			updates <- tui.ProgressUpdate(p)
		}),
	)

	opts = append([]panel.Option{
		panel.WithDownloader(downloader),
		panel.WithLogger(a.logger),
		panel.WithParams(params),
	}, opts...)

	p, err := panel.New(kind, client, opts...)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	events := p.Subscribe()
	if err := p.Select(files...); err != nil {
		return nil, errors.New(operation.UserMessage(err))
	}

	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for e := range events {
			updates <- tui.EventUpdate(e)
		}
	}()

	uiDone := make(chan struct{})
	go func() {
		defer close(uiDone)
		if a.interactive() {
			program := tea.NewProgram(tui.NewModel(cfg.Title, updates, p.Close), tea.WithOutput(cmd.ErrOrStderr()))
			if _, err := program.Run(); err != nil {
				a.logger.WithError(err).Debug("Progress view stopped")
			}
			// keep draining so the senders never block
			for range updates {
			}
			return
		}
		printUpdates(cmd.ErrOrStderr(), updates)
	}()

	result, submitErr := p.Submit(cmd.Context())
	snap := p.Snapshot()

	p.Close()
	<-forwarded
	close(updates)
	<-uiDone

	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderSummary(tui.SummaryRows(snap)))

	if submitErr != nil {
		return result, errors.New(operation.UserMessage(submitErr))
	}
	return result, nil
}

// printUpdates writes one line per update for non-interactive output
func printUpdates(w io.Writer, updates <-chan tui.Update) {
	for u := range updates {
		switch {
		case u.Event != nil:
			if u.Event.Notice != "" {
				fmt.Fprintf(w, "%s: %s\n", u.Event.To, u.Event.Notice)
			} else {
				fmt.Fprintf(w, "%s\n", u.Event.To)
			}
		case u.Progress != nil:
			item := u.Progress.Item
			if item.OK() {
				fmt.Fprintf(w, "[%d/%d] saved %s (%s)\n",
					u.Progress.Done, u.Progress.Total, item.Path, humanize.Bytes(uint64(max(item.Size, 0))))
			} else {
				fmt.Fprintf(w, "[%d/%d] %s failed: %v\n", u.Progress.Done, u.Progress.Total, item.FileName, item.Err)
			}
		}
	}
}
