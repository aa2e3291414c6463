// Package download retrieves operation artifacts one at a time and hands
// each to a Saver, pacing consecutive saves.
package download

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-ops/internal/operation"
)

// Retriever fetches the bytes of an artifact by file name
type Retriever interface {
	RetrieveArtifact(ctx context.Context, fileName string) ([]byte, error)
}

// Item is the outcome of one artifact
type Item struct {
	Index    int
	FileName string
	Path     string
	Size     int64
	Err      error
}

// OK reports whether the artifact was saved
func (i Item) OK() bool {
	return i.Err == nil
}

// Report lists per-artifact outcomes in input order
type Report struct {
	Items    []Item
	Duration time.Duration
}

// Total returns the number of artifacts attempted
func (r Report) Total() int {
	return len(r.Items)
}

// Saved returns the successfully saved artifacts
func (r Report) Saved() []Item {
	var saved []Item
	for _, item := range r.Items {
		if item.OK() {
			saved = append(saved, item)
		}
	}
	return saved
}

// Failed returns the artifacts that could not be retrieved or saved
func (r Report) Failed() []Item {
	var failed []Item
	for _, item := range r.Items {
		if !item.OK() {
			failed = append(failed, item)
		}
	}
	return failed
}

// Progress is reported after every artifact
type Progress struct {
	Done  int
	Total int
	Item  Item
}

// Option configures a Downloader
type Option func(*Downloader)

// WithDelay sets the minimum spacing between saves
func WithDelay(delay time.Duration) Option {
	return func(d *Downloader) {
		d.runner = NewRunner(delay)
	}
}

// WithLogger sets a logger
func WithLogger(logger *logrus.Logger) Option {
	return func(d *Downloader) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithProgress registers a callback invoked after each artifact
func WithProgress(fn func(Progress)) Option {
	return func(d *Downloader) {
		d.progress = fn
	}
}

// Downloader performs the sequential retrieve-then-save loop
type Downloader struct {
	retriever Retriever
	saver     Saver
	runner    *Runner
	logger    *logrus.Logger
	progress  func(Progress)
}

// NewDownloader creates a downloader with the default pacing
func NewDownloader(retriever Retriever, saver Saver, opts ...Option) *Downloader {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	d := &Downloader{
		retriever: retriever,
		saver:     saver,
		runner:    NewRunner(DefaultDelay),
		logger:    discard,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// DownloadAll retrieves and saves every artifact in order, one at a time.
// A failed item does not stop the loop. When any item fails the report is
// still returned together with a *operation.PartialResultError.
func (d *Downloader) DownloadAll(ctx context.Context, files []operation.FileResponse) (Report, error) {
	started := time.Now()
	report := Report{Items: make([]Item, 0, len(files))}

	for i, file := range files {
		item := Item{Index: i, FileName: file.FileName}

		if err := ctx.Err(); err != nil {
			item.Err = err
		} else {
			item = d.downloadOne(ctx, i, file)
		}

		report.Items = append(report.Items, item)
		if d.progress != nil {
			d.progress(Progress{Done: i + 1, Total: len(files), Item: item})
		}
	}

	report.Duration = time.Since(started)

	failed := report.Failed()
	if len(failed) == 0 {
		d.logger.WithFields(logrus.Fields{
			"files":    len(files),
			"duration": report.Duration.Round(time.Millisecond),
		}).Debug("Artifacts saved")
		return report, nil
	}

	partial := &operation.PartialResultError{Total: len(files)}
	for _, item := range failed {
		partial.Failures = append(partial.Failures, operation.ItemFailure{
			Index:    item.Index,
			FileName: item.FileName,
			Err:      item.Err,
		})
	}

	d.logger.WithFields(logrus.Fields{
		"files":  len(files),
		"failed": len(failed),
	}).Warn("Some artifacts could not be saved")

	return report, partial
}

func (d *Downloader) downloadOne(ctx context.Context, index int, file operation.FileResponse) Item {
	item := Item{Index: index, FileName: file.FileName}
	log := d.logger.WithField("file", file.FileName)

	var data []byte
	err := d.runner.Do(ctx,
		func(ctx context.Context) error {
			var err error
			data, err = d.retriever.RetrieveArtifact(ctx, file.FileName)
			if err != nil {
				return fmt.Errorf("retrieve %s: %w", file.FileName, err)
			}
			return nil
		},
		func() error {
			path, err := d.saver.Save(file.FileName, data)
			if err != nil {
				return fmt.Errorf("save %s: %w", file.FileName, err)
			}
			item.Path = path
			item.Size = int64(len(data))
			return nil
		},
	)
	if err != nil {
		item.Err = err
		log.WithError(err).Warn("Artifact failed")
		return item
	}

	log.WithFields(logrus.Fields{
		"path": item.Path,
		"size": humanize.Bytes(uint64(item.Size)),
	}).Info("Artifact saved")

	return item
}
