// Package panel implements the per-panel lifecycle shared by every
// operation: select files, set parameters, submit, then collect the
// result and its downloaded artifacts.
package panel

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-ops/internal/download"
	"github.com/a3tai/mcp-pdf-ops/internal/operation"
)

// Submitter performs the backend exchange for a request
type Submitter interface {
	Submit(ctx context.Context, req operation.Request) (*operation.Result, error)
}

// ArtifactDownloader retrieves and saves the artifacts of a result
type ArtifactDownloader interface {
	DownloadAll(ctx context.Context, files []operation.FileResponse) (download.Report, error)
}

const subscriberBuffer = 16

// Snapshot is a copy of the panel's observable state
type Snapshot struct {
	Kind   operation.Kind
	State  State
	Files  []operation.FilePayload
	Params operation.Params
	Notice string
	Err    error
	Result *operation.Result
	Report *download.Report
}

// Option configures a Panel
type Option func(*Panel)

// WithDownloader enables saving artifacts after a successful submit
func WithDownloader(d ArtifactDownloader) Option {
	return func(p *Panel) {
		p.downloader = d
	}
}

// WithAutoDownload overrides whether artifacts are downloaded after a
// successful submit. The default follows the operation's registration.
func WithAutoDownload(enabled bool) Option {
	return func(p *Panel) {
		p.autoDownload = enabled
	}
}

// WithLogger sets a logger
func WithLogger(logger *logrus.Logger) Option {
	return func(p *Panel) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithParams replaces the default form values
func WithParams(params operation.Params) Option {
	return func(p *Panel) {
		p.params = params
	}
}

// Panel is one independent instance of an operation's lifecycle. All
// methods are safe for concurrent use; only one submission can be in
// flight at a time.
type Panel struct {
	cfg          operation.OperationConfig
	client       Submitter
	downloader   ArtifactDownloader
	autoDownload bool
	logger       *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	files       []operation.FilePayload
	params      operation.Params
	notice      string
	err         error
	result      *operation.Result
	report      *download.Report
	subscribers []chan Event
	closed      bool
}

// New creates a panel in the Idle state
func New(kind operation.Kind, client Submitter, opts ...Option) (*Panel, error) {
	cfg, ok := operation.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("unknown operation: %s", kind)
	}
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	p := &Panel{
		cfg:          cfg,
		client:       client,
		autoDownload: cfg.AutoDownload,
		logger:       discard,
		ctx:          ctx,
		cancel:       cancel,
		state:        StateIdle,
		params:       operation.DefaultParams(kind),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Config returns the operation this panel is configured for
func (p *Panel) Config() operation.OperationConfig {
	return p.cfg
}

// State returns the current state
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Select adds files to the selection. Merge panels append every file,
// repeats included; every other panel keeps only the first given file,
// replacing any previous one. Files
// not declared as PDF are rejected and leave the selection and state
// unchanged.
func (p *Panel) Select(files ...operation.FilePayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkEditable(); err != nil {
		return err
	}
	if len(files) == 0 {
		return ErrNoFiles
	}

	for _, f := range files {
		if err := operation.CheckSelectable(f); err != nil {
			p.notice = err.Error()
			return operation.NewValidationError(p.cfg.Kind, "%s", err.Error())
		}
	}

	if p.cfg.AppendOnSelect {
		p.files = append(p.files, files...)
	} else {
		p.files = []operation.FilePayload{files[0]}
	}

	p.notice = ""
	p.err = nil
	p.transition(StateReady)
	return nil
}

// RemoveFile drops the file at index. Removing the last file returns the
// panel to Idle.
func (p *Panel) RemoveFile(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkEditable(); err != nil {
		return err
	}
	if index < 0 || index >= len(p.files) {
		return fmt.Errorf("file index %d out of range", index)
	}

	p.files = append(p.files[:index:index], p.files[index+1:]...)
	if len(p.files) == 0 {
		p.transition(StateIdle)
	} else {
		p.transition(StateReady)
	}
	return nil
}

// SetParams replaces the form values
func (p *Panel) SetParams(params operation.Params) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkEditable(); err != nil {
		return err
	}
	p.params = params
	return nil
}

// Params returns the current form values
func (p *Panel) Params() operation.Params {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params
}

// Submit sends the selection to the backend. It is allowed from Ready and
// from Failed, where it retries with the same files. A validation failure
// makes no network call and leaves the state unchanged; any other outcome
// ends in Succeeded or Failed.
//
// When the result has artifacts and downloading is enabled they are saved
// before the panel leaves Submitting. A partial download keeps the panel
// Succeeded and returns the result together with the
// *operation.PartialResultError.
func (p *Panel) Submit(ctx context.Context) (*operation.Result, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	switch p.state {
	case StateSubmitting:
		p.mu.Unlock()
		return nil, ErrBusy
	case StateIdle:
		p.mu.Unlock()
		return nil, ErrNoFiles
	case StateSucceeded:
		p.mu.Unlock()
		return nil, ErrInvalidTransition
	}

	req, err := operation.BuildRequest(p.cfg.Kind, append([]operation.FilePayload(nil), p.files...), p.params)
	if err == nil {
		err = operation.Validate(req)
	}
	if err != nil {
		p.notice = operation.UserMessage(err)
		p.mu.Unlock()
		return nil, err
	}

	p.notice = ""
	p.err = nil
	p.result = nil
	p.report = nil
	p.transition(StateSubmitting)
	p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.ctx, cancel)
	defer stop()

	log := p.logger.WithField("operation", p.cfg.Kind)
	log.Debug("Panel submitting")

	result, err := p.client.Submit(runCtx, req)
	if err == nil && result == nil {
		err = &operation.OperationError{Type: operation.ErrorTypeServer, Kind: p.cfg.Kind}
	}
	if err != nil {
		p.finish(StateFailed, operation.UserMessage(err), err, nil, nil)
		log.WithError(err).Info("Panel submission failed")
		return nil, err
	}

	notice := result.Message
	if notice == "" {
		notice = p.cfg.Title + " completed"
	}

	var report *download.Report
	var downloadErr error
	if files := result.Downloadables(); p.autoDownload && p.downloader != nil && len(files) > 0 {
		r, err := p.downloader.DownloadAll(runCtx, files)
		report = &r
		if err != nil {
			downloadErr = err
			notice = fmt.Sprintf("%s. %s", notice, operation.UserMessage(err))
		}
	}

	p.finish(StateSucceeded, notice, downloadErr, result, report)
	return result, downloadErr
}

// Reset discards the selection and any result and returns to Idle. The
// form values are kept.
func (p *Panel) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.state == StateSubmitting {
		return ErrBusy
	}

	p.files = nil
	p.notice = ""
	p.err = nil
	p.result = nil
	p.report = nil
	p.transition(StateIdle)
	return nil
}

// DismissNotice clears the current notice without changing state
func (p *Panel) DismissNotice() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notice = ""
}

// Close cancels any in-flight submission and ends all subscriptions.
// Later calls to mutating methods return ErrClosed.
func (p *Panel) Close() {
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for _, ch := range p.subscribers {
		close(ch)
	}
	p.subscribers = nil
}

// Subscribe returns a channel receiving every state change. Slow readers
// miss events rather than block the panel. The channel is closed by Close.
func (p *Panel) Subscribe() <-chan Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if p.closed {
		close(ch)
		return ch
	}
	p.subscribers = append(p.subscribers, ch)
	return ch
}

// Snapshot returns a copy of the current state
func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Snapshot{
		Kind:   p.cfg.Kind,
		State:  p.state,
		Files:  append([]operation.FilePayload(nil), p.files...),
		Params: p.params,
		Notice: p.notice,
		Err:    p.err,
		Result: p.result,
	}
	if p.report != nil {
		r := *p.report
		r.Items = append([]download.Item(nil), p.report.Items...)
		snap.Report = &r
	}
	return snap
}

func (p *Panel) finish(state State, notice string, err error, result *operation.Result, report *download.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.notice = notice
	p.err = err
	p.result = result
	p.report = report
	p.transition(state)
}

// checkEditable must be called with mu held
func (p *Panel) checkEditable() error {
	if p.closed {
		return ErrClosed
	}
	switch p.state {
	case StateSubmitting:
		return ErrBusy
	case StateSucceeded:
		return ErrInvalidTransition
	}
	return nil
}

// transition must be called with mu held
func (p *Panel) transition(to State) {
	from := p.state
	p.state = to
	if from == to && to != StateReady {
		return
	}

	event := Event{From: from, To: to, Notice: p.notice}
	for _, ch := range p.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
