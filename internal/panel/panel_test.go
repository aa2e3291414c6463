package panel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-ops/internal/download"
	"github.com/a3tai/mcp-pdf-ops/internal/operation"
)

// stubClient answers Submit from a queue of canned outcomes
type stubClient struct {
	mu       sync.Mutex
	calls    []operation.Request
	outcomes []func(ctx context.Context) (*operation.Result, error)
}

func (s *stubClient) Submit(ctx context.Context, req operation.Request) (*operation.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	var next func(ctx context.Context) (*operation.Result, error)
	if len(s.outcomes) > 0 {
		next = s.outcomes[0]
		s.outcomes = s.outcomes[1:]
	}
	s.mu.Unlock()

	if next == nil {
		return &operation.Result{Kind: req.Kind(), Message: "ok"}, nil
	}
	return next(ctx)
}

func (s *stubClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func succeed(result *operation.Result) func(context.Context) (*operation.Result, error) {
	return func(context.Context) (*operation.Result, error) { return result, nil }
}

func fail(err error) func(context.Context) (*operation.Result, error) {
	return func(context.Context) (*operation.Result, error) { return nil, err }
}

func pdf(name string) operation.FilePayload {
	return operation.FilePayload{Name: name, ContentType: operation.PDFContentType, Data: []byte("%PDF-" + name)}
}

func TestNew(t *testing.T) {
	_, err := New(operation.Kind("rotate"), &stubClient{})
	assert.Error(t, err)

	_, err = New(operation.KindMerge, nil)
	assert.Error(t, err)

	p, err := New(operation.KindCompress, &stubClient{})
	require.NoError(t, err)
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, operation.ProfileWeb, p.Params().CompressionProfile)
}

func TestPanel_SelectTransitions(t *testing.T) {
	p, err := New(operation.KindSplit, &stubClient{})
	require.NoError(t, err)

	require.NoError(t, p.Select(pdf("a.pdf")))
	assert.Equal(t, StateReady, p.State())

	// reselecting replaces the reference without submitting
	require.NoError(t, p.Select(pdf("a.pdf")))
	require.NoError(t, p.Select(pdf("b.pdf")))
	snap := p.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	require.Len(t, snap.Files, 1)
	assert.Equal(t, "b.pdf", snap.Files[0].Name)

	err = p.Select(operation.FilePayload{Name: "photo.png", ContentType: "image/png", Data: []byte("x")})
	require.Error(t, err)
	assert.True(t, operation.IsValidation(err))
	snap = p.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, "b.pdf", snap.Files[0].Name)
	assert.Equal(t, "photo.png is not a PDF file", snap.Notice)

	assert.ErrorIs(t, p.Select(), ErrNoFiles)
}

func TestPanel_SelectIdempotent(t *testing.T) {
	client := &stubClient{}
	p, err := New(operation.KindMetadata, client)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Select(pdf("same.pdf")))
	}

	snap := p.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Len(t, snap.Files, 1)
	assert.Zero(t, client.callCount())
}

func TestPanel_MergeAppendsAndRemoves(t *testing.T) {
	p, err := New(operation.KindMerge, &stubClient{})
	require.NoError(t, err)

	require.NoError(t, p.Select(pdf("a.pdf"), pdf("b.pdf")))
	require.NoError(t, p.Select(pdf("c.pdf"), pdf("a.pdf")))

	snap := p.Snapshot()
	require.Len(t, snap.Files, 4)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf", "a.pdf"}, names(snap.Files))

	require.NoError(t, p.RemoveFile(1))
	assert.Equal(t, []string{"a.pdf", "c.pdf", "a.pdf"}, names(p.Snapshot().Files))
	assert.Error(t, p.RemoveFile(5))

	require.NoError(t, p.RemoveFile(0))
	require.NoError(t, p.RemoveFile(0))
	require.NoError(t, p.RemoveFile(0))
	assert.Equal(t, StateIdle, p.State())
}

func TestPanel_MergeKeepsRepeatedFile(t *testing.T) {
	client := &stubClient{}
	p, err := New(operation.KindMerge, client, WithAutoDownload(false))
	require.NoError(t, err)

	require.NoError(t, p.Select(pdf("cover.pdf"), pdf("cover.pdf")))
	require.Len(t, p.Snapshot().Files, 2)

	_, err = p.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, client.callCount())
	assert.Len(t, client.calls[0].Inputs(), 2)
}

func TestPanel_MergeNeedsTwoFiles(t *testing.T) {
	client := &stubClient{}
	p, err := New(operation.KindMerge, client)
	require.NoError(t, err)

	_, err = p.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoFiles)

	require.NoError(t, p.Select(pdf("only.pdf")))
	_, err = p.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, operation.IsValidation(err))
	assert.Equal(t, StateReady, p.State())
	assert.Equal(t, "need at least 2 files", p.Snapshot().Notice)
	assert.Zero(t, client.callCount())
}

func TestPanel_SubmitSuccess(t *testing.T) {
	result := &operation.Result{
		Kind:    operation.KindMetadata,
		Message: "Metadata extracted",
		Shape:   operation.ShapeMetadata,
		Metadata: &operation.MetadataResponse{
			PageCount: 3,
		},
	}
	client := &stubClient{outcomes: []func(context.Context) (*operation.Result, error){succeed(result)}}

	p, err := New(operation.KindMetadata, client)
	require.NoError(t, err)
	events := p.Subscribe()

	require.NoError(t, p.Select(pdf("doc.pdf")))
	got, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.Same(t, result, got)

	snap := p.Snapshot()
	assert.Equal(t, StateSucceeded, snap.State)
	assert.Equal(t, "Metadata extracted", snap.Notice)
	assert.Same(t, result, snap.Result)
	assert.Nil(t, snap.Report)

	assert.Equal(t, []State{StateReady, StateSubmitting, StateSucceeded}, drain(events))

	// a finished panel needs an explicit reset
	assert.ErrorIs(t, p.Select(pdf("other.pdf")), ErrInvalidTransition)
	_, err = p.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, p.SetParams(operation.Params{}), ErrInvalidTransition)

	require.NoError(t, p.Reset())
	snap = p.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Files)
	assert.Nil(t, snap.Result)
	assert.Equal(t, 1, client.callCount())
}

func TestPanel_FailureRecovery(t *testing.T) {
	serverErr := &operation.OperationError{Type: operation.ErrorTypeServer, Kind: operation.KindCompress}
	client := &stubClient{outcomes: []func(context.Context) (*operation.Result, error){
		fail(serverErr),
		succeed(&operation.Result{Kind: operation.KindCompress, Shape: operation.ShapeArtifact}),
	}}

	p, err := New(operation.KindCompress, client, WithAutoDownload(false))
	require.NoError(t, err)
	require.NoError(t, p.Select(pdf("big.pdf")))

	_, err = p.Submit(context.Background())
	require.ErrorIs(t, err, serverErr)
	snap := p.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, "Failed to compress PDF", snap.Notice)
	assert.Equal(t, serverErr, snap.Err)

	// retry without reselecting
	_, err = p.Submit(context.Background())
	require.NoError(t, err)
	snap = p.Snapshot()
	assert.Equal(t, StateSucceeded, snap.State)
	assert.Equal(t, "Compress PDF completed", snap.Notice)
	assert.Equal(t, 2, client.callCount())
	assert.Equal(t, "big.pdf", client.calls[1].Inputs()[0].File.Name)
}

func TestPanel_DismissNotice(t *testing.T) {
	client := &stubClient{outcomes: []func(context.Context) (*operation.Result, error){
		fail(&operation.OperationError{Type: operation.ErrorTypeServer, Kind: operation.KindMetadata}),
	}}

	p, err := New(operation.KindMetadata, client)
	require.NoError(t, err)
	require.NoError(t, p.Select(pdf("doc.pdf")))

	_, err = p.Submit(context.Background())
	require.Error(t, err)
	require.Equal(t, "Failed to extract metadata", p.Snapshot().Notice)

	p.DismissNotice()
	snap := p.Snapshot()
	assert.Empty(t, snap.Notice)
	assert.Equal(t, StateFailed, snap.State, "dismissing keeps the state")
}

func TestPanel_FailedThenNewFile(t *testing.T) {
	client := &stubClient{outcomes: []func(context.Context) (*operation.Result, error){
		fail(errors.New("connection refused")),
	}}

	p, err := New(operation.KindExtract, client)
	require.NoError(t, err)
	require.NoError(t, p.Select(pdf("a.pdf")))
	_, err = p.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, p.State())

	require.NoError(t, p.Select(pdf("b.pdf")))
	snap := p.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Empty(t, snap.Notice)
	assert.Nil(t, snap.Err)
}

func TestPanel_ConcurrentSubmitIsBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	client := &stubClient{outcomes: []func(context.Context) (*operation.Result, error){
		func(ctx context.Context) (*operation.Result, error) {
			close(started)
			<-release
			return &operation.Result{Kind: operation.KindMetadata, Shape: operation.ShapeMetadata}, nil
		},
	}}

	p, err := New(operation.KindMetadata, client)
	require.NoError(t, err)
	require.NoError(t, p.Select(pdf("doc.pdf")))

	done := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background())
		done <- err
	}()

	<-started
	assert.Equal(t, StateSubmitting, p.State())
	_, err = p.Submit(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, p.Select(pdf("x.pdf")), ErrBusy)
	assert.ErrorIs(t, p.Reset(), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateSucceeded, p.State())
	assert.Equal(t, 1, client.callCount())
}

func TestPanel_CloseCancelsSubmission(t *testing.T) {
	started := make(chan struct{})
	client := &stubClient{outcomes: []func(context.Context) (*operation.Result, error){
		func(ctx context.Context) (*operation.Result, error) {
			close(started)
			<-ctx.Done()
			return nil, &operation.OperationError{Type: operation.ErrorTypeTransport, Kind: operation.KindExtract, Err: ctx.Err()}
		},
	}}

	p, err := New(operation.KindExtract, client)
	require.NoError(t, err)
	events := p.Subscribe()
	require.NoError(t, p.Select(pdf("doc.pdf")))

	done := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background())
		done <- err
	}()

	<-started
	p.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("submission was not cancelled")
	}

	assert.Equal(t, StateFailed, p.State())
	assert.ErrorIs(t, p.Select(pdf("x.pdf")), ErrClosed)

	// the subscription is closed
	for range events {
	}
}

func TestPanel_ValidationKeepsState(t *testing.T) {
	client := &stubClient{}
	p, err := New(operation.KindSplit, client)
	require.NoError(t, err)
	require.NoError(t, p.Select(pdf("doc.pdf")))

	params := p.Params()
	params.SplitMode = operation.SplitModePages
	params.SplitPoints = []string{"1-3"}
	require.NoError(t, p.SetParams(params))

	_, err = p.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, operation.IsValidation(err))
	assert.Equal(t, StateReady, p.State())
	assert.Contains(t, p.Snapshot().Notice, "invalid split point")
	assert.Zero(t, client.callCount())
}

// fakeBackend serves a convert response with n images and their downloads
func fakeBackend(t *testing.T, n int, failName string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var downloads atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/convert", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "jpeg", r.FormValue("imageFormat"))
		assert.Equal(t, "300", r.FormValue("dpi"))
		assert.Equal(t, "1,3,5", r.FormValue("pages"))

		items := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			items = append(items, fmt.Sprintf(`{"fileName":"page_%d.jpeg","fileSize":4,"downloadUrl":"/download/page_%d.jpeg"}`, i, i))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"message":"Converted","data":[`+strings.Join(items, ",")+`]}`)
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		name := strings.TrimPrefix(r.URL.Path, "/download/")
		if name == failName {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, "img:"+name)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &downloads
}

type timedSaver struct {
	mu    sync.Mutex
	names []string
	times []time.Time
}

func (s *timedSaver) Save(name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
	s.times = append(s.times, time.Now())
	return "/out/" + name, nil
}

func convertPanel(t *testing.T, srv *httptest.Server, saver download.Saver, delay time.Duration) *Panel {
	t.Helper()

	client, err := operation.NewClient(srv.URL)
	require.NoError(t, err)
	downloader := download.NewDownloader(client, saver, download.WithDelay(delay))

	p, err := New(operation.KindConvert, client, WithDownloader(downloader))
	require.NoError(t, err)

	params := p.Params()
	params.ImageFormat = operation.FormatJPEG
	params.DPI = 300
	params.Pages = "1,3,5"
	require.NoError(t, p.SetParams(params))
	require.NoError(t, p.Select(pdf("slides.pdf")))
	return p
}

func TestPanel_ConvertDownloadsEveryArtifact(t *testing.T) {
	const delay = 50 * time.Millisecond

	srv, downloads := fakeBackend(t, 3, "")
	saver := &timedSaver{}
	p := convertPanel(t, srv, saver, delay)

	result, err := p.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Artifacts, 3)

	assert.Equal(t, int32(3), downloads.Load())
	assert.Equal(t, []string{"page_1.jpeg", "page_2.jpeg", "page_3.jpeg"}, saver.names)
	for i := 1; i < len(saver.times); i++ {
		assert.GreaterOrEqual(t, saver.times[i].Sub(saver.times[i-1]), delay-5*time.Millisecond)
	}

	snap := p.Snapshot()
	assert.Equal(t, StateSucceeded, snap.State)
	require.NotNil(t, snap.Report)
	assert.Len(t, snap.Report.Saved(), 3)
	assert.Equal(t, "Converted", snap.Notice)
}

func TestPanel_PartialDownloadStaysSucceeded(t *testing.T) {
	srv, downloads := fakeBackend(t, 3, "page_2.jpeg")
	saver := &timedSaver{}
	p := convertPanel(t, srv, saver, 0)

	result, err := p.Submit(context.Background())
	require.NotNil(t, result)
	require.Error(t, err)
	assert.Equal(t, operation.ErrorTypePartialResult, operation.TypeOf(err))

	assert.Equal(t, int32(3), downloads.Load())
	assert.Equal(t, []string{"page_1.jpeg", "page_3.jpeg"}, saver.names)

	snap := p.Snapshot()
	assert.Equal(t, StateSucceeded, snap.State)
	require.NotNil(t, snap.Report)
	assert.Len(t, snap.Report.Failed(), 1)
	assert.Equal(t, "Converted. Downloaded 2 of 3 files", snap.Notice)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "submitting", StateSubmitting.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateReady.Terminal())
}

func names(files []operation.FilePayload) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Name)
	}
	return out
}

func drain(events <-chan Event) []State {
	var states []State
	for {
		select {
		case e := <-events:
			states = append(states, e.To)
		default:
			return states
		}
	}
}
