// Package viewer opens PDF documents for interactive inspection. It is the
// local stand-in for the embedded viewing component: a document is opened
// from bytes and released with Destroy.
package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-ops/internal/operation"
)

var (
	// ErrDestroyed is returned by every call after Destroy
	ErrDestroyed = errors.New("viewer has been destroyed")

	// ErrNotOpen is returned when no document is loaded
	ErrNotOpen = errors.New("no document open")
)

// Document is the input to Open
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Viewer is the capability surface the front-ends rely on
type Viewer interface {
	Open(ctx context.Context, doc Document) error
	Destroy() error
}

// Info describes the open document
type Info struct {
	Name     string
	Size     int64
	Pages    int
	Version  string
	Title    string
	Author   string
	Subject  string
	Creator  string
	Producer string
	Licensed bool
}

type openDocument struct {
	info   Info
	reader *pdf.Reader
}

// LocalViewer reads documents with pdfcpu for structure and document
// information, and with ledongthuc/pdf for page text.
type LocalViewer struct {
	licenseKey string
	logger     *logrus.Logger

	mu        sync.Mutex
	doc       *openDocument
	destroyed bool
}

// Option configures a LocalViewer
type Option func(*LocalViewer)

// WithLogger sets a logger
func WithLogger(logger *logrus.Logger) Option {
	return func(v *LocalViewer) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewLocalViewer creates a viewer bound to the process-wide license key.
// The key is fixed for the lifetime of the viewer.
func NewLocalViewer(licenseKey string, opts ...Option) *LocalViewer {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	v := &LocalViewer{
		licenseKey: strings.TrimSpace(licenseKey),
		logger:     discard,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Licensed reports whether a license key was configured
func (v *LocalViewer) Licensed() bool {
	return v.licenseKey != ""
}

// Open loads doc, replacing any document already open
func (v *LocalViewer) Open(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	destroyed := v.destroyed
	v.mu.Unlock()
	if destroyed {
		return ErrDestroyed
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = operation.DeclaredContentType(doc.Name, doc.Data)
	}
	payload := operation.FilePayload{Name: doc.Name, ContentType: contentType, Data: doc.Data}
	if err := operation.CheckSelectable(payload); err != nil {
		return err
	}
	if len(doc.Data) == 0 {
		return fmt.Errorf("document is empty: %s", doc.Name)
	}

	opened, err := v.load(doc)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed {
		return ErrDestroyed
	}
	v.doc = opened

	v.logger.WithFields(logrus.Fields{
		"file":     doc.Name,
		"pages":    opened.info.Pages,
		"licensed": opened.info.Licensed,
	}).Debug("Document opened")

	return nil
}

func (v *LocalViewer) load(doc Document) (*openDocument, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(doc.Data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	info := Info{
		Name:     doc.Name,
		Size:     int64(len(doc.Data)),
		Pages:    ctx.PageCount,
		Licensed: v.Licensed(),
	}
	if ctx.HeaderVersion != nil {
		info.Version = ctx.HeaderVersion.String()
	}

	// the information dictionary is only parsed during validation
	if err := api.ValidateContext(ctx); err == nil {
		info.Title = ctx.Title
		info.Author = ctx.Author
		info.Subject = ctx.Subject
		info.Creator = ctx.Creator
		info.Producer = ctx.Producer
	} else {
		v.logger.WithError(err).WithField("file", doc.Name).Debug("Document information unavailable")
	}

	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF text layer: %w", err)
	}

	return &openDocument{info: info, reader: reader}, nil
}

// Info returns the open document's description
func (v *LocalViewer) Info() (Info, error) {
	doc, err := v.current()
	if err != nil {
		return Info{}, err
	}
	return doc.info, nil
}

// Pages returns the page count of the open document
func (v *LocalViewer) Pages() (int, error) {
	doc, err := v.current()
	if err != nil {
		return 0, err
	}
	return doc.info.Pages, nil
}

// PageText returns the plain text of a 1-based page
func (v *LocalViewer) PageText(pageNum int) (text string, err error) {
	doc, err := v.current()
	if err != nil {
		return "", err
	}

	if pageNum < 1 || pageNum > doc.reader.NumPage() {
		return "", fmt.Errorf("invalid page number %d (document has %d pages)", pageNum, doc.reader.NumPage())
	}

	page := doc.reader.Page(pageNum)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d not found", pageNum)
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("failed to extract text from page %d: %v", pageNum, r)
		}
	}()

	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", pageNum, err)
	}
	return strings.TrimSpace(text), nil
}

// Destroy releases the open document. The viewer cannot be used again.
func (v *LocalViewer) Destroy() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.destroyed {
		return ErrDestroyed
	}
	v.destroyed = true
	v.doc = nil
	return nil
}

func (v *LocalViewer) current() (*openDocument, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.destroyed {
		return nil, ErrDestroyed
	}
	if v.doc == nil {
		return nil, ErrNotOpen
	}
	return v.doc, nil
}
