package operation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout is the ceiling for one backend exchange. Server-side
	// processing of large documents can take minutes.
	DefaultTimeout = 5 * time.Minute

	// DefaultUserAgent is sent with every request unless overridden
	DefaultUserAgent = "mcp-pdf-ops"

	// maxEnvelopeSize bounds how much of a JSON response is read
	maxEnvelopeSize = 64 * 1024 * 1024

	requestIDHeader = "X-Request-ID"
)

// Client submits operation requests to the backend and retrieves the
// artifacts they produce.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *logrus.Logger
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout sets the per-request ceiling
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets a logger
func WithLogger(logger *logrus.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// NewClient creates a client for the backend rooted at baseURL
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", baseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q: missing host", baseURL)
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		userAgent:  DefaultUserAgent,
		logger:     discard,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the backend root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Submit validates req and performs exactly one multipart POST to the
// endpoint of its kind. On success the envelope data is unwrapped into a
// typed Result; every failure is an *OperationError.
func (c *Client) Submit(ctx context.Context, req Request) (*Result, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	kind := req.Kind()
	cfg := MustLookup(kind)
	requestID := uuid.NewString()
	log := c.logger.WithFields(logrus.Fields{
		"operation":  kind,
		"request_id": requestID,
	})

	body, contentType, err := encodeMultipart(req)
	if err != nil {
		return nil, &OperationError{Type: ErrorTypeValidation, Kind: kind, Message: "failed to encode request", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+cfg.Path, body)
	if err != nil {
		return nil, &OperationError{Type: ErrorTypeTransport, Kind: kind, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(requestIDHeader, requestID)

	log.WithFields(logrus.Fields{
		"files": len(req.Inputs()),
		"bytes": body.Len(),
	}).Debug("Submitting operation")

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		opErr := c.transportError(ctx, kind, err)
		log.WithError(err).Warn("Operation request failed")
		return nil, opErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeSize))
	if err != nil {
		return nil, c.transportError(ctx, kind, fmt.Errorf("failed to read response: %w", err))
	}

	log = log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(started).Round(time.Millisecond),
	})

	var env Envelope[json.RawMessage]
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := ""
		if decodeErr == nil {
			msg = env.Message
		}
		log.WithField("message", msg).Warn("Backend rejected operation")
		return nil, &OperationError{
			Type:       ErrorTypeServer,
			Kind:       kind,
			Message:    msg,
			StatusCode: resp.StatusCode,
		}
	}

	if decodeErr != nil {
		log.WithError(decodeErr).Warn("Backend returned an undecodable response")
		return nil, &OperationError{
			Type:       ErrorTypeServer,
			Kind:       kind,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode response: %w", decodeErr),
		}
	}

	if !env.Success {
		log.WithField("message", env.Message).Warn("Backend reported failure")
		return nil, &OperationError{
			Type:       ErrorTypeServer,
			Kind:       kind,
			Message:    env.Message,
			StatusCode: resp.StatusCode,
		}
	}

	result, err := unwrapResult(cfg, env)
	if err != nil {
		return nil, &OperationError{
			Type:       ErrorTypeServer,
			Kind:       kind,
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}

	log.WithField("artifacts", len(result.Artifacts)).Info("Operation succeeded")
	return result, nil
}

// RetrieveArtifact downloads the raw bytes of an artifact by file name.
// The content is returned untouched.
func (c *Client) RetrieveArtifact(ctx context.Context, fileName string) ([]byte, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, NewValidationError("", "file name cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	downloadURL := c.baseURL + "/download/" + url.PathEscape(fileName)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, &OperationError{Type: ErrorTypeTransport, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(requestIDHeader, uuid.NewString())

	c.logger.WithField("file", fileName).Debug("Retrieving artifact")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		opErr := c.transportError(ctx, "", err)
		opErr.Message = fmt.Sprintf("Failed to download %s", fileName)
		return nil, opErr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &OperationError{
			Type:       ErrorTypeServer,
			Message:    fmt.Sprintf("Failed to download %s", fileName),
			StatusCode: resp.StatusCode,
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		opErr := c.transportError(ctx, "", fmt.Errorf("failed to read artifact: %w", err))
		opErr.Message = fmt.Sprintf("Failed to download %s", fileName)
		return nil, opErr
	}

	return data, nil
}

// transportError classifies a failed exchange as a timeout or a plain
// network failure.
func (c *Client) transportError(ctx context.Context, kind Kind, err error) *OperationError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &OperationError{
			Type:    ErrorTypeTimeout,
			Kind:    kind,
			Message: fmt.Sprintf("Request timed out after %s", c.timeout),
			Err:     err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &OperationError{
			Type:    ErrorTypeTimeout,
			Kind:    kind,
			Message: fmt.Sprintf("Request timed out after %s", c.timeout),
			Err:     err,
		}
	}

	return &OperationError{Type: ErrorTypeTransport, Kind: kind, Err: err}
}

func unwrapResult(cfg OperationConfig, env Envelope[json.RawMessage]) (*Result, error) {
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("response has no data")
	}

	result := &Result{
		Kind:    cfg.Kind,
		Message: env.Message,
		Shape:   cfg.Shape,
	}

	switch cfg.Shape {
	case ShapeArtifact:
		var file FileResponse
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to decode artifact: %w", err)
		}
		if file.FileName == "" {
			return nil, fmt.Errorf("artifact has no file name")
		}
		result.Artifacts = []FileResponse{file}
	case ShapeArtifactList:
		var files []FileResponse
		if err := json.Unmarshal(data, &files); err != nil {
			return nil, fmt.Errorf("failed to decode artifact list: %w", err)
		}
		for i, f := range files {
			if f.FileName == "" {
				return nil, fmt.Errorf("artifact %d has no file name", i)
			}
		}
		result.Artifacts = files
	case ShapeMetadata:
		var meta MetadataResponse
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
		result.Metadata = &meta
	case ShapeExtraction:
		var extraction DataExtractionResponse
		if err := json.Unmarshal(data, &extraction); err != nil {
			return nil, fmt.Errorf("failed to decode extraction: %w", err)
		}
		result.Extraction = &extraction
	case ShapeValidation:
		var validation PdfAValidationResponse
		if err := json.Unmarshal(data, &validation); err != nil {
			return nil, fmt.Errorf("failed to decode validation: %w", err)
		}
		result.Validation = &validation
	default:
		return nil, fmt.Errorf("unsupported result shape: %s", cfg.Shape)
	}

	return result, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeMultipart writes one part per file, keeping the declared content
// type, followed by one part per scalar field in order.
func encodeMultipart(req Request) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, input := range req.Inputs() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(input.FieldName), quoteEscaper.Replace(input.File.Name)))
		contentType := input.File.ContentType
		if contentType == "" {
			contentType = PDFContentType
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create file part: %w", err)
		}
		if _, err := part.Write(input.File.Data); err != nil {
			return nil, "", fmt.Errorf("failed to write file part: %w", err)
		}
	}

	for _, field := range req.Fields() {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", field.Name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}
