package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-ops/internal/config"
	"github.com/a3tai/mcp-pdf-ops/internal/descriptions"
	"github.com/a3tai/mcp-pdf-ops/internal/download"
	"github.com/a3tai/mcp-pdf-ops/internal/fsguard"
	"github.com/a3tai/mcp-pdf-ops/internal/logging"
	"github.com/a3tai/mcp-pdf-ops/internal/panel"
)

const shutdownTimeout = 5 * time.Second

// Backend is the processing service the tools talk to
type Backend interface {
	panel.Submitter
	download.Retriever
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	backend   Backend
	input     *fsguard.Guard
	saver     *download.LocalSaver
	mcpServer *server.MCPServer
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, backend Backend, logger *logrus.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	input, err := fsguard.New(cfg.InputDirectory)
	if err != nil {
		return nil, fmt.Errorf("invalid input directory: %w", err)
	}

	saver, err := download.NewLocalSaver(cfg.OutputDirectory, cfg.Overwrite)
	if err != nil {
		return nil, fmt.Errorf("invalid output directory: %w", err)
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool list is fixed
	)

	s := &Server{
		config:    cfg,
		backend:   backend,
		input:     input,
		saver:     saver,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	pathParam := mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path to the PDF file, absolute or relative to the input directory"),
	)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_merge",
		mcp.WithDescription(descriptions.PDFMergeDescription),
		mcp.WithArray("paths",
			mcp.Required(),
			mcp.Description("Paths of the PDF files to merge, in order"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("output_file_name",
			mcp.Description("Name of the merged file (default: merged.pdf)"),
		),
	), s.handleMerge)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_split",
		mcp.WithDescription(descriptions.PDFSplitDescription),
		pathParam,
		mcp.WithString("mode",
			mcp.Description("Split by single pages or by page ranges (default: ranges)"),
			mcp.Enum("pages", "ranges"),
		),
		mcp.WithArray("points",
			mcp.Required(),
			mcp.Description(`Split points: page numbers like "3" in pages mode, ranges like "1-3" in ranges mode`),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("output_file_name_base",
			mcp.Description("Base name of the resulting parts (default: split)"),
		),
	), s.handleSplit)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_compress",
		mcp.WithDescription(descriptions.PDFCompressDescription),
		pathParam,
		mcp.WithString("profile",
			mcp.Description("Compression profile (default: web)"),
			mcp.Enum("web", "print", "custom"),
		),
		mcp.WithNumber("image_quality",
			mcp.Description("Image quality 1-100, custom profile only (default: 75)"),
		),
		mcp.WithString("output_file_name",
			mcp.Description("Name of the compressed file (default: compressed.pdf)"),
		),
	), s.handleCompress)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_convert",
		mcp.WithDescription(descriptions.PDFConvertDescription),
		pathParam,
		mcp.WithString("format",
			mcp.Description("Image format (default: png)"),
			mcp.Enum("png", "jpeg", "tiff"),
		),
		mcp.WithNumber("dpi",
			mcp.Description("Resolution: 72, 150, 300 or 600 (default: 150)"),
		),
		mcp.WithString("pages",
			mcp.Description(`Page selection like "1-3,7" (default: all pages)`),
		),
		mcp.WithString("output_file_name_base",
			mcp.Description("Base name of the images (default: converted)"),
		),
	), s.handleConvert)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_metadata",
		mcp.WithDescription(descriptions.PDFMetadataDescription),
		pathParam,
	), s.handleMetadata)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_extract",
		mcp.WithDescription(descriptions.PDFExtractDescription),
		pathParam,
		mcp.WithString("pages",
			mcp.Description(`Page selection like "1-3,7" (default: all pages)`),
		),
		mcp.WithBoolean("extract_images",
			mcp.Description("Also extract embedded images"),
		),
		mcp.WithBoolean("download_images",
			mcp.Description("Save extracted images into the output directory"),
		),
	), s.handleExtract)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_validate_pdfa",
		mcp.WithDescription(descriptions.PDFValidatePDFADescription),
		pathParam,
		mcp.WithString("conformance_level",
			mcp.Description("Conformance level to validate against, e.g. 2b (default: detected)"),
		),
	), s.handleValidatePDFA)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_convert_pdfa",
		mcp.WithDescription(descriptions.PDFConvertPDFADescription),
		pathParam,
		mcp.WithString("conformance_level",
			mcp.Description("Target conformance level (default: 2b)"),
			mcp.Enum("1b", "1a", "2b", "2a", "2u", "3b", "3a", "3u"),
		),
		mcp.WithString("output_file_name",
			mcp.Description("Name of the converted file"),
		),
		mcp.WithBoolean("copy_metadata",
			mcp.Description("Carry over document metadata (default: true)"),
		),
		mcp.WithBoolean("embed_fonts",
			mcp.Description("Embed all fonts (default: true)"),
		),
	), s.handleConvertPDFA)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_view",
		mcp.WithDescription(descriptions.PDFViewDescription),
		pathParam,
		mcp.WithNumber("page",
			mcp.Description("1-based page whose text to return (default: none)"),
		),
	), s.handleView)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_ops_info",
		mcp.WithDescription(descriptions.PDFOpsInfoDescription),
	), s.handleOpsInfo)
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode serves the protocol over stdin and stdout until ctx is done
// or stdin is closed
func (s *Server) runStdioMode(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"input_dir":  s.config.InputDirectory,
		"output_dir": s.config.OutputDirectory,
		"api_url":    s.config.APIURL,
	}).Debug("Starting PDF ops MCP server in stdio mode")

	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves the protocol over SSE until ctx is done
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	s.logger.WithField("address", addr).Info("Starting PDF ops MCP server in SSE mode")

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve SSE: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Info("Shutting down SSE server")
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down SSE server: %w", err)
		}
		return nil
	}
}
