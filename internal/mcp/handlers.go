package mcp

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-ops/internal/download"
	"github.com/a3tai/mcp-pdf-ops/internal/operation"
	"github.com/a3tai/mcp-pdf-ops/internal/panel"
	"github.com/a3tai/mcp-pdf-ops/internal/viewer"
)

func (s *Server) handleMerge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	paths := stringSliceArg(args, "paths")
	if len(paths) == 0 {
		return mcp.NewToolResultError("paths is required"), nil
	}

	params := operation.DefaultParams(operation.KindMerge)
	if name := stringArg(args, "output_file_name"); name != "" {
		params.OutputFileName = name
	}

	return s.runOperation(ctx, operation.KindMerge, paths, params)
}

func (s *Server) handleSplit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	params := operation.DefaultParams(operation.KindSplit)
	if mode := stringArg(args, "mode"); mode != "" {
		params.SplitMode = mode
	}
	params.SplitPoints = stringSliceArg(args, "points")
	if base := stringArg(args, "output_file_name_base"); base != "" {
		params.OutputFileNameBase = base
	}

	return s.runOperation(ctx, operation.KindSplit, []string{path}, params)
}

func (s *Server) handleCompress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	params := operation.DefaultParams(operation.KindCompress)
	if profile := stringArg(args, "profile"); profile != "" {
		params.CompressionProfile = profile
	}
	if quality, ok := intArg(args, "image_quality"); ok {
		params.ImageQuality = quality
	} else if _, present := args["image_quality"]; present {
		return mcp.NewToolResultError("image_quality must be a whole number"), nil
	}
	if name := stringArg(args, "output_file_name"); name != "" {
		params.OutputFileName = name
	}

	return s.runOperation(ctx, operation.KindCompress, []string{path}, params)
}

func (s *Server) handleConvert(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	params := operation.DefaultParams(operation.KindConvert)
	if format := stringArg(args, "format"); format != "" {
		params.ImageFormat = format
	}
	if dpi, ok := intArg(args, "dpi"); ok {
		params.DPI = dpi
	} else if _, present := args["dpi"]; present {
		return mcp.NewToolResultError("dpi must be a whole number"), nil
	}
	params.Pages = stringArg(args, "pages")
	if base := stringArg(args, "output_file_name_base"); base != "" {
		params.OutputFileNameBase = base
	}

	return s.runOperation(ctx, operation.KindConvert, []string{path}, params)
}

func (s *Server) handleMetadata(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.runOperation(ctx, operation.KindMetadata, []string{path}, operation.DefaultParams(operation.KindMetadata))
}

func (s *Server) handleExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	params := operation.DefaultParams(operation.KindExtract)
	params.Pages = stringArg(args, "pages")
	params.ExtractImages = boolArg(args, "extract_images")

	var opts []panel.Option
	if save := boolArg(args, "download_images"); save != nil {
		opts = append(opts, panel.WithAutoDownload(*save))
	}

	return s.runOperation(ctx, operation.KindExtract, []string{path}, params, opts...)
}

func (s *Server) handleValidatePDFA(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := operation.DefaultParams(operation.KindValidatePDFA)
	params.ConformanceLevel = stringArg(request.GetArguments(), "conformance_level")

	return s.runOperation(ctx, operation.KindValidatePDFA, []string{path}, params)
}

func (s *Server) handleConvertPDFA(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	params := operation.DefaultParams(operation.KindConvertPDFA)
	if level := stringArg(args, "conformance_level"); level != "" {
		params.ConformanceLevel = level
	}
	params.OutputFileName = stringArg(args, "output_file_name")
	if copyMetadata := boolArg(args, "copy_metadata"); copyMetadata != nil {
		params.CopyMetadata = copyMetadata
	}
	if embedFonts := boolArg(args, "embed_fonts"); embedFonts != nil {
		params.EmbedFonts = embedFonts
	}

	return s.runOperation(ctx, operation.KindConvertPDFA, []string{path}, params)
}

func (s *Server) handleView(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()
	page, ok := intArg(args, "page")
	if _, present := args["page"]; present && !ok {
		return mcp.NewToolResultError("page must be a whole number"), nil
	}

	files, err := s.loadFiles([]string{path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	file := files[0]

	v := viewer.NewLocalViewer(s.config.ViewerLicenseKey, viewer.WithLogger(s.logger))
	defer v.Destroy()

	if err := v.Open(ctx, viewer.Document{Name: file.Name, ContentType: file.ContentType, Data: file.Data}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := v.Info()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := formatViewInfo(info)
	if page > 0 {
		text, err := v.PageText(page)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		responseText += fmt.Sprintf("\nPage %d text:\n%s\n", page, text)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleOpsInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatOpsInfo(s.listInputPDFs())), nil
}

// runOperation drives one panel through select, submit and download and
// renders the outcome. Failures become tool errors.
func (s *Server) runOperation(
	ctx context.Context, kind operation.Kind, paths []string, params operation.Params, opts ...panel.Option,
) (*mcp.CallToolResult, error) {
	cfg := operation.MustLookup(kind)
	if cfg.MaxFiles > 0 && len(paths) > cfg.MaxFiles {
		return mcp.NewToolResultError(
			fmt.Sprintf("%s accepts at most %d file(s), got %d", cfg.Title, cfg.MaxFiles, len(paths))), nil
	}

	files, err := s.loadFiles(paths)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	downloader := download.NewDownloader(s.backend, s.saver,
		download.WithDelay(s.config.DownloadDelay),
		download.WithLogger(s.logger),
	)

	opts = append([]panel.Option{
		panel.WithDownloader(downloader),
		panel.WithLogger(s.logger),
		panel.WithParams(params),
	}, opts...)

	p, err := panel.New(kind, s.backend, opts...)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer p.Close()

	if err := p.Select(files...); err != nil {
		return mcp.NewToolResultError(operation.UserMessage(err)), nil
	}

	log := s.logger.WithFields(logrus.Fields{
		"operation": kind,
		"files":     len(files),
	})
	log.Debug("Running operation")

	result, err := p.Submit(ctx)
	if result == nil {
		log.WithError(err).Info("Operation failed")
		return mcp.NewToolResultError(operation.UserMessage(err)), nil
	}

	return mcp.NewToolResultText(formatOperationResult(p.Snapshot())), nil
}

// loadFiles resolves every path inside the input directory and reads it
func (s *Server) loadFiles(paths []string) ([]operation.FilePayload, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one path is required")
	}

	files := make([]operation.FilePayload, 0, len(paths))
	for _, path := range paths {
		resolved, err := s.input.Resolve(path)
		if err != nil {
			return nil, err
		}
		file, err := operation.LoadFile(resolved, s.config.MaxFileSize)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// Argument helpers. Tool arguments arrive as decoded JSON.

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// stringSliceArg accepts a JSON array of strings or a comma separated string
func stringSliceArg(args map[string]any, key string) []string {
	var raw []string
	switch v := args[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		raw = v
	case string:
		raw = strings.Split(v, ",")
	}

	values := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			values = append(values, s)
		}
	}
	return values
}

func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

func boolArg(args map[string]any, key string) *bool {
	switch v := args[key].(type) {
	case bool:
		return &v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return &b
		}
	}
	return nil
}
