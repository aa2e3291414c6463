package mcp

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/a3tai/mcp-pdf-ops/internal/descriptions"
	"github.com/a3tai/mcp-pdf-ops/internal/download"
	"github.com/a3tai/mcp-pdf-ops/internal/operation"
	"github.com/a3tai/mcp-pdf-ops/internal/panel"
	"github.com/a3tai/mcp-pdf-ops/internal/viewer"
)

const maxListedFiles = 10

type inputFile struct {
	Name string
	Size int64
}

func formatOperationResult(snap panel.Snapshot) string {
	var text string
	if snap.Err != nil {
		text = fmt.Sprintf("⚠️  %s\n", snap.Notice)
	} else {
		text = fmt.Sprintf("✅ %s\n", snap.Notice)
	}

	result := snap.Result
	if result == nil {
		return text
	}

	switch result.Shape {
	case operation.ShapeArtifact, operation.ShapeArtifactList:
		text += formatArtifacts(result.Artifacts)
	case operation.ShapeMetadata:
		text += formatMetadata(result.Metadata)
	case operation.ShapeExtraction:
		text += formatExtraction(result.Extraction)
	case operation.ShapeValidation:
		text += formatValidation(result.Validation)
	}

	if snap.Report != nil {
		text += formatReport(*snap.Report)
	}

	return text
}

func formatArtifacts(artifacts []operation.FileResponse) string {
	text := fmt.Sprintf("\nProduced %d file(s):\n", len(artifacts))
	for i, a := range artifacts {
		text += fmt.Sprintf("%d. %s (%s)\n", i+1, a.FileName, humanize.Bytes(uint64(max(a.FileSize, 0))))
		if a.OriginalSize != nil {
			text += fmt.Sprintf("   Original size: %s\n", humanize.Bytes(uint64(max(*a.OriginalSize, 0))))
		}
		if a.CompressionRatio != nil {
			text += fmt.Sprintf("   Reduced by: %.1f%%\n", *a.CompressionRatio)
		}
	}
	return text
}

func formatMetadata(m *operation.MetadataResponse) string {
	if m == nil {
		return ""
	}

	text := "\nPDF Metadata\n"
	optional := []struct {
		label string
		value *string
	}{
		{"Title", m.Title},
		{"Author", m.Author},
		{"Subject", m.Subject},
		{"Keywords", m.Keywords},
		{"Creator", m.Creator},
		{"Producer", m.Producer},
		{"Created", m.CreationDate},
		{"Modified", m.ModificationDate},
		{"PDF Version", m.PDFVersion},
		{"PDF/A Conformance", m.PDFAConformance},
	}
	for _, field := range optional {
		if field.value != nil && *field.value != "" {
			text += fmt.Sprintf("%s: %s\n", field.label, *field.value)
		}
	}

	text += fmt.Sprintf("Pages: %d\n", m.PageCount)
	text += fmt.Sprintf("Size: %s\n", humanize.Bytes(uint64(max(m.FileSize, 0))))
	text += fmt.Sprintf("Encrypted: %t\n", m.IsEncrypted)
	text += fmt.Sprintf("Linearized: %t\n", m.IsLinearized)
	text += fmt.Sprintf("Has Forms: %t\n", m.HasForms)
	text += fmt.Sprintf("Tagged: %t\n", m.IsTagged)

	return text
}

func formatExtraction(e *operation.DataExtractionResponse) string {
	if e == nil {
		return ""
	}

	text := "\nExtracted Content\n"
	text += fmt.Sprintf("Pages: %d\n", len(e.Pages))
	text += fmt.Sprintf("Words: %s\n", humanize.Comma(int64(e.WordCount)))
	text += fmt.Sprintf("Characters: %s\n", humanize.Comma(int64(e.CharacterCount)))
	text += fmt.Sprintf("Tables: %d\n", e.TableCount)
	text += fmt.Sprintf("Images: %d\n", e.ImageCount)

	for _, img := range e.Images {
		text += fmt.Sprintf("  Page %d: %s %dx%d, %s\n",
			img.PageNumber, img.FileName, img.Width, img.Height, humanize.Bytes(uint64(max(img.FileSize, 0))))
	}

	if len(e.Pages) > 0 {
		text += "\nContent:\n"
		for _, page := range e.Pages {
			text += fmt.Sprintf("--- Page %d (%d words) ---\n%s\n", page.PageNumber, page.WordCount, page.Text)
		}
	} else if e.TextContent != "" {
		text += "\nContent:\n" + e.TextContent + "\n"
	}

	return text
}

func formatValidation(v *operation.PdfAValidationResponse) string {
	if v == nil {
		return ""
	}

	text := "\nPDF/A Validation\n"
	if v.IsCompliant {
		text += "Compliant: yes\n"
	} else {
		text += "Compliant: no\n"
	}
	if v.ConformanceLevel != nil && *v.ConformanceLevel != "" {
		text += fmt.Sprintf("Conformance Level: %s\n", *v.ConformanceLevel)
	}
	text += fmt.Sprintf("Errors: %d\n", v.ErrorCount)
	text += fmt.Sprintf("Warnings: %d\n", v.WarningCount)

	text += formatIssues("Errors", v.Errors)
	text += formatIssues("Warnings", v.Warnings)

	if v.Summary != "" {
		text += "\n" + v.Summary + "\n"
	}
	return text
}

func formatIssues(title string, issues []operation.ValidationIssue) string {
	if len(issues) == 0 {
		return ""
	}

	text := fmt.Sprintf("\n%s:\n", title)
	for i, issue := range issues {
		text += fmt.Sprintf("%d. [%s] %s", i+1, issue.Code, issue.Message)
		if issue.PageNumber != nil {
			text += fmt.Sprintf(" (page %d)", *issue.PageNumber)
		}
		text += "\n"
	}
	return text
}

func formatReport(report download.Report) string {
	if report.Total() == 0 {
		return ""
	}

	text := fmt.Sprintf("\nSaved %d of %d file(s):\n", len(report.Saved()), report.Total())
	for _, item := range report.Items {
		if item.OK() {
			text += fmt.Sprintf("• %s → %s (%s)\n", item.FileName, item.Path, humanize.Bytes(uint64(max(item.Size, 0))))
		} else {
			text += fmt.Sprintf("• %s failed: %v\n", item.FileName, item.Err)
		}
	}
	return text
}

func formatViewInfo(info viewer.Info) string {
	text := fmt.Sprintf("Document: %s\n", info.Name)
	text += fmt.Sprintf("Size: %s\n", humanize.Bytes(uint64(max(info.Size, 0))))
	text += fmt.Sprintf("Pages: %d\n", info.Pages)
	if info.Version != "" {
		text += fmt.Sprintf("PDF Version: %s\n", info.Version)
	}

	for _, field := range []struct{ label, value string }{
		{"Title", info.Title},
		{"Author", info.Author},
		{"Subject", info.Subject},
		{"Creator", info.Creator},
		{"Producer", info.Producer},
	} {
		if field.value != "" {
			text += fmt.Sprintf("%s: %s\n", field.label, field.value)
		}
	}

	if !info.Licensed {
		text += "Viewer: unlicensed\n"
	}
	return text
}

func (s *Server) formatOpsInfo(files []inputFile) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("🌐 Backend: %s\n", s.config.APIURL)
	text += fmt.Sprintf("📁 Input Directory: %s\n", s.config.InputDirectory)
	text += fmt.Sprintf("💾 Output Directory: %s\n", s.saver.Dir())
	text += fmt.Sprintf("📏 Max File Size: %s\n", humanize.Bytes(uint64(max(s.config.MaxFileSize, 0))))
	text += fmt.Sprintf("⏱️  Request Timeout: %s\n\n", s.config.RequestTimeout)

	if len(files) > 0 {
		text += fmt.Sprintf("📂 Input Directory Contents (%d PDF files found):\n", len(files))
		for i, file := range files {
			if i >= maxListedFiles {
				text += fmt.Sprintf("   ... and %d more files\n", len(files)-maxListedFiles)
				break
			}
			text += fmt.Sprintf("   %d. %s (%s)\n", i+1, file.Name, humanize.Bytes(uint64(max(file.Size, 0))))
		}
		text += "\n"
	} else {
		text += "📂 Input Directory Contents: No PDF files found\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		summary, _, _ := strings.Cut(descriptions.GetToolDescription(name), "\n")
		text += fmt.Sprintf("• %s: %s\n", name, summary)
	}

	text += "\n💡 Paths may be absolute or relative to the input directory. " +
		"Produced files are saved into the output directory; existing files are never overwritten " +
		"unless the server runs with --overwrite.\n"

	return text
}

// listInputPDFs lists the PDF files at the top of the input directory
func (s *Server) listInputPDFs() []inputFile {
	entries, err := os.ReadDir(s.input.Root())
	if err != nil {
		s.logger.WithError(err).Debug("Cannot list input directory")
		return nil
	}

	var files []inputFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, inputFile{Name: entry.Name(), Size: info.Size()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}
