package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/a3tai/mcp-pdf-ops/internal/operation"
	"github.com/a3tai/mcp-pdf-ops/internal/panel"
)

type SummaryRow struct {
	Label string
	Value string
}

// RenderSummary lays rows out as a two column table
func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(row.Label))
		valueWidth = max(valueWidth, lipgloss.Width(row.Value))
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		lines = append(lines, fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value)))
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// SummaryRows describes the final state of a panel
func SummaryRows(snap panel.Snapshot) []SummaryRow {
	cfg := operation.MustLookup(snap.Kind)
	rows := []SummaryRow{
		{Label: "Operation", Value: cfg.Title},
		{Label: "Status", Value: snap.State.String()},
	}
	if snap.Notice != "" {
		rows = append(rows, SummaryRow{Label: "Message", Value: snap.Notice})
	}

	var inputBytes int64
	for _, f := range snap.Files {
		inputBytes += f.Size()
	}
	rows = append(rows, SummaryRow{
		Label: "Input",
		Value: fmt.Sprintf("%d file(s), %s", len(snap.Files), humanize.Bytes(uint64(inputBytes))),
	})

	if r := snap.Result; r != nil {
		rows = append(rows, resultRows(r)...)
	}

	if rep := snap.Report; rep != nil && rep.Total() > 0 {
		var saved int64
		for _, item := range rep.Saved() {
			saved += item.Size
		}
		rows = append(rows,
			SummaryRow{Label: "Saved", Value: fmt.Sprintf("%d of %d (%s)", len(rep.Saved()), rep.Total(), humanize.Bytes(uint64(saved)))},
			SummaryRow{Label: "Download time", Value: rep.Duration.Round(time.Millisecond).String()},
		)
		for _, item := range rep.Items {
			if item.OK() {
				rows = append(rows, SummaryRow{Label: "  " + item.FileName, Value: item.Path})
			} else {
				rows = append(rows, SummaryRow{Label: "  " + item.FileName, Value: "failed: " + item.Err.Error()})
			}
		}
	}

	return rows
}

func resultRows(r *operation.Result) []SummaryRow {
	var rows []SummaryRow

	switch r.Shape {
	case operation.ShapeArtifact, operation.ShapeArtifactList:
		rows = append(rows, SummaryRow{Label: "Produced", Value: fmt.Sprintf("%d file(s)", len(r.Artifacts))})
		if a, ok := r.Artifact(); ok && a.CompressionRatio != nil {
			rows = append(rows, SummaryRow{Label: "Reduced by", Value: fmt.Sprintf("%.1f%%", *a.CompressionRatio)})
		}
	case operation.ShapeMetadata:
		if m := r.Metadata; m != nil {
			rows = append(rows,
				SummaryRow{Label: "Pages", Value: fmt.Sprintf("%d", m.PageCount)},
				SummaryRow{Label: "Size", Value: humanize.Bytes(uint64(max(m.FileSize, 0)))},
			)
			if m.Title != nil && *m.Title != "" {
				rows = append(rows, SummaryRow{Label: "Title", Value: *m.Title})
			}
			if m.Author != nil && *m.Author != "" {
				rows = append(rows, SummaryRow{Label: "Author", Value: *m.Author})
			}
			if m.PDFVersion != nil && *m.PDFVersion != "" {
				rows = append(rows, SummaryRow{Label: "PDF version", Value: *m.PDFVersion})
			}
			rows = append(rows, SummaryRow{Label: "Encrypted", Value: fmt.Sprintf("%t", m.IsEncrypted)})
		}
	case operation.ShapeExtraction:
		if e := r.Extraction; e != nil {
			rows = append(rows,
				SummaryRow{Label: "Pages", Value: fmt.Sprintf("%d", len(e.Pages))},
				SummaryRow{Label: "Words", Value: humanize.Comma(int64(e.WordCount))},
				SummaryRow{Label: "Images", Value: fmt.Sprintf("%d", e.ImageCount)},
				SummaryRow{Label: "Tables", Value: fmt.Sprintf("%d", e.TableCount)},
			)
		}
	case operation.ShapeValidation:
		if v := r.Validation; v != nil {
			compliant := "no"
			if v.IsCompliant {
				compliant = "yes"
			}
			rows = append(rows,
				SummaryRow{Label: "Compliant", Value: compliant},
				SummaryRow{Label: "Errors", Value: fmt.Sprintf("%d", v.ErrorCount)},
				SummaryRow{Label: "Warnings", Value: fmt.Sprintf("%d", v.WarningCount)},
			)
		}
	}

	return rows
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
