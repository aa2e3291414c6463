package cli

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-pdf-ops/internal/operation"
	"github.com/a3tai/mcp-pdf-ops/internal/tui"
	"github.com/a3tai/mcp-pdf-ops/internal/viewer"
)

func (a *app) viewCommand() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "view file.pdf",
		Short: "Open a PDF locally and show its document information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := operation.LoadFile(args[0], a.cfg.MaxFileSize)
			if err != nil {
				return err
			}

			v := viewer.NewLocalViewer(a.cfg.ViewerLicenseKey, viewer.WithLogger(a.logger))
			defer v.Destroy()

			doc := viewer.Document{Name: file.Name, ContentType: file.ContentType, Data: file.Data}
			if err := v.Open(cmd.Context(), doc); err != nil {
				return err
			}
			info, err := v.Info()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderSummary(viewRows(info)))

			if page > 0 {
				text, err := v.PageText(page)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "--- Page %d ---\n%s\n", page, text)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "print the text of this page")
	return cmd
}

func viewRows(info viewer.Info) []tui.SummaryRow {
	rows := []tui.SummaryRow{
		{Label: "Document", Value: info.Name},
		{Label: "Size", Value: humanize.Bytes(uint64(max(info.Size, 0)))},
		{Label: "Pages", Value: strconv.Itoa(info.Pages)},
	}
	for _, field := range []tui.SummaryRow{
		{Label: "PDF version", Value: info.Version},
		{Label: "Title", Value: info.Title},
		{Label: "Author", Value: info.Author},
		{Label: "Producer", Value: info.Producer},
	} {
		if field.Value != "" {
			rows = append(rows, field)
		}
	}
	if !info.Licensed {
		rows = append(rows, tui.SummaryRow{Label: "Viewer", Value: "unlicensed"})
	}
	return rows
}
