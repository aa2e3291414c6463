package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-pdf-ops/internal/operation"
	"github.com/a3tai/mcp-pdf-ops/internal/panel"
)

func (a *app) operationCommands() []*cobra.Command {
	return []*cobra.Command{
		a.mergeCommand(),
		a.splitCommand(),
		a.compressCommand(),
		a.convertCommand(),
		a.metadataCommand(),
		a.extractCommand(),
		a.validatePDFACommand(),
		a.convertPDFACommand(),
	}
}

func (a *app) mergeCommand() *cobra.Command {
	params := operation.DefaultParams(operation.KindMerge)
	cmd := &cobra.Command{
		Use:   "merge file.pdf file.pdf [file.pdf...]",
		Short: "Merge two or more PDFs into one",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.runOperation(cmd, operation.KindMerge, args, params)
			return err
		},
	}
	cmd.Flags().StringVarP(&params.OutputFileName, "output-name", "o", params.OutputFileName, "name of the merged file")
	return cmd
}

func (a *app) splitCommand() *cobra.Command {
	params := operation.DefaultParams(operation.KindSplit)
	cmd := &cobra.Command{
		Use:   "split file.pdf",
		Short: "Split a PDF by page numbers or page ranges",
		Example: "  pdf-ops split report.pdf --by ranges --points 1-3,4-6\n" +
			"  pdf-ops split report.pdf --by pages --points 2,5",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.runOperation(cmd, operation.KindSplit, args, params)
			return err
		},
	}
	cmd.Flags().StringVar(&params.SplitMode, "by", params.SplitMode, "split mode: pages or ranges")
	cmd.Flags().StringSliceVar(&params.SplitPoints, "points", params.SplitPoints, "page numbers or ranges to split at")
	cmd.Flags().StringVar(&params.OutputFileNameBase, "output-base", params.OutputFileNameBase, "base name of the produced files")
	return cmd
}

func (a *app) compressCommand() *cobra.Command {
	params := operation.DefaultParams(operation.KindCompress)
	cmd := &cobra.Command{
		Use:   "compress file.pdf",
		Short: "Reduce the size of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.runOperation(cmd, operation.KindCompress, args, params)
			return err
		},
	}
	cmd.Flags().StringVar(&params.CompressionProfile, "profile", params.CompressionProfile, "compression profile: web, print or custom")
	cmd.Flags().IntVar(&params.ImageQuality, "quality", params.ImageQuality, "image quality 1-100, used by the custom profile")
	cmd.Flags().StringVarP(&params.OutputFileName, "output-name", "o", params.OutputFileName, "name of the compressed file")
	return cmd
}

func (a *app) convertCommand() *cobra.Command {
	params := operation.DefaultParams(operation.KindConvert)
	cmd := &cobra.Command{
		Use:   "convert file.pdf",
		Short: "Render PDF pages as images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.runOperation(cmd, operation.KindConvert, args, params)
			return err
		},
	}
	cmd.Flags().StringVar(&params.ImageFormat, "format", params.ImageFormat, "image format: png, jpeg or tiff")
	cmd.Flags().IntVar(&params.DPI, "dpi", params.DPI, "resolution: 72, 150, 300 or 600")
	cmd.Flags().StringVar(&params.Pages, "pages", "", "pages to render, e.g. 1-3,5 (default all)")
	cmd.Flags().StringVar(&params.OutputFileNameBase, "output-base", params.OutputFileNameBase, "base name of the produced images")
	return cmd
}

func (a *app) metadataCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "metadata file.pdf",
		Short: "Show the document information of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.runOperation(cmd, operation.KindMetadata, args, operation.DefaultParams(operation.KindMetadata))
			return err
		},
	}
}

func (a *app) extractCommand() *cobra.Command {
	params := operation.DefaultParams(operation.KindExtract)
	var (
		images     bool
		saveImages bool
		printText  bool
	)
	cmd := &cobra.Command{
		Use:   "extract file.pdf",
		Short: "Extract text, tables and images from a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []panel.Option
			if cmd.Flags().Changed("images") {
				params.ExtractImages = operation.Bool(images)
			}
			if cmd.Flags().Changed("save-images") {
				opts = append(opts, panel.WithAutoDownload(saveImages))
			}

			result, err := a.runOperation(cmd, operation.KindExtract, args, params, opts...)
			if result != nil && printText && result.Extraction != nil {
				printExtractedText(cmd, result.Extraction)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&params.Pages, "pages", "", "pages to extract, e.g. 1-3,5 (default all)")
	cmd.Flags().BoolVar(&images, "images", false, "extract embedded images")
	cmd.Flags().BoolVar(&saveImages, "save-images", false, "save extracted images into the output directory")
	cmd.Flags().BoolVar(&printText, "text", false, "print the extracted text")
	return cmd
}

func (a *app) validatePDFACommand() *cobra.Command {
	params := operation.DefaultParams(operation.KindValidatePDFA)
	cmd := &cobra.Command{
		Use:   "validate-pdfa file.pdf",
		Short: "Check a PDF for PDF/A compliance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.runOperation(cmd, operation.KindValidatePDFA, args, params)
			if result != nil && result.Validation != nil {
				printIssues(cmd, "Errors", result.Validation.Errors)
				printIssues(cmd, "Warnings", result.Validation.Warnings)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&params.ConformanceLevel, "level", "", "conformance level to check against, e.g. 2b")
	return cmd
}

func (a *app) convertPDFACommand() *cobra.Command {
	params := operation.DefaultParams(operation.KindConvertPDFA)
	var copyMetadata, embedFonts bool
	cmd := &cobra.Command{
		Use:   "convert-pdfa file.pdf",
		Short: "Convert a PDF to PDF/A",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.CopyMetadata = operation.Bool(copyMetadata)
			params.EmbedFonts = operation.Bool(embedFonts)
			_, err := a.runOperation(cmd, operation.KindConvertPDFA, args, params)
			return err
		},
	}
	cmd.Flags().StringVar(&params.ConformanceLevel, "level", params.ConformanceLevel, "target conformance level")
	cmd.Flags().StringVarP(&params.OutputFileName, "output-name", "o", "", "name of the converted file")
	cmd.Flags().BoolVar(&copyMetadata, "copy-metadata", true, "copy the document information")
	cmd.Flags().BoolVar(&embedFonts, "embed-fonts", true, "embed all fonts")
	return cmd
}

func printExtractedText(cmd *cobra.Command, e *operation.DataExtractionResponse) {
	out := cmd.OutOrStdout()
	if len(e.Pages) == 0 {
		fmt.Fprintln(out, e.TextContent)
		return
	}
	for _, page := range e.Pages {
		fmt.Fprintf(out, "--- Page %d ---\n%s\n", page.PageNumber, page.Text)
	}
}

func printIssues(cmd *cobra.Command, title string, issues []operation.ValidationIssue) {
	if len(issues) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s:\n", title)
	for i, issue := range issues {
		fmt.Fprintf(out, "  %d. [%s] %s", i+1, issue.Code, issue.Message)
		if issue.PageNumber != nil {
			fmt.Fprintf(out, " (page %d)", *issue.PageNumber)
		}
		fmt.Fprintln(out)
	}
}
