package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	// Document operations
	PDFMergeDescription = `Combine two or more PDF documents into a single file on the processing backend.

**When to use:** Several related PDFs need to travel as one document, in a fixed order.

**Why it's useful:** The backend keeps page content and order intact; the merged file is saved into the output directory automatically.

**Examples:**
• Assemble a report: "Merge cover.pdf, body.pdf and appendix.pdf into report.pdf"
• Bundle invoices: "Merge every invoice for March into march-invoices.pdf"

**Common workflows:**
1. Document Assembly: pdf_metadata on each input → pdf_merge → pdf_compress for distribution
2. Archiving: pdf_merge → pdf_convert_pdfa → pdf_validate_pdfa

**Best practices:** Paths are merged in the order given. At least two files are required.`

	PDFSplitDescription = `Split one PDF into several documents by page numbers or page ranges.

**When to use:** Only part of a document is needed, or a large document must be broken into chapters.

**Why it's useful:** Each resulting part is saved separately and numbered in order.

**Examples:**
• Extract chapters: "Split book.pdf with ranges 1-12, 13-40, 41-80"
• Single pages: "Split scan.pdf at pages 3 and 7"

**Common workflows:**
1. Chapter Extraction: pdf_metadata for the page count → pdf_split with ranges
2. Page Cleanup: pdf_split → pdf_merge the parts you keep

**Best practices:** In "pages" mode every point is a positive page number; in "ranges" mode use "a-b" with a ≤ b.`

	PDFCompressDescription = `Reduce the size of a PDF using a web, print or custom compression profile.

**When to use:** A document is too large to email or publish.

**Why it's useful:** Reports the original size and the compression ratio so the saving is visible.

**Examples:**
• Email attachment: "Compress brochure.pdf with the web profile"
• Tuned output: "Compress photos.pdf with a custom profile at image quality 60"

**Best practices:** Image quality (1-100) only applies to the custom profile.`

	PDFConvertDescription = `Render PDF pages to PNG, JPEG or TIFF images.

**When to use:** Pages are needed as pictures for previews, thumbnails or image pipelines.

**Why it's useful:** One image is produced per page and all of them are saved in page order.

**Examples:**
• Thumbnails: "Convert slides.pdf to png at 72 dpi"
• Print proofs: "Convert pages 1-3,7 of poster.pdf to tiff at 600 dpi"

**Best practices:** Supported resolutions are 72, 150, 300 and 600 dpi. Leave pages empty to convert the whole document.`

	PDFMetadataDescription = `Read the document information of a PDF: title, author, dates, version, page count and flags.

**When to use:** Before processing, to learn how many pages a document has or whether it is encrypted or PDF/A.

**Why it's useful:** Nothing is written to disk; the answer comes straight from the backend.

**Examples:**
• Page count before splitting: "How many pages does contract.pdf have?"
• Provenance: "Who produced received-document.pdf and when?"`

	PDFExtractDescription = `Extract the text, page contents and images of a PDF.

**When to use:** The content of a document is needed for analysis, search or summarisation.

**Why it's useful:** Returns the full text with per-page word counts; extracted images can be saved to the output directory.

**Examples:**
• Summarise: "Extract the text of research-paper.pdf"
• Harvest images: "Extract images from catalogue.pdf and download them"

**Best practices:** Restrict to a page selection like "1-3,7" for large documents.`

	PDFValidatePDFADescription = `Check a PDF against the PDF/A archival standard.

**When to use:** A document must be accepted by an archive or a compliance process.

**Why it's useful:** Lists every error and warning with its code, page and context.

**Examples:**
• Archive intake: "Validate thesis.pdf for PDF/A-2b"
• Post-conversion check: "Validate the output of pdf_convert_pdfa"`

	PDFConvertPDFADescription = `Convert a PDF to a PDF/A conformance level for long-term archiving.

**When to use:** A document must be archived and is not yet PDF/A.

**Why it's useful:** Fonts can be embedded and metadata carried over; the converted file is saved automatically.

**Examples:**
• Archive: "Convert minutes.pdf to PDF/A-2b"
• Strict archive: "Convert drawing.pdf to 3u without copying metadata"

**Best practices:** Follow with pdf_validate_pdfa to confirm compliance.`

	PDFViewDescription = `Open a local PDF in the document viewer and report its pages, version and information.

**When to use:** A quick look at a document without contacting the backend.

**Why it's useful:** Optionally returns the plain text of a single page.

**Examples:**
• Peek: "View report.pdf"
• Read one page: "Show the text of page 2 of report.pdf"`

	PDFOpsInfoDescription = `Get the server configuration, the backend in use, the available tools and the PDFs in the input directory.

**When to use:** At the start of a session, to learn which files can be processed and where results are saved.

**Why it's useful:** Shows directories, limits and a short usage guide.

**Examples:**
• Orientation: "Which PDFs can you work on?"
• Troubleshooting: "Which backend are you talking to?"`
)

// ToolDescriptions maps tool names to their full descriptions
var ToolDescriptions = map[string]string{
	"pdf_merge":         PDFMergeDescription,
	"pdf_split":         PDFSplitDescription,
	"pdf_compress":      PDFCompressDescription,
	"pdf_convert":       PDFConvertDescription,
	"pdf_metadata":      PDFMetadataDescription,
	"pdf_extract":       PDFExtractDescription,
	"pdf_validate_pdfa": PDFValidatePDFADescription,
	"pdf_convert_pdfa":  PDFConvertPDFADescription,
	"pdf_view":          PDFViewDescription,
	"pdf_ops_info":      PDFOpsInfoDescription,
}

// GetToolDescription returns the full description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the names of all available tools in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
