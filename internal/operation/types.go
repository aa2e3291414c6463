package operation

import (
	"fmt"
	"strings"
)

// Kind identifies one backend-delegated PDF operation
type Kind string

const (
	KindMerge        Kind = "merge"
	KindSplit        Kind = "split"
	KindCompress     Kind = "compress"
	KindConvert      Kind = "convert"
	KindMetadata     Kind = "metadata"
	KindExtract      Kind = "extract"
	KindValidatePDFA Kind = "validate-pdfa"
	KindConvertPDFA  Kind = "convert-pdfa"
)

// Kinds returns every operation kind in panel order
func Kinds() []Kind {
	return []Kind{
		KindMerge,
		KindSplit,
		KindCompress,
		KindConvert,
		KindMetadata,
		KindExtract,
		KindValidatePDFA,
		KindConvertPDFA,
	}
}

// ParseKind converts a wire name such as "validate-pdfa" into a Kind
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown operation: %q", s)
}

// String returns the wire name of the kind
func (k Kind) String() string {
	return string(k)
}

// PDFContentType is the only declared content type accepted for uploads
const PDFContentType = "application/pdf"

// FilePayload is an opaque input file held in memory
type FilePayload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the payload length in bytes
func (f FilePayload) Size() int64 {
	return int64(len(f.Data))
}

// IsPDF reports whether the declared content type is application/pdf.
// The bytes are never inspected.
func (f FilePayload) IsPDF() bool {
	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct == PDFContentType
}

// Envelope is the uniform wrapper around every mutating backend response
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// FileResponse describes one artifact produced by the backend
type FileResponse struct {
	FileName         string   `json:"fileName"`
	FilePath         string   `json:"filePath"`
	FileSize         int64    `json:"fileSize"`
	DownloadURL      string   `json:"downloadUrl"`
	OriginalSize     *int64   `json:"originalSize,omitempty"`
	CompressionRatio *float64 `json:"compressionRatio,omitempty"`
}

// MetadataResponse is the document information returned by /metadata
type MetadataResponse struct {
	Title            *string `json:"title"`
	Author           *string `json:"author"`
	Subject          *string `json:"subject"`
	Keywords         *string `json:"keywords"`
	Creator          *string `json:"creator"`
	Producer         *string `json:"producer"`
	CreationDate     *string `json:"creationDate"`
	ModificationDate *string `json:"modificationDate"`
	PDFVersion       *string `json:"pdfVersion"`
	PageCount        int     `json:"pageCount"`
	FileSize         int64   `json:"fileSize"`
	IsEncrypted      bool    `json:"isEncrypted"`
	IsLinearized     bool    `json:"isLinearized"`
	HasForms         bool    `json:"hasForms"`
	IsTagged         bool    `json:"isTagged"`
	PDFAConformance  *string `json:"pdfaConformance"`
}

// PageContent is the text of a single page returned by /extract
type PageContent struct {
	PageNumber int    `json:"pageNumber"`
	Text       string `json:"text"`
	WordCount  int    `json:"wordCount"`
}

// ExtractedImage is an image the backend pulled out of the document
type ExtractedImage struct {
	PageNumber  int    `json:"pageNumber"`
	ImageIndex  int    `json:"imageIndex"`
	FileName    string `json:"fileName"`
	DownloadURL string `json:"downloadUrl"`
	FileSize    int64  `json:"fileSize"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Format      string `json:"format"`
}

// DataExtractionResponse is the payload returned by /extract
type DataExtractionResponse struct {
	TextContent    string           `json:"textContent"`
	Pages          []PageContent    `json:"pages"`
	ImageCount     int              `json:"imageCount"`
	Images         []ExtractedImage `json:"images"`
	TableCount     int              `json:"tableCount"`
	WordCount      int              `json:"wordCount"`
	CharacterCount int              `json:"characterCount"`
}

// ValidationIssue is a single PDF/A finding
type ValidationIssue struct {
	Code       string  `json:"code"`
	Message    string  `json:"message"`
	Severity   string  `json:"severity"`
	PageNumber *int    `json:"pageNumber"`
	ObjectType *string `json:"objectType"`
	Context    *string `json:"context"`
}

// PdfAValidationResponse is the payload returned by /validate-pdfa
type PdfAValidationResponse struct {
	IsCompliant      bool              `json:"isCompliant"`
	ConformanceLevel *string           `json:"conformanceLevel"`
	PDFAPart         *int              `json:"pdfaPart"`
	PDFALevel        *string           `json:"pdfaLevel"`
	ErrorCount       int               `json:"errorCount"`
	WarningCount     int               `json:"warningCount"`
	Errors           []ValidationIssue `json:"errors"`
	Warnings         []ValidationIssue `json:"warnings"`
	Summary          string            `json:"summary"`
}

// ResultShape tags which field of a Result carries the unwrapped data
type ResultShape int

const (
	ShapeArtifact ResultShape = iota
	ShapeArtifactList
	ShapeMetadata
	ShapeExtraction
	ShapeValidation
)

// String returns a readable name for the shape
func (s ResultShape) String() string {
	switch s {
	case ShapeArtifact:
		return "artifact"
	case ShapeArtifactList:
		return "artifact-list"
	case ShapeMetadata:
		return "metadata"
	case ShapeExtraction:
		return "extraction"
	case ShapeValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Result is the typed outcome of a successful submission
type Result struct {
	Kind    Kind
	Message string
	Shape   ResultShape

	// Artifacts holds one entry for ShapeArtifact and the ordered
	// sequence for ShapeArtifactList.
	Artifacts  []FileResponse
	Metadata   *MetadataResponse
	Extraction *DataExtractionResponse
	Validation *PdfAValidationResponse
}

// Artifact returns the single artifact of a ShapeArtifact result
func (r *Result) Artifact() (FileResponse, bool) {
	if r == nil || r.Shape != ShapeArtifact || len(r.Artifacts) != 1 {
		return FileResponse{}, false
	}
	return r.Artifacts[0], true
}

// Downloadables lists every retrievable file of the result in order.
// Extracted images are reported as artifact descriptors.
func (r *Result) Downloadables() []FileResponse {
	if r == nil {
		return nil
	}

	files := make([]FileResponse, 0, len(r.Artifacts))
	files = append(files, r.Artifacts...)

	if r.Extraction != nil {
		for _, img := range r.Extraction.Images {
			if img.FileName == "" {
				continue
			}
			files = append(files, FileResponse{
				FileName:    img.FileName,
				FileSize:    img.FileSize,
				DownloadURL: img.DownloadURL,
			})
		}
	}

	return files
}
