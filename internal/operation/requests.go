package operation

import "strconv"

// Request is the tagged union of submittable operations. Each variant
// knows its kind, its file parts and its scalar form fields.
type Request interface {
	Kind() Kind
	Inputs() []FilePart
	Fields() []Field
}

// FilePart is one uploaded file together with its multipart field name
type FilePart struct {
	FieldName string
	File      FilePayload
}

// Field is one scalar multipart part. Array parameters are encoded as
// repeated fields with the same name.
type Field struct {
	Name  string
	Value string
}

// Split modes
const (
	SplitModePages  = "pages"
	SplitModeRanges = "ranges"
)

// Compression profiles
const (
	ProfileWeb    = "web"
	ProfilePrint  = "print"
	ProfileCustom = "custom"
)

// Image formats
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatTIFF = "tiff"
)

// ConformanceLevels lists the PDF/A levels accepted by /convert-pdfa
var ConformanceLevels = []string{"1b", "1a", "2b", "2a", "2u", "3b", "3a", "3u"}

// SupportedDPI lists the resolutions accepted by /convert
var SupportedDPI = []int{72, 150, 300, 600}

// MergeRequest combines two or more PDFs into one
type MergeRequest struct {
	Files          []FilePayload `validate:"min=2"`
	OutputFileName string
}

func (r MergeRequest) Kind() Kind { return KindMerge }

func (r MergeRequest) Inputs() []FilePart {
	parts := make([]FilePart, 0, len(r.Files))
	for _, f := range r.Files {
		parts = append(parts, FilePart{FieldName: "files", File: f})
	}
	return parts
}

func (r MergeRequest) Fields() []Field {
	var fields []Field
	fields = appendOptional(fields, "outputFileName", r.OutputFileName)
	return fields
}

// SplitRequest cuts one PDF at page numbers or into page ranges
type SplitRequest struct {
	File               FilePayload
	Mode               string   `validate:"oneof=pages ranges"`
	Points             []string `validate:"min=1"`
	OutputFileNameBase string
}

func (r SplitRequest) Kind() Kind { return KindSplit }

func (r SplitRequest) Inputs() []FilePart {
	return []FilePart{{FieldName: "file", File: r.File}}
}

func (r SplitRequest) Fields() []Field {
	fields := []Field{{Name: "splitMode", Value: r.Mode}}
	for _, p := range r.Points {
		fields = append(fields, Field{Name: "splitPoints", Value: p})
	}
	fields = appendOptional(fields, "outputFileNameBase", r.OutputFileNameBase)
	return fields
}

// CompressRequest shrinks one PDF with a named profile. ImageQuality is
// only meaningful for the custom profile; zero means unset.
type CompressRequest struct {
	File           FilePayload
	Profile        string `validate:"oneof=web print custom"`
	ImageQuality   int    `validate:"omitempty,min=1,max=100"`
	OutputFileName string
}

func (r CompressRequest) Kind() Kind { return KindCompress }

func (r CompressRequest) Inputs() []FilePart {
	return []FilePart{{FieldName: "file", File: r.File}}
}

func (r CompressRequest) Fields() []Field {
	fields := []Field{{Name: "compressionProfile", Value: r.Profile}}
	if r.Profile == ProfileCustom && r.ImageQuality > 0 {
		fields = append(fields, Field{Name: "imageQuality", Value: strconv.Itoa(r.ImageQuality)})
	}
	fields = appendOptional(fields, "outputFileName", r.OutputFileName)
	return fields
}

// ConvertRequest renders pages of one PDF to images. DPI zero means the
// backend default; an empty Pages selects every page.
type ConvertRequest struct {
	File               FilePayload
	Format             string `validate:"oneof=png jpeg tiff"`
	DPI                int    `validate:"omitempty,oneof=72 150 300 600"`
	Pages              string `validate:"omitempty,pageselector"`
	OutputFileNameBase string
}

func (r ConvertRequest) Kind() Kind { return KindConvert }

func (r ConvertRequest) Inputs() []FilePart {
	return []FilePart{{FieldName: "file", File: r.File}}
}

func (r ConvertRequest) Fields() []Field {
	fields := []Field{{Name: "imageFormat", Value: r.Format}}
	if r.DPI > 0 {
		fields = append(fields, Field{Name: "dpi", Value: strconv.Itoa(r.DPI)})
	}
	fields = appendOptional(fields, "pages", r.Pages)
	fields = appendOptional(fields, "outputFileNameBase", r.OutputFileNameBase)
	return fields
}

// MetadataRequest reads document information from one PDF
type MetadataRequest struct {
	File FilePayload
}

func (r MetadataRequest) Kind() Kind { return KindMetadata }

func (r MetadataRequest) Inputs() []FilePart {
	return []FilePart{{FieldName: "file", File: r.File}}
}

func (r MetadataRequest) Fields() []Field { return nil }

// ExtractRequest pulls text, and optionally images, out of one PDF
type ExtractRequest struct {
	File          FilePayload
	ExtractImages *bool
	Pages         string `validate:"omitempty,pageselector"`
}

func (r ExtractRequest) Kind() Kind { return KindExtract }

func (r ExtractRequest) Inputs() []FilePart {
	return []FilePart{{FieldName: "file", File: r.File}}
}

func (r ExtractRequest) Fields() []Field {
	var fields []Field
	if r.ExtractImages != nil {
		fields = append(fields, Field{Name: "extractImages", Value: strconv.FormatBool(*r.ExtractImages)})
	}
	fields = appendOptional(fields, "pages", r.Pages)
	return fields
}

// ValidatePDFARequest checks one PDF for PDF/A conformance
type ValidatePDFARequest struct {
	File             FilePayload
	ConformanceLevel string `validate:"omitempty,oneof=1b 1a 2b 2a 2u 3b 3a 3u"`
}

func (r ValidatePDFARequest) Kind() Kind { return KindValidatePDFA }

func (r ValidatePDFARequest) Inputs() []FilePart {
	return []FilePart{{FieldName: "file", File: r.File}}
}

func (r ValidatePDFARequest) Fields() []Field {
	var fields []Field
	fields = appendOptional(fields, "conformanceLevel", r.ConformanceLevel)
	return fields
}

// ConvertPDFARequest converts one PDF to the requested PDF/A level
type ConvertPDFARequest struct {
	File             FilePayload
	ConformanceLevel string `validate:"oneof=1b 1a 2b 2a 2u 3b 3a 3u"`
	OutputFileName   string
	CopyMetadata     *bool
	EmbedFonts       *bool
}

func (r ConvertPDFARequest) Kind() Kind { return KindConvertPDFA }

func (r ConvertPDFARequest) Inputs() []FilePart {
	return []FilePart{{FieldName: "file", File: r.File}}
}

func (r ConvertPDFARequest) Fields() []Field {
	fields := []Field{{Name: "conformanceLevel", Value: r.ConformanceLevel}}
	fields = appendOptional(fields, "outputFileName", r.OutputFileName)
	if r.CopyMetadata != nil {
		fields = append(fields, Field{Name: "copyMetadata", Value: strconv.FormatBool(*r.CopyMetadata)})
	}
	if r.EmbedFonts != nil {
		fields = append(fields, Field{Name: "embedFonts", Value: strconv.FormatBool(*r.EmbedFonts)})
	}
	return fields
}

func appendOptional(fields []Field, name, value string) []Field {
	if value == "" {
		return fields
	}
	return append(fields, Field{Name: name, Value: value})
}

// Bool returns a pointer to b, for the optional boolean parameters
func Bool(b bool) *bool {
	return &b
}
