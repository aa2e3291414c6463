package operation

// OperationConfig describes how one panel talks to the backend. Every
// panel is this record plus a parameter set; the state machine is shared.
type OperationConfig struct {
	Kind           Kind
	Title          string
	Path           string
	MinFiles       int
	MaxFiles       int // 0 means unlimited
	AppendOnSelect bool
	Shape          ResultShape
	FailureMessage string
	AutoDownload   bool
}

var registry = map[Kind]OperationConfig{
	KindMerge: {
		Kind:           KindMerge,
		Title:          "Merge PDFs",
		Path:           "/merge",
		MinFiles:       2,
		AppendOnSelect: true,
		Shape:          ShapeArtifact,
		FailureMessage: "Failed to merge PDFs",
		AutoDownload:   true,
	},
	KindSplit: {
		Kind:           KindSplit,
		Title:          "Split PDF",
		Path:           "/split",
		MinFiles:       1,
		MaxFiles:       1,
		Shape:          ShapeArtifactList,
		FailureMessage: "Failed to split PDF",
		AutoDownload:   true,
	},
	KindCompress: {
		Kind:           KindCompress,
		Title:          "Compress PDF",
		Path:           "/compress",
		MinFiles:       1,
		MaxFiles:       1,
		Shape:          ShapeArtifact,
		FailureMessage: "Failed to compress PDF",
		AutoDownload:   true,
	},
	KindConvert: {
		Kind:           KindConvert,
		Title:          "Convert PDF to Image",
		Path:           "/convert",
		MinFiles:       1,
		MaxFiles:       1,
		Shape:          ShapeArtifactList,
		FailureMessage: "Failed to convert PDF to image",
		AutoDownload:   true,
	},
	KindMetadata: {
		Kind:           KindMetadata,
		Title:          "PDF Metadata",
		Path:           "/metadata",
		MinFiles:       1,
		MaxFiles:       1,
		Shape:          ShapeMetadata,
		FailureMessage: "Failed to extract metadata",
	},
	KindExtract: {
		Kind:           KindExtract,
		Title:          "Extract Data",
		Path:           "/extract",
		MinFiles:       1,
		MaxFiles:       1,
		Shape:          ShapeExtraction,
		FailureMessage: "Failed to extract data",
	},
	KindValidatePDFA: {
		Kind:           KindValidatePDFA,
		Title:          "Validate PDF/A",
		Path:           "/validate-pdfa",
		MinFiles:       1,
		MaxFiles:       1,
		Shape:          ShapeValidation,
		FailureMessage: "Failed to validate PDF/A",
	},
	KindConvertPDFA: {
		Kind:           KindConvertPDFA,
		Title:          "Convert to PDF/A",
		Path:           "/convert-pdfa",
		MinFiles:       1,
		MaxFiles:       1,
		Shape:          ShapeArtifact,
		FailureMessage: "Failed to convert to PDF/A",
		AutoDownload:   true,
	},
}

// Lookup returns the configuration registered for kind
func Lookup(kind Kind) (OperationConfig, bool) {
	cfg, ok := registry[kind]
	return cfg, ok
}

// MustLookup is Lookup for kinds known at compile time
func MustLookup(kind Kind) OperationConfig {
	cfg, ok := registry[kind]
	if !ok {
		panic("operation: unknown kind " + string(kind))
	}
	return cfg
}

// Params holds the non-file inputs of every panel. Fields unused by a
// kind are ignored when the request is built.
type Params struct {
	OutputFileName     string
	OutputFileNameBase string

	SplitMode   string
	SplitPoints []string

	CompressionProfile string
	ImageQuality       int

	ImageFormat string
	DPI         int
	Pages       string

	ExtractImages *bool

	ConformanceLevel string
	CopyMetadata     *bool
	EmbedFonts       *bool
}

// DefaultParams returns the initial form values of the panel for kind
func DefaultParams(kind Kind) Params {
	switch kind {
	case KindMerge:
		return Params{OutputFileName: "merged.pdf"}
	case KindSplit:
		return Params{
			SplitMode:          SplitModeRanges,
			SplitPoints:        []string{"1-3"},
			OutputFileNameBase: "split",
		}
	case KindCompress:
		return Params{
			CompressionProfile: ProfileWeb,
			ImageQuality:       75,
			OutputFileName:     "compressed.pdf",
		}
	case KindConvert:
		return Params{
			ImageFormat:        FormatPNG,
			DPI:                150,
			OutputFileNameBase: "converted",
		}
	case KindConvertPDFA:
		return Params{
			ConformanceLevel: "2b",
			CopyMetadata:     Bool(true),
			EmbedFonts:       Bool(true),
		}
	default:
		return Params{}
	}
}

// BuildRequest assembles the request variant for kind from the selected
// files and the form parameters. It does not validate.
func BuildRequest(kind Kind, files []FilePayload, p Params) (Request, error) {
	var first FilePayload
	if len(files) > 0 {
		first = files[0]
	}

	switch kind {
	case KindMerge:
		return MergeRequest{Files: files, OutputFileName: p.OutputFileName}, nil
	case KindSplit:
		return SplitRequest{
			File:               first,
			Mode:               p.SplitMode,
			Points:             p.SplitPoints,
			OutputFileNameBase: p.OutputFileNameBase,
		}, nil
	case KindCompress:
		quality := 0
		if p.CompressionProfile == ProfileCustom {
			quality = p.ImageQuality
		}
		return CompressRequest{
			File:           first,
			Profile:        p.CompressionProfile,
			ImageQuality:   quality,
			OutputFileName: p.OutputFileName,
		}, nil
	case KindConvert:
		return ConvertRequest{
			File:               first,
			Format:             p.ImageFormat,
			DPI:                p.DPI,
			Pages:              p.Pages,
			OutputFileNameBase: p.OutputFileNameBase,
		}, nil
	case KindMetadata:
		return MetadataRequest{File: first}, nil
	case KindExtract:
		return ExtractRequest{File: first, ExtractImages: p.ExtractImages, Pages: p.Pages}, nil
	case KindValidatePDFA:
		return ValidatePDFARequest{File: first, ConformanceLevel: p.ConformanceLevel}, nil
	case KindConvertPDFA:
		return ConvertPDFARequest{
			File:             first,
			ConformanceLevel: p.ConformanceLevel,
			OutputFileName:   p.OutputFileName,
			CopyMetadata:     p.CopyMetadata,
			EmbedFonts:       p.EmbedFonts,
		}, nil
	default:
		return nil, NewValidationError(kind, "unknown operation: %s", kind)
	}
}
