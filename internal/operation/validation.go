package operation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

var fieldLabels = map[string]string{
	"Mode":             "split mode",
	"Profile":          "compression profile",
	"ImageQuality":     "image quality",
	"Format":           "image format",
	"DPI":              "dpi",
	"Pages":            "page selection",
	"ConformanceLevel": "conformance level",
}

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("pageselector", func(fl validator.FieldLevel) bool {
			_, err := ParsePageSelector(fl.Field().String())
			return err == nil
		})
		validate.RegisterStructValidation(splitStructLevel, SplitRequest{})
	})
	return validate
}

// splitStructLevel checks every split point against the selected mode.
// An unknown mode is reported by the oneof tag instead.
func splitStructLevel(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(SplitRequest)
	if !ok {
		return
	}
	if req.Mode != SplitModePages && req.Mode != SplitModeRanges {
		return
	}
	for i, point := range req.Points {
		if CheckSplitPoint(req.Mode, point) != nil {
			sl.ReportError(point, fmt.Sprintf("Points[%d]", i), "Points", "splitpoint", point)
		}
	}
}

// Validate checks that req is submittable: the minimum number of inputs
// is present, each input is a non-empty file declared as PDF, and every
// parameter holds a syntactically valid value. No network call is made.
func Validate(req Request) error {
	if req == nil {
		return NewValidationError("", "no request")
	}

	kind := req.Kind()
	cfg, ok := Lookup(kind)
	if !ok {
		return NewValidationError(kind, "unknown operation: %s", kind)
	}

	if err := validateInputs(cfg, req.Inputs()); err != nil {
		return err
	}

	if err := requestValidator().Struct(req); err != nil {
		return translateValidation(req, err)
	}

	return nil
}

func validateInputs(cfg OperationConfig, parts []FilePart) error {
	selected := 0
	for _, p := range parts {
		if p.File.Name != "" || len(p.File.Data) > 0 {
			selected++
		}
	}

	if selected < cfg.MinFiles {
		if cfg.MinFiles > 1 {
			return NewValidationError(cfg.Kind, "need at least %d files", cfg.MinFiles)
		}
		return NewValidationError(cfg.Kind, "Please select a PDF file")
	}
	if cfg.MaxFiles > 0 && selected > cfg.MaxFiles {
		return NewValidationError(cfg.Kind, "at most %d file(s) allowed, got %d", cfg.MaxFiles, selected)
	}

	for _, p := range parts {
		if err := CheckSelectable(p.File); err != nil {
			return NewValidationError(cfg.Kind, "%s", err.Error())
		}
		if len(p.File.Data) == 0 {
			return NewValidationError(cfg.Kind, "file is empty: %s", p.File.Name)
		}
	}

	return nil
}

// CheckSelectable is the selection-time check applied to dropped or
// chosen files. Only the declared content type is inspected.
func CheckSelectable(f FilePayload) error {
	if !f.IsPDF() {
		name := f.Name
		if name == "" {
			name = "file"
		}
		return fmt.Errorf("%s is not a PDF file", name)
	}
	return nil
}

func translateValidation(req Request, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &OperationError{Type: ErrorTypeValidation, Kind: req.Kind(), Message: err.Error(), Err: err}
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describeFieldError(req, fe))
	}

	return &OperationError{
		Type:    ErrorTypeValidation,
		Kind:    req.Kind(),
		Message: strings.Join(messages, "; "),
		Err:     err,
	}
}

func describeFieldError(req Request, fe validator.FieldError) string {
	label, ok := fieldLabels[fe.StructField()]
	if !ok {
		label = strings.ToLower(fe.StructField())
	}

	switch fe.Tag() {
	case "splitpoint":
		mode := ""
		if split, ok := req.(SplitRequest); ok {
			mode = split.Mode
		}
		if err := CheckSplitPoint(mode, fe.Param()); err != nil {
			return err.Error()
		}
		return fmt.Sprintf("invalid split point %q", fe.Param())
	case "pageselector":
		if _, err := ParsePageSelector(fmt.Sprint(fe.Value())); err != nil {
			return fmt.Sprintf("invalid page selection: %v", err)
		}
		return "invalid page selection"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		switch fe.StructField() {
		case "Files":
			return fmt.Sprintf("need at least %s files", fe.Param())
		case "Points":
			return "Please add at least one split point"
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", label, fe.Tag())
	}
}
