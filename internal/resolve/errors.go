package resolve

import "errors"

// Code identifies which input failed validation.
type Code string

const (
	CodeUnknownModel          Code = "unknown_model"
	CodePathNotFound          Code = "path_not_found"
	CodeUnsupportedResolution Code = "unsupported_resolution"
	CodeInvalidSeed           Code = "invalid_seed"
	CodeEmptyPrompt           Code = "empty_prompt"
)

// ValidationError reports malformed caller input. It never implies any
// change to model residency.
type ValidationError struct {
	Code    Code
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CodeOf returns the validation code carried by err, if any.
func CodeOf(err error) (Code, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code, true
	}
	return "", false
}
