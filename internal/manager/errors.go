package manager

import (
	"context"
	"errors"

	"hidream/internal/resolve"
	"hidream/pkg/types"
)

// Error categories reported by Kind.
const (
	KindValidation = "validation"
	KindLoad       = "load"
	KindGeneration = "generation"
	KindBusy       = "busy"
	KindCanceled   = "canceled"
	KindInternal   = "internal"
)

// LoadError reports a failed pipeline load. No model is resident afterwards.
type LoadError struct {
	Model types.ModelDescriptor
	Cause error
}

func (e *LoadError) Error() string {
	return "load " + e.Model.String() + " failed: " + e.Cause.Error()
}

func (e *LoadError) Unwrap() error { return e.Cause }

// IsLoadFailed reports whether err is a LoadError.
func IsLoadFailed(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// GenerationError reports a failed generation. The resident model is kept.
type GenerationError struct {
	Model types.ModelDescriptor
	Seed  int64
	Cause error
}

func (e *GenerationError) Error() string {
	return "generation failed: " + e.Cause.Error()
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// IsGenerationFailed reports whether err is a GenerationError.
func IsGenerationFailed(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

// tooBusyError signals queue overflow or wait timeout for 429 mapping.
type tooBusyError struct{ reason string }

func (e tooBusyError) Error() string { return "too busy: " + e.reason }

// ErrTooBusy constructs the backpressure error returned by admission.
func ErrTooBusy(reason string) error { return tooBusyError{reason: reason} }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var tb tooBusyError
	return errors.As(err, &tb)
}

// modelNotFoundError is returned when Ensure is handed a predefined kind the
// registry does not know. Resolved requests never hit this.
type modelNotFoundError struct{ kind string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.kind }

// ErrModelNotFound constructs a modelNotFoundError.
func ErrModelNotFound(kind string) error { return modelNotFoundError{kind: kind} }

// IsModelNotFound reports whether the error indicates an unknown model kind.
func IsModelNotFound(err error) bool {
	var mn modelNotFoundError
	return errors.As(err, &mn)
}

// dependencyUnavailableError signals a missing runtime collaborator.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var du dependencyUnavailableError
	return errors.As(err, &du)
}

// ErrClosed is returned for work that reaches the manager after Close.
var ErrClosed = errors.New("manager closed")

// Kind classifies err for logging and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case resolve.IsValidation(err), IsModelNotFound(err):
		return KindValidation
	case IsLoadFailed(err):
		return KindLoad
	case IsGenerationFailed(err):
		return KindGeneration
	case IsTooBusy(err):
		return KindBusy
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}
