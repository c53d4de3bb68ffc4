package models

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors match them with errors.Is.
var (
	ErrToolInvocation  = errors.New("tool invocation failed")
	ErrModelInvocation = errors.New("model invocation failed")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
)

// ProbeError reports a failed or unparsable media probe
type ProbeError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("probe %s: %v, stderr: %s", e.Path, e.Err, e.Stderr)
	}
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

func (e *ProbeError) Is(target error) bool { return target == ErrToolInvocation }

// ExtractionError reports a failed audio/frame/subtitle extraction
type ExtractionError struct {
	Op     string
	Path   string
	Stderr string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s %s: %v, stderr: %s", e.Op, e.Path, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrToolInvocation }

// ModelError reports a failed generative model call
type ModelError struct {
	Model string
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s: %v", e.Model, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

func (e *ModelError) Is(target error) bool { return target == ErrModelInvocation }

// NotFound wraps ErrNotFound with a message
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Invalid wraps ErrValidation with a message
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
