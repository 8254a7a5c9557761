package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the categories of failure a scan can report.
type ErrorType string

const (
	ErrorTypeInvalidImage         ErrorType = "invalid_image"
	ErrorTypeNoQualifyingQuad     ErrorType = "no_qualifying_quadrilateral"
	ErrorTypeDegenerateHomography ErrorType = "degenerate_homography"
	ErrorTypeInvalidConfig        ErrorType = "invalid_config"
	ErrorTypeCanceled             ErrorType = "canceled"
	ErrorTypeInternal             ErrorType = "internal"
)

// Sentinels for errors.Is. A *ScanError matches the sentinel of its Type.
var (
	ErrInvalidImage              = stderrors.New("invalid image")
	ErrNoQualifyingQuadrilateral = stderrors.New("no qualifying quadrilateral")
	ErrDegenerateHomography      = stderrors.New("degenerate homography")
	ErrInvalidConfig             = stderrors.New("invalid config")
	ErrCanceled                  = stderrors.New("scan canceled")
)

// ScanError is a structured pipeline error. Stage names the pipeline step
// that produced it ("preprocess", "homography", ...).
type ScanError struct {
	Type    ErrorType `json:"type"`
	Stage   string    `json:"stage,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *ScanError) Error() string {
	prefix := string(e.Type)
	if e.Stage != "" {
		prefix = e.Stage + ": " + prefix
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's type.
func (e *ScanError) Is(target error) bool {
	return sentinelFor(e.Type) == target
}

func sentinelFor(t ErrorType) error {
	switch t {
	case ErrorTypeInvalidImage:
		return ErrInvalidImage
	case ErrorTypeNoQualifyingQuad:
		return ErrNoQualifyingQuadrilateral
	case ErrorTypeDegenerateHomography:
		return ErrDegenerateHomography
	case ErrorTypeInvalidConfig:
		return ErrInvalidConfig
	case ErrorTypeCanceled:
		return ErrCanceled
	}
	return nil
}

// NewInvalidImageError creates an error for undecodable or degenerate input.
func NewInvalidImageError(stage, message string, cause error) *ScanError {
	return &ScanError{Type: ErrorTypeInvalidImage, Stage: stage, Message: message, Cause: cause}
}

// NewNoQuadError creates the recoverable "nothing qualified" condition.
func NewNoQuadError(stage, message string) *ScanError {
	return &ScanError{Type: ErrorTypeNoQualifyingQuad, Stage: stage, Message: message}
}

// NewDegenerateHomographyError creates an error for a singular corner set.
func NewDegenerateHomographyError(stage, message string, cause error) *ScanError {
	return &ScanError{Type: ErrorTypeDegenerateHomography, Stage: stage, Message: message, Cause: cause}
}

// NewInvalidConfigError creates a configuration validation error
func NewInvalidConfigError(message string) *ScanError {
	return &ScanError{Type: ErrorTypeInvalidConfig, Stage: "config", Message: message}
}

// NewCanceledError wraps a context error observed between stages.
func NewCanceledError(stage string, cause error) *ScanError {
	return &ScanError{Type: ErrorTypeCanceled, Stage: stage, Message: "scan canceled", Cause: cause}
}

// NewInternalError creates a new internal error
func NewInternalError(stage, message string, cause error) *ScanError {
	return &ScanError{Type: ErrorTypeInternal, Stage: stage, Message: message, Cause: cause}
}

// IsType checks if err (or anything it wraps) is a ScanError of errorType.
func IsType(err error, errorType ErrorType) bool {
	var scanErr *ScanError
	if stderrors.As(err, &scanErr) {
		return scanErr.Type == errorType
	}
	return false
}

// TypeOf returns the ScanError type of err, or ErrorTypeInternal.
func TypeOf(err error) ErrorType {
	var scanErr *ScanError
	if stderrors.As(err, &scanErr) {
		return scanErr.Type
	}
	return ErrorTypeInternal
}
