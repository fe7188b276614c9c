package config

import (
	"errors"
	"fmt"

	"github.com/dshills/numbertheorist/internal/config/loader"
)

// Errors returned by configuration operations.
var (
	// ErrValidationFailed is matched by every ValidationError.
	ErrValidationFailed = errors.New("validation failed")

	// ErrUnsupportedFormat indicates a config file with an unknown extension.
	ErrUnsupportedFormat = loader.ErrUnsupportedFormat
)

// ParseError represents an error while parsing a configuration file.
type ParseError = loader.ParseError

// ValidationError describes a validation failure for a setting.
type ValidationError struct {
	// Path is the setting path that failed validation.
	Path string
	// Message describes the validation error.
	Message string
	// Value is the invalid value.
	Value any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value: %v)", e.Path, e.Message, e.Value)
}

// Is allows errors.Is to match ValidationError with ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

func invalid(path string, value any, format string, args ...any) *ValidationError {
	return &ValidationError{
		Path:    path,
		Message: fmt.Sprintf(format, args...),
		Value:   value,
	}
}
