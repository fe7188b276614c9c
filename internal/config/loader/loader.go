// Package loader reads configuration files and environment variables into
// Go structs.
//
// The file format is chosen from the extension: .toml is decoded with
// go-toml, .yaml and .yml with yaml.v3. Environment overrides are applied
// afterwards with caarlos0/env, so they always win over file values.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files whose extension has no decoder.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Format identifies a configuration file format.
type Format string

// Supported formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor returns the format implied by path's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// FileSystem is an abstraction for file system operations.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}

// Loader decodes configuration files into structs.
type Loader struct {
	fs FileSystem
}

// New creates a loader reading from fsys. A nil fsys uses the OS.
func New(fsys FileSystem) *Loader {
	if fsys == nil {
		fsys = DefaultFS()
	}
	return &Loader{fs: fsys}
}

// Load decodes the file at path into v.
// It reports false, nil if the file does not exist.
func (l *Loader) Load(path string, v any) (bool, error) {
	format, err := FormatFor(path)
	if err != nil {
		return false, err
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := Decode(format, path, data, v); err != nil {
		return true, err
	}
	return true, nil
}

// Decode parses data in the given format into v.
// Parse failures are reported as *ParseError naming source.
func Decode(format Format, source string, data []byte, v any) error {
	switch format {
	case FormatTOML:
		return decodeTOML(source, data, v)
	case FormatYAML:
		return decodeYAML(source, data, v)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	// Path is the file path that failed to parse.
	Path string
	// Line is the line number where the error occurred (if available).
	Line int
	// Column is the column number where the error occurred (if available).
	Column int
	// Message describes the parse error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
