package core

import (
	"errors"
	"fmt"
	"strings"
)

// Upload and session errors returned by the Service.
var (
	ErrNoFiles           = errors.New("no file provided")
	ErrTooManyFiles      = errors.New("too many files in one upload")
	ErrFileTooLarge      = errors.New("file too large")
	ErrEmptyFile         = errors.New("empty file")
	ErrSessionNotFound   = errors.New("session not found")
	ErrArtifactMissing   = errors.New("converted file not found")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// ParseError reports input that does not match its declared format or is
// structurally invalid.
type ParseError struct {
	File   string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid file %q (%s): %v", e.File, e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnknownColumnError reports a column selection naming columns the table does
// not have.
type UnknownColumnError struct {
	Missing   []string
	Available []string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %s (available: %s)",
		quoteJoin(e.Missing), quoteJoin(e.Available))
}

// NoNumericColumnError reports a chart request on a table without numeric columns.
type NoNumericColumnError struct {
	Columns []string
}

func (e *NoNumericColumnError) Error() string {
	return fmt.Sprintf("no numeric columns to chart among %s", quoteJoin(e.Columns))
}

// SerializationError reports a failure while encoding a table.
type SerializationError struct {
	Format Format
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization failed (%s): %v", e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// ErrorKind classifies err for metrics labels.
func ErrorKind(err error) string {
	var (
		parseErr   *ParseError
		columnErr  *UnknownColumnError
		numericErr *NoNumericColumnError
		serialErr  *SerializationError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &columnErr):
		return "unknown_column"
	case errors.As(err, &numericErr):
		return "no_numeric_column"
	case errors.As(err, &serialErr):
		return "serialization"
	default:
		return "other"
	}
}

func quoteJoin(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
