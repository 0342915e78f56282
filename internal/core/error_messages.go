package core

// error_messages.go maps technical errors to user-friendly messages with codes
// for support reference. Users quote the code; support staff look it up here.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum size limit
//	          Patterns: "file too large"
//	FILE002 - Empty file: The uploaded file has no content
//	          Patterns: "empty file"
//	FILE003 - Unsupported format: Only .csv and .xlsx are accepted
//	          Patterns: "unsupported format"
//	FILE004 - No file: No file was selected
//	          Patterns: "no file provided"
//	FILE005 - Invalid file: Content does not match the declared format or is malformed
//	          Patterns: "invalid file"
//	FILE006 - Too many files: Upload exceeds the per-upload file limit
//	          Patterns: "too many files"
//
// # Pipeline Errors
//
//	COL001   - Unknown column: Selection names a column the file does not have
//	           Patterns: "unknown column"
//	CHART001 - No numeric columns: Nothing to chart
//	           Patterns: "no numeric columns"
//	EXP001   - Export failed: The table could not be written in the chosen format
//	           Patterns: "serialization failed"
//
// # Session and Request Errors
//
//	SES001 - Session expired: Upload session not found
//	         Patterns: "session not found"
//	SES002 - Not converted: Requested download does not exist
//	         Patterns: "converted file not found"
//	VAL001 - Invalid request: Conversion settings are malformed
//	         Patterns: "invalid request"
//	UPL002 - System busy: Too many conversions in progress
//	         Patterns: "too many conversions"
//	UPL004 - Request cancelled
//	         Patterns: "context canceled"
//	UPL005 - Request timeout
//	         Patterns: "context deadline exceeded"
//	RATE001 - Rate limited
//	         Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the application logs for the
// original technical error.
//
// Errors of this package are matched by type or sentinel first. Anything else
// is matched against the patterns case-insensitively with strings.Contains and
// the first match wins, so specific patterns come before general ones.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors. "empty file" precedes "invalid file" because parse errors
	// wrap it.
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported format",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload CSV (.csv) or Excel (.xlsx) files",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose one or more CSV or Excel files to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "invalid file",
		msg: UserMessage{
			Message: "The file could not be read",
			Action:  "Check that the file is a valid CSV or Excel workbook with consistent rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "too many files",
		msg: UserMessage{
			Message: "Too many files in one upload",
			Action:  "Upload fewer files at a time",
			Code:    "FILE006",
		},
	},

	// Pipeline step errors.
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "A selected column does not exist in the file",
			Action:  "Pick columns from the file's current header",
			Code:    "COL001",
		},
	},
	{
		pattern: "no numeric columns",
		msg: UserMessage{
			Message: "No numeric columns available for visualization",
			Action:  "Select at least one numeric column to show a chart",
			Code:    "CHART001",
		},
	},
	{
		pattern: "serialization failed",
		msg: UserMessage{
			Message: "The converted file could not be written",
			Action:  "Try the other output format or remove unusual characters",
			Code:    "EXP001",
		},
	},

	// Session and request errors.
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Your upload session has expired",
			Action:  "Upload your files again",
			Code:    "SES001",
		},
	},
	{
		pattern: "converted file not found",
		msg: UserMessage{
			Message: "That converted file is not available",
			Action:  "Run the conversion again",
			Code:    "SES002",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The conversion settings are invalid",
			Action:  "Review the options for each file and try again",
			Code:    "VAL001",
		},
	},
	{
		pattern: "too many conversions",
		msg: UserMessage{
			Message: "The system is busy",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try smaller files or try again later",
			Code:    "UPL005",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if code := typedCode(err); code != "" {
		return messageFor(code)
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// typedCode matches the package's own errors by identity. Their text embeds
// file and column names, which must not steer the pattern match.
func typedCode(err error) string {
	var (
		parseErr   *ParseError
		columnErr  *UnknownColumnError
		numericErr *NoNumericColumnError
		serialErr  *SerializationError
	)
	switch {
	case errors.Is(err, ErrEmptyFile):
		return "FILE002"
	case errors.As(err, &parseErr):
		return "FILE005"
	case errors.As(err, &columnErr):
		return "COL001"
	case errors.As(err, &numericErr):
		return "CHART001"
	case errors.As(err, &serialErr):
		return "EXP001"
	case errors.Is(err, ErrFileTooLarge):
		return "FILE001"
	case errors.Is(err, ErrUnsupportedFormat):
		return "FILE003"
	case errors.Is(err, ErrNoFiles):
		return "FILE004"
	case errors.Is(err, ErrTooManyFiles):
		return "FILE006"
	case errors.Is(err, ErrSessionNotFound):
		return "SES001"
	case errors.Is(err, ErrArtifactMissing):
		return "SES002"
	case errors.Is(err, ErrInvalidRequest):
		return "VAL001"
	case errors.Is(err, ErrTooManyConversions), errors.Is(err, ErrConversionRunning):
		return "UPL002"
	case errors.Is(err, context.Canceled):
		return "UPL004"
	case errors.Is(err, context.DeadlineExceeded):
		return "UPL005"
	default:
		return ""
	}
}

func messageFor(code string) UserMessage {
	for _, ep := range errorPatterns {
		if ep.msg.Code == code {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// FormatFileError prefixes the user message with the file it concerns, so
// per-file failures name the offending file.
func FormatFileError(file string, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", file, FormatUserError(err))
}

// IsUserFacing reports whether err matches a known pattern rather than the
// generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// Error() returns the user message; Unwrap() returns the original error.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
