package core

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Format is a tabular file format understood by the pipeline.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

const (
	contentTypeCSV   = "text/csv"
	contentTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeZip   = "application/zip"
)

// ParseFormat accepts the user-facing names of a format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnsupportedFormat, s)
	}
}

// Extension returns the file extension, including the dot.
func (f Format) Extension() string {
	if f == FormatExcel {
		return ".xlsx"
	}
	return ".csv"
}

// ContentType returns the MIME type used for downloads.
func (f Format) ContentType() string {
	if f == FormatExcel {
		return contentTypeExcel
	}
	return contentTypeCSV
}

// DetectFormat determines the format of an upload from its file extension,
// falling back to the declared content type.
func DetectFormat(name, contentType string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatExcel, nil
	}

	ct := strings.ToLower(contentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	switch strings.TrimSpace(ct) {
	case contentTypeCSV:
		return FormatCSV, nil
	case contentTypeExcel:
		return FormatExcel, nil
	}

	return "", fmt.Errorf("%w for %q: only .csv and .xlsx files are accepted", ErrUnsupportedFormat, name)
}

// UploadedFile is one file received from the user. It is never modified.
type UploadedFile struct {
	Name   string
	Format Format
	Data   []byte
}

// NewUploadedFile detects the file format and wraps the raw bytes.
func NewUploadedFile(name, contentType string, data []byte) (UploadedFile, error) {
	format, err := DetectFormat(name, contentType)
	if err != nil {
		return UploadedFile{}, err
	}
	return UploadedFile{Name: filepath.Base(name), Format: format, Data: data}, nil
}

// Size returns the file size in bytes.
func (f UploadedFile) Size() int64 {
	return int64(len(f.Data))
}

// CleaningOptions selects the cleaning steps applied to a table.
// Steps run in field order: dedupe, then fill, then drop.
type CleaningOptions struct {
	Dedupe             bool
	FillMissingNumeric bool
	DropNullRows       bool
}

// Any reports whether at least one step is enabled.
func (o CleaningOptions) Any() bool {
	return o.Dedupe || o.FillMissingNumeric || o.DropNullRows
}

// ColumnSelection is an ordered set of column names. Empty selects all columns.
type ColumnSelection []string

// ExportArtifact is the serialized form of a table.
type ExportArtifact struct {
	Name   string
	Format Format
	Data   []byte
}

// ContentType returns the MIME type of the artifact.
func (a ExportArtifact) ContentType() string {
	return a.Format.ContentType()
}

// OutputName derives the artifact filename from the source name by swapping
// the extension.
func OutputName(source string, format Format) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		stem = "converted"
	}
	return stem + format.Extension()
}

// FileConfig is the per-file configuration supplied with a conversion.
type FileConfig struct {
	Dedupe             bool     `json:"dedupe"`
	FillMissingNumeric bool     `json:"fill_missing_numeric"`
	DropNullRows       bool     `json:"drop_null_rows"`
	Columns            []string `json:"columns" validate:"omitempty,dive,required"`
	OutputFormat       Format   `json:"output_format" validate:"required,oneof=csv excel"`
	Chart              bool     `json:"chart"`
}

// CleaningOptions extracts the cleaning flags.
func (c FileConfig) CleaningOptions() CleaningOptions {
	return CleaningOptions{
		Dedupe:             c.Dedupe,
		FillMissingNumeric: c.FillMissingNumeric,
		DropNullRows:       c.DropNullRows,
	}
}

// FilledColumn records a mean fill on one column.
type FilledColumn struct {
	Column string  `json:"column"`
	Cells  int     `json:"cells"`
	Mean   float64 `json:"mean"`
}

// CleanReport summarizes what Clean changed.
type CleanReport struct {
	DuplicatesRemoved int            `json:"duplicatesRemoved"`
	Filled            []FilledColumn `json:"filled,omitempty"`
	NoNumericColumns  bool           `json:"noNumericColumns,omitempty"`
	NullRowsRemoved   int            `json:"nullRowsRemoved"`
}

// Preview is the head of a table prepared for display.
type Preview struct {
	Columns   []string   `json:"columns"`
	Types     []string   `json:"types"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"totalRows"`
}

// FileResult is the outcome of processing one file.
type FileResult struct {
	Index    int             `json:"index"`
	Source   string          `json:"source"`
	Preview  *Preview        `json:"preview,omitempty"`
	Report   *CleanReport    `json:"report,omitempty"`
	Chart    *ChartSpec      `json:"chart,omitempty"`
	ChartErr error           `json:"-"`
	Artifact *ExportArtifact `json:"-"`
	Err      error           `json:"-"`
	Duration time.Duration   `json:"-"`
}

// OK reports whether the file produced an artifact.
func (r FileResult) OK() bool {
	return r.Err == nil && r.Artifact != nil
}
