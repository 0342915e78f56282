// Command sweep cleans and converts CSV and Excel files from the command line.
//
//	sweep [-out dir] [-format csv|excel] [-dedupe] [-fill] [-dropna] [-columns a,b] [-zip] files...
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	out       string
	format    core.Format
	bundle    string
	maxSize   int64
	zip       bool
	config    core.FileConfig
	files     []string
	logLevel  string
	logFormat string
}

// run executes the command and returns the process exit code: 0 when every
// file converted, 1 when any file failed, 2 on usage errors.
func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, "sweep:", err)
		return 2
	}

	logger := logging.New(stderr, opts.logLevel, opts.logFormat)

	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		logger.Error("create output directory", "dir", opts.out, "error", err)
		return 1
	}

	results := make([]core.FileResult, len(opts.files))
	var artifacts []core.ExportArtifact
	for i, path := range opts.files {
		results[i] = processFile(i, path, opts)
		if results[i].OK() {
			artifacts = append(artifacts, *results[i].Artifact)
		}
	}

	// Inputs with the same stem would overwrite each other in the output
	// directory.
	artifacts = core.UniqueNames(artifacts)

	var failed, next int
	for i, res := range results {
		if !res.OK() {
			failed++
			logger.Debug("file failed", "file", opts.files[i], "error", res.Err)
			fmt.Fprintf(stdout, "FAIL %s\n", core.FormatFileError(opts.files[i], res.Err))
			continue
		}

		a := artifacts[next]
		next++
		dest := filepath.Join(opts.out, a.Name)
		if err := os.WriteFile(dest, a.Data, 0o644); err != nil {
			logger.Error("write output", "file", dest, "error", err)
			return 1
		}
		logger.Info("file written", "file", dest, "size", humanize.Bytes(uint64(len(a.Data))))

		fmt.Fprintf(stdout, "ok   %s -> %s%s\n", opts.files[i], dest, describe(res.Report))
	}

	if opts.zip && len(artifacts) > 0 {
		data, err := core.Bundle(artifacts)
		if err != nil {
			logger.Error("build bundle", "error", err)
			return 1
		}
		dest := filepath.Join(opts.out, opts.bundle)
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			logger.Error("write bundle", "file", dest, "error", err)
			return 1
		}
		fmt.Fprintf(stdout, "bundle %s (%d files, %s)\n", dest, len(artifacts), humanize.Bytes(uint64(len(data))))
	}

	fmt.Fprintf(stdout, "%d converted, %d failed\n", len(artifacts), failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		opts    options
		format  string
		columns string
		maxSize string
	)
	fs.StringVar(&opts.out, "out", ".", "output directory")
	fs.StringVar(&format, "format", "", "output format: csv or excel (default: the other format of each input)")
	fs.BoolVar(&opts.config.Dedupe, "dedupe", false, "remove duplicate rows")
	fs.BoolVar(&opts.config.FillMissingNumeric, "fill", false, "fill missing numeric cells with the column mean")
	fs.BoolVar(&opts.config.DropNullRows, "dropna", false, "drop rows with missing cells")
	fs.StringVar(&columns, "columns", "", "comma-separated columns to keep, in order")
	fs.BoolVar(&opts.zip, "zip", false, "also write all outputs into one ZIP archive")
	fs.StringVar(&opts.bundle, "bundle", "converted_files.zip", "name of the ZIP archive")
	fs.StringVar(&maxSize, "max-size", "100MB", "largest accepted input file")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fs.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: sweep [flags] files...")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if format != "" {
		f, err := core.ParseFormat(format)
		if err != nil {
			return nil, err
		}
		opts.format = f
	}

	size, err := humanize.ParseBytes(maxSize)
	if err != nil {
		return nil, fmt.Errorf("invalid -max-size %q: %w", maxSize, err)
	}
	opts.maxSize = int64(size)

	for _, c := range strings.Split(columns, ",") {
		if c = strings.TrimSpace(c); c != "" {
			opts.config.Columns = append(opts.config.Columns, c)
		}
	}

	opts.files = fs.Args()
	if len(opts.files) == 0 {
		fs.Usage()
		return nil, core.ErrNoFiles
	}
	return &opts, nil
}

// processFile reads one input and runs it through the pipeline.
func processFile(index int, path string, opts *options) core.FileResult {
	fail := func(err error) core.FileResult {
		return core.FileResult{Index: index, Source: filepath.Base(path), Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fail(err)
	}
	if opts.maxSize > 0 && info.Size() > opts.maxSize {
		return fail(fmt.Errorf("%w: %s, limit is %s", core.ErrFileTooLarge,
			humanize.Bytes(uint64(info.Size())), humanize.Bytes(uint64(opts.maxSize))))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}
	file, err := core.NewUploadedFile(path, "", data)
	if err != nil {
		return fail(err)
	}

	cfg := opts.config
	cfg.OutputFormat = opts.format
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = core.FormatExcel
		if file.Format == core.FormatExcel {
			cfg.OutputFormat = core.FormatCSV
		}
	}
	return core.Process(index, file, cfg, 0)
}

func describe(r *core.CleanReport) string {
	if r == nil {
		return ""
	}

	var notes []string
	if r.DuplicatesRemoved > 0 {
		notes = append(notes, fmt.Sprintf("%d duplicate rows removed", r.DuplicatesRemoved))
	}
	for _, f := range r.Filled {
		notes = append(notes, fmt.Sprintf("%d cells filled in %s", f.Cells, f.Column))
	}
	if r.NoNumericColumns {
		notes = append(notes, "no numeric columns to fill")
	}
	if r.NullRowsRemoved > 0 {
		notes = append(notes, fmt.Sprintf("%d rows with missing values removed", r.NullRowsRemoved))
	}

	if len(notes) == 0 {
		return ""
	}
	return " (" + strings.Join(notes, ", ") + ")"
}
