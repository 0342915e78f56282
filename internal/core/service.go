package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/sweeper/internal/config"
	"github.com/JonMunkholm/sweeper/internal/logging"
)

// ErrConversionRunning is returned when a session already has a conversion in
// flight.
var ErrConversionRunning = errors.New("too many conversions: one is already running for this session")

// ConvertRequest is the body of a conversion. Files holds one configuration
// per uploaded file in upload order; a single entry applies to every file.
type ConvertRequest struct {
	Files  []FileConfig `json:"files" validate:"required,min=1,dive"`
	Bundle bool         `json:"bundle"`
}

// Service provides the upload and conversion operations on top of the
// pipeline. It owns the session store and the conversion limiter.
type Service struct {
	cfg      *config.Config
	store    *SessionStore
	limiter  *Limiter
	validate *validator.Validate
	rec      Recorder
}

// NewService creates a Service from configuration. rec may be nil.
func NewService(cfg *config.Config, rec Recorder) *Service {
	if rec == nil {
		rec = nopRecorder{}
	}

	store := NewSessionStore(cfg.Session.TTL, cfg.Session.MaxSessions)
	store.onEvict = func(id, reason string) {
		if reason != "discarded" {
			logging.WithFields(context.Background(), "session_id", id).Info("session removed", "reason", reason)
		}
	}

	return &Service{
		cfg:      cfg,
		store:    store,
		limiter:  NewLimiter(cfg.Convert.MaxConcurrent, cfg.Convert.MaxWaitTime),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		rec:      rec,
	}
}

// OnUpload validates the files, previews each one and stores them in a new
// session. A file that fails to parse is kept with its error so the rest of
// the upload still succeeds.
func (s *Service) OnUpload(ctx context.Context, files []UploadedFile) (*Session, error) {
	logger := logging.FromContext(ctx)

	if err := s.checkUpload(files); err != nil {
		s.rec.UploadRejected(rejectReason(err))
		logger.Warn("upload rejected", "files", len(files), "error", err)
		return nil, err
	}

	entries := make([]SessionFile, len(files))
	for i, f := range files {
		entries[i] = SessionFile{Index: i, File: f}
		table, err := Parse(f)
		if err != nil {
			entries[i].Err = err
			logger.Warn("file preview failed", "file", f.Name, "error", err)
			continue
		}
		entries[i].Preview = table.Preview(s.cfg.Upload.PreviewRows)
	}

	sess := s.store.Create(entries)
	s.rec.SessionsActive(s.store.Len())

	logger.Info("files uploaded",
		"session_id", sess.ID,
		"files", len(files),
		"bytes", humanize.Bytes(uint64(totalSize(files))),
	)
	return sess, nil
}

func (s *Service) checkUpload(files []UploadedFile) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	if limit := s.cfg.Upload.MaxFiles; limit > 0 && len(files) > limit {
		return fmt.Errorf("%w: %d files, limit is %d", ErrTooManyFiles, len(files), limit)
	}
	limit := s.cfg.Upload.MaxFileSize
	for _, f := range files {
		if limit > 0 && f.Size() > limit {
			return fmt.Errorf("%w: %q is %s, limit is %s", ErrFileTooLarge,
				f.Name, humanize.Bytes(uint64(f.Size())), humanize.Bytes(uint64(limit)))
		}
	}
	return nil
}

// OnConvert processes every file of the session in order with its
// configuration. Failures are recorded per file and never stop the others.
// The result is stored on the session for later downloads.
func (s *Service) OnConvert(ctx context.Context, sessionID string, req ConvertRequest) (*ConvertResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	files := sess.Files()
	configs, err := expandConfigs(req.Files, len(files))
	if err != nil {
		return nil, err
	}

	if !sess.begin() {
		return nil, ErrConversionRunning
	}
	var result *ConvertResult
	defer func() { sess.finish(configs, result) }()

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	result = s.convert(ctx, files, configs, req.Bundle)
	return result, nil
}

func (s *Service) convert(ctx context.Context, files []SessionFile, configs []FileConfig, bundle bool) *ConvertResult {
	logger := logging.FromContext(ctx)
	start := time.Now()
	result := &ConvertResult{Files: make([]FileResult, len(files))}

	for i, f := range files {
		res := Process(i, f.File, configs[i], s.cfg.Upload.PreviewRows)
		result.Files[i] = res

		if res.Err != nil {
			result.Failed++
			s.rec.FileProcessed(f.File.Format, ErrorKind(res.Err), res.Duration)
			logger.Warn("file conversion failed",
				"file", f.File.Name,
				"kind", ErrorKind(res.Err),
				"error", res.Err,
			)
			continue
		}

		result.Converted++
		s.rec.FileProcessed(f.File.Format, "ok", res.Duration)
		if res.ChartErr != nil {
			s.rec.ChartFailed(ErrorKind(res.ChartErr))
			logger.Debug("chart skipped", "file", f.File.Name, "error", res.ChartErr)
		}
		logger.Debug("file converted",
			"file", f.File.Name,
			"output", res.Artifact.Name,
			"rows", res.Preview.TotalRows,
			"duration_ms", res.Duration.Milliseconds(),
		)
	}

	renameDuplicates(result.Files)

	if bundle && result.Converted > 0 {
		result.BundleName = s.cfg.Convert.BundleName
		result.Bundle, result.BundleErr = Bundle(result.Artifacts())
		if result.BundleErr != nil {
			logger.Error("bundle failed", "error", result.BundleErr)
		}
	}

	result.Duration = time.Since(start)
	s.rec.ConversionCompleted(len(files), result.Duration)
	logger.Info("conversion completed",
		"files", len(files),
		"converted", result.Converted,
		"failed", result.Failed,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result
}

// expandConfigs matches configurations to files. One configuration is
// applied to every file.
func expandConfigs(configs []FileConfig, files int) ([]FileConfig, error) {
	if len(configs) == files {
		return configs, nil
	}
	if len(configs) == 1 {
		out := make([]FileConfig, files)
		for i := range out {
			out[i] = configs[0]
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %d file configurations for %d files", ErrInvalidRequest, len(configs), files)
}

// renameDuplicates gives colliding artifact names a _N suffix so downloads
// and bundle entries stay distinct.
func renameDuplicates(results []FileResult) {
	var (
		artifacts []ExportArtifact
		owners    []int
	)
	for i, r := range results {
		if r.OK() {
			artifacts = append(artifacts, *r.Artifact)
			owners = append(owners, i)
		}
	}
	for j, a := range UniqueNames(artifacts) {
		renamed := a
		results[owners[j]].Artifact = &renamed
	}
}

// Session returns a stored session.
func (s *Service) Session(id string) (*Session, error) {
	return s.store.Get(id)
}

// Discard deletes a session and everything it holds.
func (s *Service) Discard(id string) error {
	if !s.store.Delete(id) {
		return ErrSessionNotFound
	}
	s.rec.SessionsActive(s.store.Len())
	return nil
}

// Artifact returns one converted file of a session by name.
func (s *Service) Artifact(sessionID, name string) (ExportArtifact, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return ExportArtifact{}, err
	}
	a, ok := sess.Artifact(name)
	if !ok {
		return ExportArtifact{}, fmt.Errorf("%w: %q", ErrArtifactMissing, name)
	}
	return a, nil
}

// Bundle returns the archive of the last conversion of a session.
func (s *Service) Bundle(sessionID string) (string, []byte, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return "", nil, err
	}
	res := sess.Result()
	if res == nil || res.Bundle == nil {
		return "", nil, fmt.Errorf("%w: no bundle", ErrArtifactMissing)
	}
	return res.BundleName, res.Bundle, nil
}

// StartSweeper purges expired sessions until ctx is cancelled.
func (s *Service) StartSweeper(ctx context.Context) {
	s.store.StartSweeper(ctx, s.cfg.Session.SweepInterval)
}

// ActiveSessions returns the number of stored sessions.
func (s *Service) ActiveSessions() int {
	return s.store.Len()
}

// LimiterStatus returns the conversion limiter state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForConversions blocks until running conversions finish or ctx ends.
func (s *Service) WaitForConversions(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func totalSize(files []UploadedFile) int64 {
	var n int64
	for _, f := range files {
		n += f.Size()
	}
	return n
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrNoFiles):
		return "no_files"
	case errors.Is(err, ErrTooManyFiles):
		return "too_many_files"
	case errors.Is(err, ErrFileTooLarge):
		return "too_large"
	default:
		return "other"
	}
}
