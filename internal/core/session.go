package core

import (
	"sync"
	"time"
)

// SessionFile is one uploaded file together with its upload-time preview.
// Err holds the parse error if the file could not be previewed; such a file
// is still kept so a later conversion reports the same failure.
type SessionFile struct {
	Index   int
	File    UploadedFile
	Preview *Preview
	Err     error
}

// ConvertResult is the outcome of one conversion over every file in a session.
// Bundle is set when a bundle was requested and at least one file converted.
type ConvertResult struct {
	Files      []FileResult
	Converted  int
	Failed     int
	BundleName string
	Bundle     []byte
	BundleErr  error
	Duration   time.Duration
}

// Artifacts returns the artifacts of the successful files in file order.
func (r *ConvertResult) Artifacts() []ExportArtifact {
	var out []ExportArtifact
	for _, f := range r.Files {
		if f.OK() {
			out = append(out, *f.Artifact)
		}
	}
	return out
}

// Session is the state owned by one user: uploaded files, the configuration
// last applied to them and the most recent conversion result.
// Sessions are safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu      sync.RWMutex
	files   []SessionFile
	configs []FileConfig
	result  *ConvertResult
	running bool
}

func newSession(id string, files []SessionFile, now time.Time) *Session {
	return &Session{ID: id, CreatedAt: now, files: files}
}

// Files returns the uploaded files in upload order.
func (s *Session) Files() []SessionFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SessionFile, len(s.files))
	copy(out, s.files)
	return out
}

// Configs returns the per-file configuration of the last conversion, or nil.
func (s *Session) Configs() []FileConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.configs == nil {
		return nil
	}
	out := make([]FileConfig, len(s.configs))
	copy(out, s.configs)
	return out
}

// Result returns the last conversion result, or nil before the first one.
func (s *Session) Result() *ConvertResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Artifact finds a converted file by name.
func (s *Session) Artifact(name string) (ExportArtifact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return ExportArtifact{}, false
	}
	for _, f := range s.result.Files {
		if f.OK() && f.Artifact.Name == name {
			return *f.Artifact, true
		}
	}
	return ExportArtifact{}, false
}

// begin marks the session as converting. It returns false if a conversion is
// already running, keeping one conversion per session at a time.
func (s *Session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

// finish stores a completed conversion and clears the running flag.
func (s *Session) finish(configs []FileConfig, result *ConvertResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if result != nil {
		s.configs = configs
		s.result = result
	}
}
