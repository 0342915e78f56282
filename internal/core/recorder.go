package core

import "time"

// Recorder receives pipeline events for metrics. The Prometheus
// implementation lives in internal/metrics.
type Recorder interface {
	// FileProcessed is called once per file in a conversion. outcome is
	// "ok" or the ErrorKind of the failure.
	FileProcessed(format Format, outcome string, d time.Duration)
	// ChartFailed is called when a requested chart could not be built.
	ChartFailed(kind string)
	// UploadRejected is called when a whole upload is refused.
	UploadRejected(reason string)
	// ConversionCompleted is called after every file of a conversion ran.
	ConversionCompleted(files int, d time.Duration)
	// SessionsActive reports the number of stored sessions.
	SessionsActive(n int)
}

type nopRecorder struct{}

func (nopRecorder) FileProcessed(Format, string, time.Duration) {}
func (nopRecorder) ChartFailed(string)                          {}
func (nopRecorder) UploadRejected(string)                       {}
func (nopRecorder) ConversionCompleted(int, time.Duration)      {}
func (nopRecorder) SessionsActive(int)                          {}
