// Package templates renders the HTML pages of the sweeper.
//
// Components are templ components. The view models in this file are shared
// with the JSON API, so the page and the API always describe a session the
// same way.
package templates

import (
	"github.com/JonMunkholm/sweeper/internal/core"
)

// ErrorView is a user-facing error.
type ErrorView struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// NewErrorView maps err to its user message. Returns nil for a nil error.
func NewErrorView(err error) *ErrorView {
	if err == nil {
		return nil
	}
	msg := core.NewUserError(err).User
	return &ErrorView{Message: msg.Message, Action: msg.Action, Code: msg.Code}
}

// FileView describes one uploaded file.
type FileView struct {
	Index     int              `json:"index"`
	Name      string           `json:"name"`
	Format    core.Format      `json:"format"`
	Size      int64            `json:"size"`
	SizeHuman string           `json:"sizeHuman"`
	Preview   *core.Preview    `json:"preview,omitempty"`
	Error     *ErrorView       `json:"error,omitempty"`
	Config    *core.FileConfig `json:"config,omitempty"`
}

// SessionView describes a session and its last conversion.
type SessionView struct {
	ID     string      `json:"id"`
	Files  []FileView  `json:"files"`
	Result *ResultView `json:"result,omitempty"`
}

// FileResultView describes the outcome of one file in a conversion.
type FileResultView struct {
	Index       int               `json:"index"`
	Source      string            `json:"source"`
	Output      string            `json:"output,omitempty"`
	DownloadURL string            `json:"downloadUrl,omitempty"`
	ChartURL    string            `json:"chartUrl,omitempty"`
	Report      *core.CleanReport `json:"report,omitempty"`
	Preview     *core.Preview     `json:"preview,omitempty"`
	Chart       *core.ChartSpec   `json:"-"`
	ChartError  *ErrorView        `json:"chartError,omitempty"`
	Error       *ErrorView        `json:"error,omitempty"`
	DurationMs  int64             `json:"durationMs"`
}

// ResultView describes a conversion.
type ResultView struct {
	Converted   int              `json:"converted"`
	Failed      int              `json:"failed"`
	DurationMs  int64            `json:"durationMs"`
	Files       []FileResultView `json:"files"`
	BundleName  string           `json:"bundleName,omitempty"`
	BundleURL   string           `json:"bundleUrl,omitempty"`
	BundleError *ErrorView       `json:"bundleError,omitempty"`
}

// PageData is everything the index page shows.
type PageData struct {
	Session  *SessionView
	Flash    *ErrorView
	MaxFiles int
	MaxSize  string
}
