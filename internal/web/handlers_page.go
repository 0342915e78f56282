package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/logging"
	"github.com/JonMunkholm/sweeper/internal/web/templates"
)

// handleIndex renders the page for the current session.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, nil)
}

// handleUploadForm is the form version of handleUpload.
func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	files, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	s.replaceSession(r)
	sess, err := s.service.OnUpload(r.Context(), files)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	s.setSessionCookie(w, sess.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleConvertForm reads per-file settings from the form fields written by
// templates.FileCard and converts the session.
func (s *Server) handleConvertForm(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxConvertBody)
	if err := r.ParseForm(); err != nil {
		err = fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
		s.respondError(w, r, err, statusFor(err))
		return
	}

	req := convertRequestFromForm(r, len(sess.Files()))
	if _, err := s.service.OnConvert(r.Context(), sess.ID, req); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleDiscardForm drops the session and returns to an empty page.
func (s *Server) handleDiscardForm(w http.ResponseWriter, r *http.Request) {
	if id, err := sessionID(r); err == nil {
		_ = s.service.Discard(id)
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func convertRequestFromForm(r *http.Request, files int) core.ConvertRequest {
	form := r.PostForm
	req := core.ConvertRequest{
		Files:  make([]core.FileConfig, files),
		Bundle: form.Get("bundle") != "",
	}
	for i := range req.Files {
		k := strconv.Itoa(i)
		req.Files[i] = core.FileConfig{
			Dedupe:             form.Get("dedupe_"+k) != "",
			FillMissingNumeric: form.Get("fill_"+k) != "",
			DropNullRows:       form.Get("dropna_"+k) != "",
			Columns:            form["columns_"+k],
			OutputFormat:       core.Format(form.Get("format_" + k)),
			Chart:              form.Get("chart_"+k) != "",
		}
	}
	return req
}

// renderPage renders the index page with an optional error alert.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, flash *templates.ErrorView) {
	data := templates.PageData{
		Flash:    flash,
		MaxFiles: s.cfg.Upload.MaxFiles,
		MaxSize:  humanize.Bytes(uint64(s.cfg.Upload.MaxFileSize)),
	}
	if sess, err := s.currentSession(r); err == nil {
		data.Session = sessionView(sess)
	}

	buf := templ.GetBuffer()
	defer templ.ReleaseBuffer(buf)

	if err := templates.Page(data).Render(r.Context(), buf); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
