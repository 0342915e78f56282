package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/logging"
)

// multipartOverhead covers form boundaries and part headers on top of the
// file bytes themselves.
const multipartOverhead = 1 << 20

// maxConvertBody bounds the JSON body of a conversion request.
const maxConvertBody = 1 << 20

// handleUpload accepts a multipart upload with one or more "files" parts and
// starts a new session.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
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
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, sessionView(sess))
}

// readUpload reads every uploaded file into memory. The whole request is
// capped at MaxFiles times MaxFileSize.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]core.UploadedFile, error) {
	limit := s.cfg.Upload.MaxFileSize*int64(max(s.cfg.Upload.MaxFiles, 1)) + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: request exceeds %s", core.ErrFileTooLarge, humanize.Bytes(uint64(limit)))
		}
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	files := make([]core.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %q: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", fh.Filename, err)
		}

		uf, err := core.NewUploadedFile(fh.Filename, fh.Header.Get("Content-Type"), data)
		if err != nil {
			return nil, err
		}
		files = append(files, uf)
	}
	return files, nil
}

// handleGetSession returns the current session.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	render.JSON(w, r, sessionView(sess))
}

// handleDeleteSession discards the current session and its files.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err == nil {
		err = s.service.Discard(id)
	}
	s.clearSessionCookie(w)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleConvert runs the pipeline over every file of the session.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	var req core.ConvertRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxConvertBody), &req); err != nil {
		err = fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
		s.respondError(w, r, err, statusFor(err))
		return
	}

	res, err := s.service.OnConvert(r.Context(), id, req)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	render.JSON(w, r, resultView(res))
}

// handleDownload serves one converted file.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	a, err := s.service.Artifact(id, chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeAttachment(w, r, a.Name, a.ContentType(), a.Data)
}

// handleBundle serves the ZIP of the last conversion.
func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	name, data, err := s.service.Bundle(id)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeAttachment(w, r, name, "application/zip", data)
}

// handleChart returns the ChartSpec of one converted file.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	res := sess.Result()
	if err != nil || res == nil || index < 0 || index >= len(res.Files) {
		err := fmt.Errorf("%w: no chart for file %q", core.ErrArtifactMissing, chi.URLParam(r, "index"))
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	f := res.Files[index]
	switch {
	case f.Chart != nil:
		render.JSON(w, r, f.Chart)
	case f.ChartErr != nil:
		s.respondError(w, r, f.ChartErr, http.StatusUnprocessableEntity)
	default:
		err := fmt.Errorf("%w: no chart for %q", core.ErrArtifactMissing, f.Source)
		s.respondError(w, r, err, http.StatusNotFound)
	}
}

// handleHealth reports liveness and load.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":      "ok",
		"sessions":    s.service.ActiveSessions(),
		"conversions": s.service.LimiterStatus(),
	})
}

func (s *Server) currentSession(r *http.Request) (*core.Session, error) {
	id, err := sessionID(r)
	if err != nil {
		return nil, err
	}
	return s.service.Session(id)
}

func writeAttachment(w http.ResponseWriter, r *http.Request, name, contentType string, data []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("Cache-Control", "no-store")

	if _, err := w.Write(data); err != nil {
		logging.FromContext(r.Context()).Warn("download interrupted", "file", name, "error", err)
	}
}
