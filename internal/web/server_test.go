package web

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sweeper/internal/config"
	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/metrics"
)

const (
	salesCSV = "region,units,price\nnorth,10,2.5\nsouth,,3\nnorth,10,2.5\n"
	staffCSV = "name,age\nann,31\nbob,45\n"
)

type upload struct {
	name string
	body string
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Rate.Enabled = false
	for _, fn := range mutate {
		fn(cfg)
	}
	m := metrics.New()
	return NewServer(core.NewService(cfg, m), m, cfg)
}

func multipartBody(t *testing.T, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		w, err := mw.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(s *Server, req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sweeper_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func uploadFiles(t *testing.T, s *Server, files ...upload) *http.Cookie {
	t.Helper()
	body, contentType := multipartBody(t, files...)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := do(s, req, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return sessionCookie(t, rec)
}

func convert(t *testing.T, s *Server, cookie *http.Cookie, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(s, req, cookie)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["sessions"])
}

func TestUploadReturnsPreviews(t *testing.T) {
	s := newTestServer(t)
	body, contentType := multipartBody(t, upload{"sales.csv", salesCSV}, upload{"broken.csv", ""})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := do(s, req, nil)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view struct {
		ID    string `json:"id"`
		Files []struct {
			Name    string        `json:"name"`
			Preview *core.Preview `json:"preview"`
			Error   *struct {
				Code string `json:"code"`
			} `json:"error"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.NotEmpty(t, view.ID)
	require.Len(t, view.Files, 2)

	assert.Equal(t, "sales.csv", view.Files[0].Name)
	require.NotNil(t, view.Files[0].Preview)
	assert.Equal(t, []string{"region", "units", "price"}, view.Files[0].Preview.Columns)
	assert.Equal(t, 3, view.Files[0].Preview.TotalRows)

	require.NotNil(t, view.Files[1].Error)
	assert.Equal(t, "FILE002", view.Files[1].Error.Code)

	assert.Equal(t, view.ID, sessionCookie(t, rec).Value)
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name   string
		files  []upload
		status int
		code   string
	}{
		{"no files", nil, http.StatusBadRequest, "FILE004"},
		{"unsupported format", []upload{{"notes.txt", "hello"}}, http.StatusUnsupportedMediaType, "FILE003"},
		{"too many files", []upload{{"a.csv", staffCSV}, {"b.csv", staffCSV}, {"c.csv", staffCSV}}, http.StatusBadRequest, "FILE006"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, func(c *config.Config) { c.Upload.MaxFiles = 2 })
			body, contentType := multipartBody(t, tt.files...)
			req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
			req.Header.Set("Content-Type", contentType)

			rec := do(s, req, nil)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestUploadNotMultipart(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")

	rec := do(s, req, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL001", decodeError(t, rec).Code)
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Upload.MaxFileSize = 16 })
	body, contentType := multipartBody(t, upload{"sales.csv", salesCSV})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := do(s, req, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE001", decodeError(t, rec).Code)
}

func TestSessionRequiresCookie(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/session", "/api/bundle", "/api/download/x.csv", "/api/chart/0"} {
		rec := do(s, httptest.NewRequest(http.MethodGet, path, nil), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "SES001", decodeError(t, rec).Code, path)
	}

	unknown := &http.Cookie{Name: "sweeper_session", Value: "nope"}
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/session", nil), unknown)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConvertFlow(t *testing.T) {
	s := newTestServer(t)
	cookie := uploadFiles(t, s, upload{"sales.csv", salesCSV}, upload{"staff.csv", staffCSV})

	rec := convert(t, s, cookie, `{
		"files": [
			{"dedupe": true, "fill_missing_numeric": true, "output_format": "excel", "chart": true},
			{"columns": ["age"], "output_format": "csv"}
		],
		"bundle": true
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Converted int    `json:"converted"`
		Failed    int    `json:"failed"`
		BundleURL string `json:"bundleUrl"`
		Files     []struct {
			Output      string            `json:"output"`
			DownloadURL string            `json:"downloadUrl"`
			ChartURL    string            `json:"chartUrl"`
			Report      *core.CleanReport `json:"report"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Converted)
	assert.Zero(t, result.Failed)
	assert.Equal(t, "/api/bundle", result.BundleURL)
	require.Len(t, result.Files, 2)

	sales := result.Files[0]
	assert.Equal(t, "sales.xlsx", sales.Output)
	assert.Equal(t, "/api/chart/0", sales.ChartURL)
	require.NotNil(t, sales.Report)
	assert.Equal(t, 1, sales.Report.DuplicatesRemoved)

	t.Run("download", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, result.Files[1].DownloadURL, nil), cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename=staff.csv`)
		assert.Equal(t, "age\n31\n45\n", rec.Body.String())
	})

	t.Run("bundle", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/bundle", nil), cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))

		zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
		require.NoError(t, err)
		var names []string
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		assert.Equal(t, []string{"sales.xlsx", "staff.csv"}, names)
	})

	t.Run("chart", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/chart/0", nil), cookie)
		require.Equal(t, http.StatusOK, rec.Code)

		var spec core.ChartSpec
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
		assert.Equal(t, "bar", spec.Type)
		require.Len(t, spec.Series, 2)
		assert.Equal(t, "units", spec.Series[0].Name)

		rec = do(s, httptest.NewRequest(http.MethodGet, "/api/chart/1", nil), cookie)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = do(s, httptest.NewRequest(http.MethodGet, "/api/chart/abc", nil), cookie)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown download", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/download/other.csv", nil), cookie)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "SES002", decodeError(t, rec).Code)
	})

	t.Run("session shows result", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/session", nil), cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"result"`)
	})
}

func TestConvertReportsFileErrors(t *testing.T) {
	s := newTestServer(t)
	cookie := uploadFiles(t, s, upload{"staff.csv", staffCSV})

	rec := convert(t, s, cookie, `{"files": [{"columns": ["salary"], "output_format": "csv", "chart": true}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var result struct {
		Failed int `json:"failed"`
		Files  []struct {
			Error *ErrorResponse `json:"error"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Failed)
	require.NotNil(t, result.Files[0].Error)
	assert.Equal(t, "COL001", result.Files[0].Error.Code)
}

func TestConvertInvalidRequest(t *testing.T) {
	s := newTestServer(t)
	cookie := uploadFiles(t, s, upload{"staff.csv", staffCSV})

	for _, body := range []string{
		`not json`,
		`{"files": []}`,
		`{"files": [{"output_format": "pdf"}]}`,
	} {
		rec := convert(t, s, cookie, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "VAL001", decodeError(t, rec).Code, body)
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t)
	cookie := uploadFiles(t, s, upload{"staff.csv", staffCSV})

	rec := do(s, httptest.NewRequest(http.MethodDelete, "/api/session", nil), cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	cleared := sessionCookie(t, rec)
	assert.Equal(t, -1, cleared.MaxAge)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/session", nil), cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadReplacesSession(t *testing.T) {
	s := newTestServer(t)
	first := uploadFiles(t, s, upload{"staff.csv", staffCSV})

	body, contentType := multipartBody(t, upload{"sales.csv", salesCSV})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := do(s, req, first)
	require.Equal(t, http.StatusCreated, rec.Code)
	second := sessionCookie(t, rec)

	assert.NotEqual(t, first.Value, second.Value)
	assert.Equal(t, 1, s.service.ActiveSessions())
	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/session", nil), first)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `action="/upload"`)
	assert.NotEmpty(t, rec.Header().Get("X-Content-Type-Options"))
}

func TestFormFlow(t *testing.T) {
	s := newTestServer(t)

	body, contentType := multipartBody(t, upload{"staff.csv", staffCSV})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := do(s, req, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cookie := sessionCookie(t, rec)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "staff.csv")
	assert.Contains(t, rec.Body.String(), `name="format_0"`)

	form := url.Values{"format_0": {"csv"}, "columns_0": {"name"}}
	req = httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = do(s, req, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	sess, err := s.service.Session(cookie.Value)
	require.NoError(t, err)
	require.NotNil(t, sess.Result())
	assert.Equal(t, 1, sess.Result().Converted)

	rec = do(s, httptest.NewRequest(http.MethodPost, "/discard", nil), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Zero(t, s.service.ActiveSessions())
}

func TestFormErrorRendersPage(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(s, req, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "SES001")
}

func TestConvertRequestFromForm(t *testing.T) {
	form := url.Values{
		"dedupe_0":  {"1"},
		"fill_1":    {"1"},
		"dropna_1":  {"1"},
		"chart_1":   {"1"},
		"columns_0": {"b", "a"},
		"format_0":  {"excel"},
		"format_1":  {"csv"},
		"bundle":    {"1"},
	}
	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, req.ParseForm())

	got := convertRequestFromForm(req, 2)

	assert.True(t, got.Bundle)
	assert.Equal(t, []core.FileConfig{
		{Dedupe: true, Columns: []string{"b", "a"}, OutputFormat: core.FormatExcel},
		{FillMissingNumeric: true, DropNullRows: true, OutputFormat: core.FormatCSV, Chart: true},
	}, got.Files)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.RequestsPerMinute = 1
		c.Rate.Burst = 1
	})

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/session", nil), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/session", nil), nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE001", decodeError(t, rec).Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	uploadFiles(t, s, upload{"staff.csv", staffCSV})

	rec := do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sweeper_http_requests_total")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrNoFiles, http.StatusBadRequest},
		{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{core.ErrSessionNotFound, http.StatusNotFound},
		{core.ErrArtifactMissing, http.StatusNotFound},
		{core.ErrTooManyConversions, http.StatusServiceUnavailable},
		{core.ErrConversionRunning, http.StatusConflict},
		{&core.ParseError{File: "a.csv", Format: core.FormatCSV, Err: core.ErrEmptyFile}, http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRespondErrorLogLevel(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)

	s.respondError(httptest.NewRecorder(), req, core.ErrSessionNotFound, http.StatusNotFound)
	assert.Contains(t, logs.String(), `"level":"WARN"`)

	logs.Reset()
	s.respondError(httptest.NewRecorder(), req, errors.New("boom"), http.StatusBadRequest)
	assert.Contains(t, logs.String(), `"level":"ERROR"`)
	assert.Contains(t, logs.String(), `"code":"ERR000"`)
}
