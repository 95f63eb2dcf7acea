package httpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appai "github.com/bryanwahyu/medvision/internal/application/ai"
	"github.com/bryanwahyu/medvision/internal/domain/diagnosis"
)

type stubAnalyzer struct {
	calls int
	cmd   appai.Command
	res   *diagnosis.Result
	err   error
}

func (s *stubAnalyzer) Analyze(_ context.Context, cmd appai.Command) (*diagnosis.Result, error) {
	s.calls++
	s.cmd = cmd
	return s.res, s.err
}

func multipartBody(t *testing.T, fields map[string]string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", "scan.png")
		require.NoError(t, err)
		fw.Write(file)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

var validFields = map[string]string{
	"api_key":  "gsk_live",
	"model_id": "meta-llama/llama-4-scout-17b-16e-instruct",
	"focus":    "Cardiomegaly",
}

func post(t *testing.T, h http.Handler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["detail"]
}

func TestAnalyzeSuccess(t *testing.T) {
	svc := &stubAnalyzer{res: &diagnosis.Result{Report: "## Findings", Confidence: diagnosis.Confidence, PDF: []byte("%PDF-1.3")}}
	h := NewRouter(svc, Options{StaticDir: t.TempDir()})

	body, ct := multipartBody(t, validFields, []byte("img"))
	rec := post(t, h, body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	var got analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "## Findings", got.Report)
	assert.Equal(t, 88, got.Confidence)
	pdf, err := base64.StdEncoding.DecodeString(got.PDFBase64)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(pdf))

	assert.Equal(t, diagnosis.Credential("gsk_live"), svc.cmd.Credential)
	assert.Equal(t, diagnosis.Focus{"Cardiomegaly"}, svc.cmd.Focus)
	assert.Equal(t, diagnosis.ShapeAPI, svc.cmd.Shape)
	assert.Equal(t, []byte("img"), svc.cmd.Image)
}

func TestAnalyzeMissingFileIsClientError(t *testing.T) {
	svc := &stubAnalyzer{}
	h := NewRouter(svc, Options{StaticDir: t.TempDir()})

	body, ct := multipartBody(t, validFields, nil)
	rec := post(t, h, body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "field required: file", detail(t, rec))
	assert.Zero(t, svc.calls)
}

func TestAnalyzeMissingField(t *testing.T) {
	svc := &stubAnalyzer{}
	h := NewRouter(svc, Options{StaticDir: t.TempDir()})

	body, ct := multipartBody(t, map[string]string{"api_key": "k", "focus": "x"}, []byte("img"))
	rec := post(t, h, body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "field required: model_id", detail(t, rec))
	assert.Zero(t, svc.calls)
}

func TestAnalyzePipelineFailureIs500(t *testing.T) {
	for _, cause := range []error{
		fmt.Errorf("%w: 401 invalid api key", diagnosis.ErrRemoteCall),
		fmt.Errorf("%w: unknown format", diagnosis.ErrDecode),
		fmt.Errorf("%w: font", diagnosis.ErrRender),
	} {
		svc := &stubAnalyzer{err: cause}
		h := NewRouter(svc, Options{StaticDir: t.TempDir()})

		body, ct := multipartBody(t, validFields, []byte("img"))
		rec := post(t, h, body, ct)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, cause.Error(), detail(t, rec))
	}
}

func TestAnalyzeTooLarge(t *testing.T) {
	h := NewRouter(&stubAnalyzer{}, Options{StaticDir: t.TempDir(), MaxUploadBytes: 1024})

	body, ct := multipartBody(t, validFields, bytes.Repeat([]byte{0xff}, 4096))
	rec := post(t, h, body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestStaticAndOpsRoutes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>SV-MedVision</h1>"), 0o644))
	h := NewRouter(&stubAnalyzer{}, Options{StaticDir: dir})

	for path, want := range map[string]int{
		"/":        http.StatusOK,
		"/livez":   http.StatusOK,
		"/readyz":  http.StatusOK,
		"/healthz": http.StatusOK,
		"/metrics": http.StatusOK,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Body.String(), "SV-MedVision")
}

func TestMissingStaticDirStillServesAPI(t *testing.T) {
	h := NewRouter(&stubAnalyzer{}, Options{StaticDir: filepath.Join(t.TempDir(), "missing")})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	h := NewRouter(&stubAnalyzer{}, Options{StaticDir: t.TempDir()})
	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "http://localhost:5500")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5500", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/livez", nil)
	req.Header.Set("Origin", "https://viewer.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://viewer.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRestrictedOrigins(t *testing.T) {
	h := NewRouter(&stubAnalyzer{}, Options{StaticDir: t.TempDir(), AllowedOrigins: []string{"https://ui.example"}})

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	req.Header.Set("Origin", "https://ui.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://ui.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/livez", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
