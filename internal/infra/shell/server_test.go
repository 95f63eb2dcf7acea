package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appai "github.com/bryanwahyu/medvision/internal/application/ai"
	domai "github.com/bryanwahyu/medvision/internal/domain/ai"
	"github.com/bryanwahyu/medvision/internal/domain/diagnosis"
	"github.com/bryanwahyu/medvision/internal/middleware"
)

var models = []string{"meta-llama/llama-4-scout-17b-16e-instruct", "llama-3.2-11b-vision-preview"}

type stubAnalyzer struct {
	cmd appai.Command
	err error
}

func (s *stubAnalyzer) Analyze(_ context.Context, cmd appai.Command) (*diagnosis.Result, error) {
	s.cmd = cmd
	if s.err != nil {
		return nil, s.err
	}
	return &diagnosis.Result{
		Report:      "## Findings\nMild **cardiomegaly**.",
		Confidence:  diagnosis.Confidence,
		PDF:         []byte("%PDF-1.3 test"),
		Focus:       cmd.Focus,
		ModelID:     cmd.ModelID,
		GeneratedAt: time.Date(2025, 2, 3, 4, 5, 0, 0, time.UTC),
	}, nil
}

func newClient(t *testing.T, svc Analyzer) (*http.Client, string) {
	t.Helper()
	return newClientWith(t, svc, Options{Models: models})
}

func newClientWith(t *testing.T, svc Analyzer, opts Options) (*http.Client, string) {
	t.Helper()
	s, err := New(svc, opts)
	require.NoError(t, err)
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}, srv.URL
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func login(t *testing.T, c *http.Client, base string) {
	t.Helper()
	resp, err := c.PostForm(base+"/login", url.Values{"api_key": {"gsk_shell"}})
	require.NoError(t, err)
	assert.Contains(t, body(t, resp), "Authentication Successful")
}

func encodePNG(t *testing.T) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func execute(t *testing.T, c *http.Client, base string, file []byte, focus ...string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("model_id", models[0])
	mw.WriteField("search_depth", "Comprehensive")
	for _, f := range focus {
		mw.WriteField("focus", f)
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", "scan.png")
		require.NoError(t, err)
		fw.Write(file)
	}
	require.NoError(t, mw.Close())

	resp, err := c.Post(base+"/execute", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return body(t, resp)
}

func TestLockedUntilLogin(t *testing.T) {
	c, base := newClient(t, &stubAnalyzer{})

	resp, err := c.Get(base + "/")
	require.NoError(t, err)
	page := body(t, resp)
	assert.Contains(t, page, "Security Lock")
	assert.NotContains(t, page, "Data Acquisition")

	login(t, c, base)
	resp, err = c.Get(base + "/")
	require.NoError(t, err)
	page = body(t, resp)
	assert.Contains(t, page, "Data Acquisition")
	assert.Contains(t, page, "System idle. Awaiting data upload and execution command.")
}

func TestExecuteShowsReport(t *testing.T) {
	svc := &stubAnalyzer{}
	c, base := newClient(t, svc)
	login(t, c, base)

	page := execute(t, c, base, encodePNG(t), "Cardiomegaly", "Soft Tissue")

	assert.Equal(t, diagnosis.ShapeShell, svc.cmd.Shape)
	assert.Equal(t, diagnosis.Credential("gsk_shell"), svc.cmd.Credential)
	assert.Equal(t, diagnosis.Focus{"Cardiomegaly", "Soft Tissue"}, svc.cmd.Focus)
	assert.Equal(t, models[0], svc.cmd.ModelID)

	assert.Contains(t, page, "Patient Region")
	assert.Contains(t, page, "<strong>Cardiomegaly</strong>")
	assert.Contains(t, page, "88%")
	assert.Contains(t, page, "Verified")
	assert.Contains(t, page, "<h2>Findings</h2>")
	assert.Contains(t, page, "<strong>cardiomegaly</strong>")
	assert.Contains(t, page, "SV_MedVision_Report_20250203.pdf")

	resp, err := c.Get(base + "/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="SV_MedVision_Report_20250203.pdf"`)
	assert.Equal(t, "%PDF-1.3 test", body(t, resp))
}

func TestExecuteFailureBanner(t *testing.T) {
	svc := &stubAnalyzer{err: fmt.Errorf("%w: 401 Invalid API Key", diagnosis.ErrRemoteCall)}
	c, base := newClient(t, svc)
	login(t, c, base)

	page := execute(t, c, base, encodePNG(t), "Lung Parenchyma")
	assert.Contains(t, page, "System Failure: remote analysis failed: 401 Invalid API Key")

	resp, err := c.Get(base + "/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestExecuteRejectsGIF(t *testing.T) {
	svc := &stubAnalyzer{}
	c, base := newClient(t, svc)
	login(t, c, base)

	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White}), nil))

	page := execute(t, c, base, buf.Bytes(), "Lung Parenchyma")
	assert.Contains(t, page, "Only PNG and JPEG images are accepted.")
	assert.Empty(t, svc.cmd.ModelID, "pipeline must not run")
}

func TestExecuteRequiresFocus(t *testing.T) {
	svc := &stubAnalyzer{}
	c, base := newClient(t, svc)
	login(t, c, base)

	page := execute(t, c, base, encodePNG(t))
	assert.Contains(t, page, "field required: focus")
	assert.Empty(t, svc.cmd.ModelID)
}

func TestLogoutClearsCredential(t *testing.T) {
	svc := &stubAnalyzer{}
	c, base := newClient(t, svc)
	login(t, c, base)

	resp, err := c.PostForm(base+"/logout", nil)
	require.NoError(t, err)
	assert.Contains(t, body(t, resp), "Security Lock")

	page := execute(t, c, base, encodePNG(t), "Neurological")
	assert.Contains(t, page, "Security Lock")
	assert.Empty(t, svc.cmd.ModelID)
}

func TestFailureMessageQuota(t *testing.T) {
	err := fmt.Errorf("%w: %w: 429", diagnosis.ErrRemoteCall, domai.ErrQuotaExceeded)
	assert.Contains(t, failureMessage(err), "rate limit")
	assert.Equal(t, "System Failure: boom", failureMessage(errors.New("boom")))
}

func TestExecuteIsRateLimited(t *testing.T) {
	svc := &stubAnalyzer{}
	c, base := newClientWith(t, svc, Options{Models: models, Limiter: middleware.NewRateLimiter(1, 1)})
	login(t, c, base)

	assert.Contains(t, execute(t, c, base, encodePNG(t), "Cardiomegaly"), "Patient Region")

	svc.cmd = appai.Command{}
	page := execute(t, c, base, encodePNG(t), "Cardiomegaly")
	assert.Contains(t, page, "rate limit exceeded")
	assert.Empty(t, svc.cmd.ModelID, "pipeline must not run")

	// the page itself is not throttled
	resp, err := c.Get(base + "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
