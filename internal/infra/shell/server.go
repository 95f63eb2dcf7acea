package shell

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"slices"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	appai "github.com/bryanwahyu/medvision/internal/application/ai"
	domai "github.com/bryanwahyu/medvision/internal/domain/ai"
	"github.com/bryanwahyu/medvision/internal/domain/diagnosis"
	"github.com/bryanwahyu/medvision/internal/infra/ai/prompt"
	"github.com/bryanwahyu/medvision/internal/infra/imaging"
	"github.com/bryanwahyu/medvision/internal/infra/report"
	"github.com/bryanwahyu/medvision/internal/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

// Analyzer runs the diagnostic pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, cmd appai.Command) (*diagnosis.Result, error)
}

type Options struct {
	CookieName     string
	MaxUploadBytes int64
	Models         []string
	// Secure marks the session cookie HTTPS-only.
	Secure bool
	// Limiter throttles /execute per client IP when set.
	Limiter *middleware.RateLimiter
}

// Server is the interactive single-page shell: one form posts, the page
// re-renders from session state.
type Server struct {
	svc       Analyzer
	store     *sessionStore
	page      *template.Template
	md        goldmark.Markdown
	cookie    string
	secure    bool
	maxUpload int64
	models    []string
	limiter   *middleware.RateLimiter
}

func New(svc Analyzer, opts Options) (*Server, error) {
	if svc == nil {
		return nil, errors.New("analyzer required")
	}
	page, err := template.ParseFS(templateFS, "templates/page.html")
	if err != nil {
		return nil, err
	}
	s := &Server{
		svc:       svc,
		store:     newStore(),
		page:      page,
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		cookie:    opts.CookieName,
		secure:    opts.Secure,
		maxUpload: opts.MaxUploadBytes,
		models:    opts.Models,
		limiter:   opts.Limiter,
	}
	if s.cookie == "" {
		s.cookie = "medvision_session"
	}
	if s.maxUpload <= 0 {
		s.maxUpload = 32 << 20
	}
	return s, nil
}

func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(chimw.Recoverer)

	mux.Get("/", s.handlePage)
	mux.Post("/login", s.handleLogin)
	mux.Post("/logout", s.handleLogout)
	mux.Group(func(g chi.Router) {
		if s.limiter != nil {
			g.Use(s.limiter.Middleware)
		}
		g.Post("/execute", s.handleExecute)
	})
	mux.Get("/report.pdf", s.handleReport)
	mux.Get("/livez", middleware.LivenessHandler)
	return mux
}

// sessionID returns the caller's session id, issuing a cookie if needed.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.cookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

type metric struct {
	Label, Value, Delta string
}

type pageData struct {
	Unlocked     bool
	Models       []string
	Model        string
	Depths       []string
	Depth        string
	FocusLabels  []string
	Selected     map[string]bool
	Preview      template.URL
	Failure      string
	HasReport    bool
	Metrics      []metric
	ReportHTML   template.HTML
	ReportFile   string
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess := s.store.view(s.sessionID(w, r))

	data := pageData{
		Unlocked:    sess.credential != "",
		Models:      s.models,
		Model:       sess.modelID,
		Depths:      prompt.SearchDepths,
		Depth:       sess.depth,
		FocusLabels: prompt.FocusLabels,
		Selected:    map[string]bool{},
		Preview:     template.URL(sess.preview),
		Failure:     sess.failure,
	}
	if data.Model == "" && len(s.models) > 0 {
		data.Model = s.models[0]
	}
	if data.Depth == "" {
		data.Depth = prompt.DefaultSearchDepth
	}
	focus := sess.focus
	if len(focus) == 0 {
		focus = diagnosis.Focus{prompt.FocusLabels[0]}
	}
	for _, f := range focus {
		data.Selected[f] = true
	}

	if res := sess.result; res != nil {
		var buf bytes.Buffer
		if err := s.md.Convert([]byte(res.Report), &buf); err != nil {
			log.Printf("markdown render error: %v", err)
			buf.Reset()
			buf.WriteString(template.HTMLEscapeString(res.Report))
		}
		data.HasReport = true
		data.ReportHTML = template.HTML(buf.String())
		data.ReportFile = report.FileName(res.GeneratedAt)
		data.Metrics = []metric{
			{Label: "Patient Region", Value: res.Focus.Primary()},
			{Label: "AI Confidence", Value: fmt.Sprintf("%d%%", res.Confidence), Delta: "High"},
			{Label: "Status", Value: "Verified"},
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		log.Printf("template error: %v", err)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	form := middleware.LoginForm{APIKey: r.PostFormValue("api_key")}
	err := middleware.ValidateForm(form)
	s.store.update(id, func(sess *session) {
		if err != nil {
			sess.failure = "Please enter a valid Groq API key."
			return
		}
		sess.credential = diagnosis.Credential(form.APIKey)
		sess.failure = ""
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.store.delete(s.sessionID(w, r))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	fail := func(msg string) {
		s.store.update(id, func(sess *session) { sess.failure = msg })
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}

	// credential di-copy keluar dari session, tidak dipegang setelah request
	credential := s.store.view(id).credential
	if credential == "" {
		fail("Security Lock: Please enter your Groq API Key in the sidebar to access the diagnostic system.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		fail(fmt.Sprintf("Upload rejected: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := middleware.ExecuteForm{
		ModelID: r.FormValue("model_id"),
		Focus:   r.MultipartForm.Value["focus"],
		Depth:   r.FormValue("search_depth"),
	}
	if err := middleware.ValidateForm(form); err != nil {
		fail(err.Error())
		return
	}
	if len(s.models) > 0 && !slices.Contains(s.models, form.ModelID) {
		fail("Unknown model: " + form.ModelID)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		fail("Please upload a scan (PNG or JPEG).")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		fail(fmt.Sprintf("Upload rejected: %v", err))
		return
	}
	if !imaging.AllowShellUpload(data) {
		fail("Only PNG and JPEG images are accepted.")
		return
	}

	s.store.update(id, func(sess *session) {
		sess.modelID = form.ModelID
		sess.depth = form.Depth
		sess.focus = form.Focus
		sess.preview = "data:" + mimetype.Detect(data).String() + ";base64," + base64.StdEncoding.EncodeToString(data)
	})

	done := middleware.TrackAnalysis()
	res, err := s.svc.Analyze(r.Context(), appai.Command{
		Credential: credential,
		ModelID:    form.ModelID,
		Focus:      form.Focus,
		Image:      data,
		Shape:      diagnosis.ShapeShell,
	})
	done(err)

	s.store.update(id, func(sess *session) {
		if err != nil {
			sess.failure = failureMessage(err)
			return
		}
		sess.result = res
		sess.failure = ""
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func failureMessage(err error) string {
	msg := "System Failure: " + err.Error()
	if errors.Is(err, domai.ErrQuotaExceeded) {
		msg += " (Groq rate limit reached, wait a minute and retry)"
	}
	return msg
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	res := s.store.view(s.sessionID(w, r)).result
	if res == nil || len(res.PDF) == 0 {
		http.Error(w, "no report available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(res.GeneratedAt)))
	w.Write(res.PDF)
}
