package httpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appai "github.com/bryanwahyu/medvision/internal/application/ai"
	"github.com/bryanwahyu/medvision/internal/domain/diagnosis"
	"github.com/bryanwahyu/medvision/internal/middleware"
)

// multipartMemory is how much of a form is kept in memory before spilling
// to disk; the total is bounded separately by MaxUploadBytes.
const multipartMemory = 8 << 20

// Analyzer runs the diagnostic pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, cmd appai.Command) (*diagnosis.Result, error)
}

type Options struct {
	StaticDir      string
	MaxUploadBytes int64
	AllowedOrigins []string
	Limiter        *middleware.RateLimiter
	Checkers       map[string]middleware.HealthChecker
}

type Router struct {
	aiSvc     Analyzer
	maxUpload int64
}

func NewRouter(aiSvc Analyzer, opts Options) http.Handler {
	r := &Router{aiSvc: aiSvc, maxUpload: opts.MaxUploadBytes}
	if r.maxUpload <= 0 {
		r.maxUpload = 32 << 20
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(corsOptions(origins)))

	mux.Get("/healthz", middleware.HealthHandler(opts.Checkers))
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Group(func(g chi.Router) {
		if opts.Limiter != nil {
			g.Use(opts.Limiter.Middleware)
		}
		g.Post("/analyze", r.wrap(r.handleAnalyze))
	})

	// UI dipasang terakhir supaya tidak menimpa route API
	if info, err := os.Stat(opts.StaticDir); err == nil && info.IsDir() {
		mux.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	} else {
		log.Printf("Warning: Frontend path %s not found.", opts.StaticDir)
	}

	return mux
}

// corsOptions echoes the caller's Origin when any origin is allowed:
// browsers refuse a literal "*" on credentialed requests.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
	for _, o := range origins {
		if o == "*" {
			opts.AllowedOrigins = nil
			opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
			break
		}
	}
	return opts
}

// httpError carries a status for failures detected before the pipeline.
type httpError struct {
	status int
	detail string
}

func (e *httpError) Error() string { return e.detail }

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status := http.StatusInternalServerError
			var he *httpError
			switch {
			case errors.As(err, &he):
				status = he.status
			case errors.Is(err, diagnosis.ErrInvalidInput):
				status = http.StatusUnprocessableEntity
			}
			writeJSON(w, status, map[string]string{"detail": err.Error()})
		}
	}
}

type analyzeResponse struct {
	Report     string `json:"report"`
	Confidence int    `json:"confidence"`
	PDFBase64  string `json:"pdf_base64"`
}

// POST /analyze
// Multipart: file, api_key, model_id, focus.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return &httpError{http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", r.maxUpload)}
		}
		return &httpError{http.StatusBadRequest, "multipart form required: " + err.Error()}
	}
	defer req.MultipartForm.RemoveAll()

	file, _, err := req.FormFile("file")
	if err != nil {
		return &httpError{http.StatusBadRequest, "field required: file"}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return &httpError{http.StatusBadRequest, "read upload: " + err.Error()}
	}

	form := middleware.AnalyzeForm{
		APIKey:  req.FormValue("api_key"),
		ModelID: req.FormValue("model_id"),
		Focus:   req.FormValue("focus"),
	}
	if err := middleware.ValidateForm(form); err != nil {
		return &httpError{http.StatusUnprocessableEntity, err.Error()}
	}

	done := middleware.TrackAnalysis()
	res, err := r.aiSvc.Analyze(req.Context(), appai.Command{
		Credential: diagnosis.Credential(form.APIKey),
		ModelID:    form.ModelID,
		Focus:      diagnosis.Focus{form.Focus},
		Image:      data,
		Shape:      diagnosis.ShapeAPI,
	})
	done(err)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Report:     res.Report,
		Confidence: res.Confidence,
		PDFBase64:  base64.StdEncoding.EncodeToString(res.PDF),
	})
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
