// Package bootstrap wires the diagnostic pipeline from configuration. Both
// binaries share it so the HTTP API and the shell run the same stack.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/bryanwahyu/medvision/internal/application"
	appai "github.com/bryanwahyu/medvision/internal/application/ai"
	"github.com/bryanwahyu/medvision/internal/config"
	"github.com/bryanwahyu/medvision/internal/domain/diagnosis"
	"github.com/bryanwahyu/medvision/internal/infra/ai/openai"
	"github.com/bryanwahyu/medvision/internal/infra/ai/prompt"
	"github.com/bryanwahyu/medvision/internal/infra/imaging"
	"github.com/bryanwahyu/medvision/internal/infra/report"
	"github.com/bryanwahyu/medvision/internal/infra/search"
	"github.com/bryanwahyu/medvision/internal/infra/storage"
	"github.com/bryanwahyu/medvision/internal/middleware"
)

// Pipeline is the analysis service plus the checks /healthz should run.
type Pipeline struct {
	Service  *appai.Service
	Checkers map[string]middleware.HealthChecker
}

func NewPipeline(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	checkers := map[string]middleware.HealthChecker{
		"temp_dir": middleware.DirHealthChecker{Dir: cfg.Temp.Dir},
	}

	var host diagnosis.ImageHost = storage.Inline{}
	if cfg.Minio.Enabled {
		store, err := storage.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
			cfg.Minio.PresignExpiry,
		)
		if err != nil {
			return nil, fmt.Errorf("minio init: %w", err)
		}
		host = store
		checkers["minio"] = store
		log.Printf("images hosted via minio bucket=%s", store.Bucket())
	}

	searcher := newSearcher(cfg)
	pages := search.NewWebpageReader(
		search.WithTimeout(cfg.Search.Timeout),
		search.WithUserAgent(cfg.Search.UserAgent),
	)

	client := openai.NewClient(cfg.Groq.BaseURL, searcher, pages)
	client.HTTPClient = &http.Client{Timeout: cfg.Groq.Timeout}
	if cfg.Groq.MaxTokens > 0 {
		client.MaxTokens = cfg.Groq.MaxTokens
	}
	client.Temperature = cfg.Groq.Temperature
	if cfg.Groq.MaxToolRounds > 0 {
		client.MaxToolRounds = cfg.Groq.MaxToolRounds
	}

	svc := appai.NewService(
		client,
		imaging.Decoder{},
		imaging.NewTempStore(cfg.Temp.Dir),
		host,
		prompt.Briefing{},
		report.NewPDF(),
		application.SystemClock{},
	)
	return &Pipeline{Service: svc, Checkers: checkers}, nil
}

func newSearcher(cfg *config.Config) search.Searcher {
	opts := []search.Option{
		search.WithMaxResults(cfg.Search.MaxResults),
		search.WithTimeout(cfg.Search.Timeout),
		search.WithUserAgent(cfg.Search.UserAgent),
	}
	if cfg.Search.Provider == config.SearchSearxng {
		// default DuckDuckGo URL tidak berlaku untuk searxng
		if cfg.Search.BaseURL != "" && !strings.Contains(cfg.Search.BaseURL, "duckduckgo.com") {
			opts = append(opts, search.WithBaseURL(cfg.Search.BaseURL))
		}
		log.Printf("web search via searxng")
		return search.NewSearxng(opts...)
	}
	opts = append(opts, search.WithBaseURL(cfg.Search.BaseURL))
	return search.NewDuckDuckGo(opts...)
}
