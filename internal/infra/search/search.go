// Package search implements the web tools the research agent may call.
package search

import (
	"context"
	"net/http"
	"time"
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content,omitempty"`
}

// Searcher runs one web query.
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]Result, error)
}

type Config struct {
	baseURL    string
	userAgent  string
	maxResults int
	httpClient *http.Client
}

type Option func(*Config)

func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.baseURL = baseURL
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.userAgent = ua
	}
}

func WithMaxResults(n int) Option {
	return func(c *Config) {
		c.maxResults = n
	}
}

func WithHttpClient(clt *http.Client) Option {
	return func(c *Config) {
		c.httpClient = clt
	}
}

// WithTimeout is shorthand for a dedicated client with the given timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

func newConfig(defaultBase string, opts []Option) Config {
	var c Config
	for _, opt := range opts {
		opt(&c)
	}
	if c.baseURL == "" {
		c.baseURL = defaultBase
	}
	if c.maxResults <= 0 {
		c.maxResults = 5
	}
	if c.userAgent == "" {
		c.userAgent = "medvision/1.0"
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return c
}

func (c Config) limit(max int) int {
	if max <= 0 || max > c.maxResults {
		return c.maxResults
	}
	return max
}
