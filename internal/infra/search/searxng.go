package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Searxng queries a SearxNG instance's JSON API.
type Searxng struct {
	Config
}

func NewSearxng(opts ...Option) *Searxng {
	return &Searxng{Config: newConfig("http://localhost:8080", opts)}
}

type searxngResponse struct {
	Query   string `json:"query"`
	Results []struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

func (s *Searxng) Search(ctx context.Context, query string, max int) ([]Result, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("format", "json")
	values.Set("safesearch", "0")
	values.Set("categories", "general")
	searchURL := fmt.Sprintf("%s/search?%s", strings.TrimRight(s.baseURL, "/"), values.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", s.userAgent)

	httpResp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error querying searxng: %w", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 response from searxng: %d", httpResp.StatusCode)
	}

	var sr searxngResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&sr); err != nil {
		return nil, err
	}

	limit := s.limit(max)
	results := make([]Result, 0, limit)
	for _, r := range sr.Results {
		// entries without a link or title are useless to the model
		if r.URL == "" || r.Title == "" {
			continue
		}
		results = append(results, Result{Title: r.Title, URL: r.URL, Content: r.Content})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}
