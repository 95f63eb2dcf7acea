package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const duckDuckGoBaseURL = "https://html.duckduckgo.com"

// DuckDuckGo scrapes the HTML results page; it needs no API key.
type DuckDuckGo struct {
	Config
}

func NewDuckDuckGo(opts ...Option) *DuckDuckGo {
	return &DuckDuckGo{Config: newConfig(duckDuckGoBaseURL, opts)}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, max int) ([]Result, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("kl", "wt-wt")
	searchURL := fmt.Sprintf("%s/html/?%s", strings.TrimRight(d.baseURL, "/"), values.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", d.userAgent)
	httpReq.Header.Set("Accept", "text/html")

	httpResp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error querying duckduckgo: %w", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 response from duckduckgo: %d", httpResp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(httpResp.Body)
	if err != nil {
		return nil, err
	}

	limit := d.limit(max)
	results := make([]Result, 0, limit)
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if !ok || title == "" {
			return true
		}
		results = append(results, Result{
			Title:   title,
			URL:     unwrapRedirect(href),
			Content: strings.TrimSpace(s.Find(".result__snippet").Text()),
		})
		return len(results) < limit
	})
	return results, nil
}

// unwrapRedirect extracts the target from DuckDuckGo's /l/?uddg= links.
func unwrapRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
