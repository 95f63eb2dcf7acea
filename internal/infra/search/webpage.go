package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
)

// maxPageBytes caps how much of a page is read before conversion.
const maxPageBytes = 1_000_000

// maxMarkdownChars caps what is handed back to the model.
const maxMarkdownChars = 8000

var blankLines = regexp.MustCompile(`\r?\n{2,}`)

// WebpageReader fetches a page and returns its main content as markdown.
// URLs come from the model, so only public addresses are dialed.
type WebpageReader struct {
	Config
}

func NewWebpageReader(opts ...Option) *WebpageReader {
	cfg := newConfig("", opts)
	cfg.httpClient = publicClient(cfg.httpClient.Timeout)
	return &WebpageReader{Config: cfg}
}

func (r *WebpageReader) Read(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("User-Agent", r.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml")

	httpResp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("non-200 response from %s: %d", parsed.Host, httpResp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(httpResp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	markdown, err := htmltomarkdown.ConvertString(
		mainContent(doc),
		converter.WithDomain(fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)),
	)
	if err != nil {
		return "", err
	}
	return clean(markdown), nil
}

func mainContent(doc *goquery.Document) string {
	for _, tag := range []string{"script", "style", "nav", "header", "footer", "aside"} {
		doc.Find(tag).Remove()
	}
	for _, selector := range []string{"main", "article", "#content, #main", ".content, .main", "body"} {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		if html, err := sel.First().Html(); err == nil && strings.TrimSpace(html) != "" {
			return html
		}
	}
	html, _ := doc.Html()
	return html
}

func clean(content string) string {
	content = blankLines.ReplaceAllString(content, "\n\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.TrimSpace(strings.Join(lines, "\n"))
	if r := []rune(content); len(r) > maxMarkdownChars {
		content = string(r[:maxMarkdownChars]) + "\n\n[truncated]"
	}
	return content
}
