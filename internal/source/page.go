// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/meshintel/incident-scout/internal/httputil"
)

// PageFetcher downloads article pages and extracts their readable text.
type PageFetcher struct {
	client    *http.Client
	userAgent string
}

// NewPageFetcher creates a page fetcher. timeout <= 0 means 15s.
func NewPageFetcher(timeout time.Duration, userAgent string) *PageFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PageFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// ArticleText fetches the URL and extracts the article body: paragraph text
// from <article> or <main> when present, the whole page's paragraphs
// otherwise. Boilerplate containers are removed first.
func (p *PageFetcher) ArticleText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, p.client, req, 1)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", url, err)
	}

	doc.Find("script, style, nav, header, footer, aside, form, noscript").Remove()

	root := doc.Selection
	for _, container := range []string{"article", "main", "[role=main]"} {
		if sel := doc.Find(container); sel.Length() > 0 {
			root = sel.First()
			break
		}
	}

	var parts []string
	root.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	if len(parts) == 0 {
		// Paragraph-free page; fall back to the container's flat text.
		return strings.Join(strings.Fields(root.Text()), " "), nil
	}
	return strings.Join(parts, "\n\n"), nil
}
