package exclusion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// SourceLocator discovers the current LEIE CSV download link from the OIG
// exclusions download page. The OIG posts an updated snapshot monthly under
// a changing filename, so the link is scraped rather than hardcoded.
type SourceLocator struct {
	pageURL string
	client  *http.Client
}

// NewSourceLocator wires the downloads page URL.
func NewSourceLocator(pageURL string, client *http.Client) *SourceLocator {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &SourceLocator{pageURL: pageURL, client: client}
}

// LatestCSVURL fetches the downloads page and returns the first anchor
// pointing at a CSV file, resolved against the page URL.
func (l *SourceLocator) LatestCSVURL(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch downloads page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloads page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse downloads page: %w", err)
	}

	base, err := url.Parse(l.pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !strings.HasSuffix(strings.ToLower(href), ".csv") {
			return true
		}
		ref, parseErr := url.Parse(href)
		if parseErr != nil {
			return true
		}
		found = base.ResolveReference(ref).String()
		return false
	})

	if found == "" {
		return "", fmt.Errorf("no CSV link on downloads page")
	}

	return found, nil
}
