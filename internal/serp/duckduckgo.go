package serp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FranksOps/evp/pkg/httpclient"
	"github.com/PuerkitoBio/goquery"
)

// DefaultDuckDuckGoEndpoint is the no-JavaScript HTML interface, which needs
// no API key and has a stable markup.
const DefaultDuckDuckGoEndpoint = "https://lite.duckduckgo.com/lite/"

// DuckDuckGoConfig configures the DuckDuckGo provider.
type DuckDuckGoConfig struct {
	Endpoint  string
	Timeout   time.Duration
	UserAgent string
	Transport http.RoundTripper
}

// DuckDuckGo implements Provider by scraping the DuckDuckGo lite results page.
type DuckDuckGo struct {
	endpoint string
	client   *httpclient.Client
}

var _ Provider = (*DuckDuckGo)(nil)

// NewDuckDuckGo creates a DuckDuckGo provider.
func NewDuckDuckGo(cfg DuckDuckGoConfig) *DuckDuckGo {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultDuckDuckGoEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &DuckDuckGo{
		endpoint: cfg.Endpoint,
		client: httpclient.New(httpclient.Config{
			Timeout:   cfg.Timeout,
			UserAgent: cfg.UserAgent,
			Transport: cfg.Transport,
		}),
	}
}

// Search posts the query to the lite endpoint and parses the result links.
func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("serp: query is empty")
	}
	if limit < 0 {
		return nil, fmt.Errorf("serp: limit cannot be negative: %d", limit)
	}
	if limit == 0 {
		return []Result{}, nil
	}

	form := url.Values{}
	form.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("serp: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("serp: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serp: duckduckgo http %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("serp: parse results: %w", err)
	}

	return parseResults(doc, limit), nil
}

func parseResults(doc *goquery.Document, limit int) []Result {
	results := []Result{}
	seen := make(map[string]struct{})

	doc.Find("a.result-link").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		target := resolveResultURL(href)
		if target == "" {
			return true
		}
		if _, dup := seen[target]; dup {
			return true
		}
		seen[target] = struct{}{}

		results = append(results, Result{
			Title: strings.TrimSpace(s.Text()),
			URL:   target,
		})
		return len(results) < limit
	})

	return results
}

// resolveResultURL unwraps DuckDuckGo click-tracking links
// ("//duckduckgo.com/l/?uddg=<target>") and drops anything that is not an
// absolute http(s) URL.
func resolveResultURL(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		target := u.Query().Get("uddg")
		if target == "" {
			return ""
		}
		return resolveResultURL(target)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
