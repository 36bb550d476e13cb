package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FranksOps/evp/internal/metrics"
	"github.com/FranksOps/evp/internal/scraper"
	"github.com/FranksOps/evp/internal/serp"
)

// Search queries per category; %s is the company name.
const (
	pressReleaseQuery = "%s press release"
	reviewsQuery      = "%s Glassdoor employee reviews"
	reportsQuery      = "%s annual report site:investor"
)

// CollectorConfig configures a Collector.
type CollectorConfig struct {
	MaxChars          int
	PressReleaseLimit int
	ReviewLimit       int
	ReportLimit       int
	// Disallowed domains are matched case-insensitively anywhere in a
	// result URL.
	Disallowed []string
	// Robots, when set, is consulted before every fetch.
	Robots *scraper.RobotsTxtAuditor
}

// Collector fetches the company site and runs the categorized searches. It
// works strictly sequentially.
type Collector struct {
	cfg      CollectorConfig
	fetcher  *scraper.Fetcher
	provider serp.Provider
	logger   *slog.Logger
}

// NewCollector creates a Collector.
func NewCollector(cfg CollectorConfig, fetcher *scraper.Fetcher, provider serp.Provider, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	disallowed := make([]string, 0, len(cfg.Disallowed))
	for _, d := range cfg.Disallowed {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			disallowed = append(disallowed, d)
		}
	}
	cfg.Disallowed = disallowed

	return &Collector{
		cfg:      cfg,
		fetcher:  fetcher,
		provider: provider,
		logger:   logger,
	}
}

// CompanySite fetches the company's own website. The second return value is
// false when nothing usable came back.
func (c *Collector) CompanySite(ctx context.Context, url string) (Document, bool) {
	return c.fetch(ctx, url, CategoryCompanySite)
}

// PressReleases searches for and fetches recent press coverage.
func (c *Collector) PressReleases(ctx context.Context, company string) []Document {
	return c.searchAndFetch(ctx, fmt.Sprintf(pressReleaseQuery, company), CategoryPressRelease, c.cfg.PressReleaseLimit)
}

// EmployeeReviews searches for and fetches employee review pages.
func (c *Collector) EmployeeReviews(ctx context.Context, company string) []Document {
	return c.searchAndFetch(ctx, fmt.Sprintf(reviewsQuery, company), CategoryEmployeeReviews, c.cfg.ReviewLimit)
}

// Reports searches for and fetches annual and investor reports.
func (c *Collector) Reports(ctx context.Context, company string) []Document {
	return c.searchAndFetch(ctx, fmt.Sprintf(reportsQuery, company), CategoryCompanyReport, c.cfg.ReportLimit)
}

// Disallowed reports whether a URL belongs to an excluded domain.
func (c *Collector) Disallowed(url string) bool {
	lower := strings.ToLower(url)
	for _, d := range c.cfg.Disallowed {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

func (c *Collector) searchAndFetch(ctx context.Context, query string, category Category, limit int) []Document {
	docs := []Document{}
	if limit <= 0 {
		return docs
	}

	results, err := c.provider.Search(ctx, query, limit)
	metrics.RecordSearch(category.String(), err)
	if err != nil {
		c.logger.Warn("search failed", "category", category.String(), "query", query, "err", err)
		return docs
	}

	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		u := strings.TrimSpace(r.URL)
		if u == "" || c.Disallowed(u) {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}

		if doc, ok := c.fetch(ctx, u, category); ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

func (c *Collector) fetch(ctx context.Context, url string, category Category) (Document, bool) {
	if c.cfg.Robots != nil {
		allowed, err := c.cfg.Robots.IsAllowed(ctx, url, c.fetcher.UserAgent())
		if err != nil {
			c.logger.Debug("skipping source", "url", url, "err", err)
			return Document{}, false
		}
		if !allowed {
			c.logger.Debug("url blocked by robots.txt", "url", url)
			return Document{}, false
		}
	}

	page := c.fetcher.Fetch(ctx, url)
	metrics.RecordFetch(category.String(), page.StatusCode, page.Duration, len(page.Body))

	if !page.OK() {
		c.logger.Debug("skipping source",
			"url", url,
			"category", category.String(),
			"status", page.StatusCode,
			"detected", page.DetectionSrc,
			"err", page.Error,
		)
		return Document{}, false
	}

	text := scraper.Clean(page.Body)
	if text == "" {
		c.logger.Debug("skipping empty source", "url", url)
		return Document{}, false
	}

	return Document{
		Title:    url,
		URL:      url,
		Category: category,
		Content:  scraper.Truncate(text, c.cfg.MaxChars),
	}, true
}
