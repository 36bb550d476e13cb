package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// RobotsTxtAuditor manages robots.txt fetching and enforcement. Results are
// cached per host for the lifetime of the auditor.
type RobotsTxtAuditor struct {
	fetcher *Fetcher
	logger  *slog.Logger
	mu      sync.Mutex
	cache   map[string]*robotstxt.RobotsData
}

// NewRobotsTxtAuditor creates a new instance.
func NewRobotsTxtAuditor(fetcher *Fetcher, logger *slog.Logger) *RobotsTxtAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsTxtAuditor{
		fetcher: fetcher,
		logger:  logger,
		cache:   make(map[string]*robotstxt.RobotsData),
	}
}

// IsAllowed determines if the given URL is allowed by the host's robots.txt
// for the provided User-Agent. An unreachable or missing robots.txt allows
// everything.
func (r *RobotsTxtAuditor) IsAllowed(ctx context.Context, targetURL string, userAgent string) (bool, error) {
	u, err := url.Parse(targetURL)
	if err != nil || u.Host == "" {
		return false, fmt.Errorf("invalid url %q", targetURL)
	}

	data := r.load(ctx, u.Scheme+"://"+u.Host)
	if data == nil {
		return true, nil
	}

	return data.FindGroup(userAgent).Test(u.Path), nil
}

func (r *RobotsTxtAuditor) load(ctx context.Context, host string) *robotstxt.RobotsData {
	r.mu.Lock()
	defer r.mu.Unlock()

	if data, ok := r.cache[host]; ok {
		return data
	}

	page := r.fetcher.Fetch(ctx, host+"/robots.txt")

	var data *robotstxt.RobotsData
	switch {
	case page.Error != "":
		r.logger.Debug("robots.txt fetch failed, defaulting to allow", "host", host, "err", page.Error)
	case page.StatusCode >= 400:
	default:
		parsed, err := robotstxt.FromBytes(page.Body)
		if err != nil {
			r.logger.Debug("robots.txt parse failed, defaulting to allow", "host", host, "err", err)
		} else {
			data = parsed
		}
	}

	r.cache[host] = data
	return data
}
