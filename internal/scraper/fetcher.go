package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/FranksOps/evp/internal/bypass"
	"github.com/FranksOps/evp/internal/fingerprint"
	"github.com/FranksOps/evp/pkg/httpclient"
	"golang.org/x/net/html/charset"
)

// DefaultUserAgent is a desktop Safari identity; several press and review
// sites refuse requests from obvious library agents.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 " +
	"(KHTML, like Gecko) Version/15.1 Safari/605.1.15"

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 20 * time.Second

// maxBodyBytes caps how much of a response is read before cleaning.
const maxBodyBytes = 5 << 20

// FetchConfig configures a Fetcher.
type FetchConfig struct {
	Timeout     time.Duration
	UserAgent   string
	Fingerprint fingerprint.Profile
	// Detectors inspect each page for bot challenges. Nil selects
	// bypass.DefaultDetectors.
	Detectors []bypass.Detector
}

// Page is the outcome of a single GET. Transport failures are recorded in
// Error rather than returned, so callers can treat every failure the same way.
type Page struct {
	URL          string
	StatusCode   int
	Header       http.Header
	Body         []byte
	Duration     time.Duration
	DetectedBot  bool
	DetectionSrc string
	Error        string
}

// OK reports whether the page holds usable content: a 2xx response that was
// fully read and is not a bot challenge.
func (p *Page) OK() bool {
	return p != nil &&
		p.Error == "" &&
		p.StatusCode >= 200 && p.StatusCode < 300 &&
		!p.DetectedBot
}

// Fetcher performs single URL fetches. It holds one client so connections
// are reused across the fetches of a run.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
}

// NewFetcher initializes a new Fetcher with the given configuration.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileGo
	}
	if cfg.Detectors == nil {
		cfg.Detectors = bypass.DefaultDetectors()
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to setup transport: %w", err)
	}

	client := httpclient.New(httpclient.Config{
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		Transport: transport,
	})

	return &Fetcher{
		config: cfg,
		client: client,
	}, nil
}

// UserAgent returns the identity the fetcher sends.
func (f *Fetcher) UserAgent() string {
	return f.config.UserAgent
}

// Fetch executes a GET request to the target URL. It never returns nil.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) *Page {
	start := time.Now()
	page := &Page{URL: targetURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		page.Error = fmt.Sprintf("failed to create request: %v", err)
		page.Duration = time.Since(start)
		return page
	}

	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req.Context(), req)
	if err != nil {
		page.Error = fmt.Sprintf("request failed: %v", err)
		page.Duration = time.Since(start)
		return page
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		page.Error = fmt.Sprintf("failed to read body: %v", err)
	}

	page.StatusCode = resp.StatusCode
	page.Header = resp.Header
	page.Body = toUTF8(body, resp.Header.Get("Content-Type"))
	page.Duration = time.Since(start)

	page.DetectedBot, page.DetectionSrc = bypass.Analyze(bypass.Response{
		StatusCode: page.StatusCode,
		Header:     page.Header,
		Body:       page.Body,
	}, f.config.Detectors)

	return page
}

// toUTF8 transcodes a body using the declared charset, a <meta> declaration or
// sniffing, in that order. The raw bytes are kept if decoding fails.
func toUTF8(body []byte, contentType string) []byte {
	if len(body) == 0 {
		return body
	}
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return decoded
}
