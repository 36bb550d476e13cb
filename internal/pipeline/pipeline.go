// Package pipeline sequences one EVP run: collect sources, compile the
// context, generate the report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FranksOps/evp/internal/config"
	"github.com/FranksOps/evp/internal/evp"
	"github.com/FranksOps/evp/internal/fingerprint"
	"github.com/FranksOps/evp/internal/llm"
	"github.com/FranksOps/evp/internal/scraper"
	"github.com/FranksOps/evp/internal/serp"
	"github.com/FranksOps/evp/internal/source"
	"github.com/google/uuid"
)

// Result is the outcome of a run.
type Result struct {
	RunID     string            `json:"run_id"`
	Company   string            `json:"company"`
	Documents []source.Document `json:"documents"`
	Context   string            `json:"context"`
	Report    string            `json:"report"`
}

// Pinger validates the completion provider with a single round trip.
type Pinger interface {
	Ping(ctx context.Context, model string) error
}

// Option customizes a Workflow.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	provider  serp.Provider
	completer llm.Completer
}

// WithLogger sets the logger used by every stage.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSearchProvider replaces the DuckDuckGo provider.
func WithSearchProvider(p serp.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithCompleter replaces the OpenAI client.
func WithCompleter(c llm.Completer) Option {
	return func(o *options) { o.completer = c }
}

// Workflow owns everything a run touches; workflows share no mutable state,
// so concurrent runs each build their own.
type Workflow struct {
	cfg       config.Config
	collector *source.Collector
	generator *evp.Generator
	completer llm.Completer
	logger    *slog.Logger
}

// New validates the configuration and wires the stages. It performs no
// network activity; a missing credential fails here with
// config.ErrMissingAPIKey.
func New(cfg config.Config, opts ...Option) (*Workflow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	profile, err := fingerprint.ParseProfile(cfg.Sources.Fingerprint)
	if err != nil {
		return nil, err
	}
	fetcher, err := scraper.NewFetcher(scraper.FetchConfig{
		Timeout:     cfg.Sources.FetchTimeout,
		UserAgent:   cfg.Sources.UserAgent,
		Fingerprint: profile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	if o.provider == nil {
		o.provider = serp.NewDuckDuckGo(serp.DuckDuckGoConfig{
			Endpoint:  cfg.Sources.SearchEndpoint,
			UserAgent: fetcher.UserAgent(),
		})
	}
	if o.completer == nil {
		client, err := llm.NewClient(cfg.Settings, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to create completion client: %w", err)
		}
		o.completer = client
	}

	var robots *scraper.RobotsTxtAuditor
	if cfg.Sources.RespectRobots {
		robots = scraper.NewRobotsTxtAuditor(fetcher, o.logger)
	}

	collector := source.NewCollector(source.CollectorConfig{
		MaxChars:          cfg.Sources.MaxChars,
		PressReleaseLimit: cfg.Sources.PressReleaseLimit,
		ReviewLimit:       cfg.Sources.ReviewLimit,
		ReportLimit:       cfg.Sources.ReportLimit,
		Disallowed:        cfg.Sources.Disallowed,
		Robots:            robots,
	}, fetcher, o.provider, o.logger)

	return &Workflow{
		cfg:       cfg,
		collector: collector,
		generator: evp.NewGenerator(o.completer, cfg.Settings.Model, o.logger),
		completer: o.completer,
		logger:    o.logger,
	}, nil
}

// Validate performs the one reachability check against the completion
// provider.
func (w *Workflow) Validate(ctx context.Context) error {
	p, ok := w.completer.(Pinger)
	if !ok {
		return errors.New("completion provider does not support validation")
	}
	return p.Ping(ctx, w.cfg.Settings.Model)
}

// Run collects sources for the company and generates its EVP. Sources that
// cannot be fetched are simply absent; a run with zero documents still
// generates a report. Only a generation error fails the run.
func (w *Workflow) Run(ctx context.Context, company, companyURL string) (*Result, error) {
	company = strings.TrimSpace(company)
	companyURL = strings.TrimSpace(companyURL)
	if company == "" || companyURL == "" {
		return nil, errors.New("company name and website URL are required")
	}

	res := &Result{
		RunID:     uuid.New().String(),
		Company:   company,
		Documents: []source.Document{},
	}
	log := w.logger.With("run_id", res.RunID, "company", company)

	if doc, ok := w.collector.CompanySite(ctx, companyURL); ok {
		res.Documents = append(res.Documents, doc)
	} else {
		log.Warn("company website unavailable", "url", companyURL)
	}

	res.Documents = append(res.Documents, w.collector.PressReleases(ctx, company)...)
	res.Documents = append(res.Documents, w.collector.EmployeeReviews(ctx, company)...)
	res.Documents = append(res.Documents, w.collector.Reports(ctx, company)...)
	log.Info("sources collected", "documents", len(res.Documents))

	res.Context = source.Compile(res.Documents)

	report, err := w.generator.Generate(ctx, company, res.Context)
	if err != nil {
		return nil, fmt.Errorf("generate evp: %w", err)
	}
	res.Report = report
	log.Info("evp generated", "report_chars", len(report))

	return res, nil
}
