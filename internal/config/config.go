// Package config resolves the settings of a single EVP run from explicit
// caller input, environment variables, an optional YAML file and defaults, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/viper"
)

// Environment variables consulted during resolution.
const (
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvBaseURL = "OPENAI_BASE_URL"
	EnvModel   = "OPENAI_MODEL"
)

const (
	// DefaultModel is used when neither input nor environment names a model.
	DefaultModel = "gpt-4o-mini"
	// DefaultMaxChars caps the text kept per source so prompts stay within
	// the model context.
	DefaultMaxChars = 4000
)

// ErrMissingAPIKey is returned when no credential was supplied or found in
// the environment.
var ErrMissingAPIKey = errors.New("missing API key: provide one explicitly or set " + EnvAPIKey)

// Settings holds the completion provider connection metadata.
type Settings struct {
	APIKey  string
	BaseURL string // empty means the provider default
	Model   string
}

// Validate checks the settings without touching the network.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if strings.TrimSpace(s.Model) == "" {
		return errors.New("config error: model must not be empty")
	}
	if s.BaseURL != "" {
		u, err := url.Parse(s.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config error: invalid base URL %q", s.BaseURL)
		}
	}
	return nil
}

// Sources tunes source collection.
type Sources struct {
	MaxChars          int
	FetchTimeout      time.Duration
	PressReleaseLimit int
	ReviewLimit       int
	ReportLimit       int
	// Disallowed lists domains whose search results are never fetched.
	Disallowed    []string
	RespectRobots bool
	// Fingerprint names the TLS profile used for fetches ("go", "chrome", ...).
	Fingerprint    string
	UserAgent      string
	SearchEndpoint string
}

// DefaultSources returns the collection defaults.
func DefaultSources() Sources {
	return Sources{
		MaxChars:          DefaultMaxChars,
		FetchTimeout:      20 * time.Second,
		PressReleaseLimit: 3,
		ReviewLimit:       2,
		ReportLimit:       2,
		Disallowed:        []string{"wikipedia.org"},
		Fingerprint:       "go",
	}
}

// Validate checks the numeric ranges.
func (s Sources) Validate() error {
	if s.MaxChars <= 0 {
		return errors.New("config error: 'max_chars' must be positive")
	}
	if s.FetchTimeout <= 0 {
		return errors.New("config error: 'fetch_timeout' must be positive")
	}
	if s.PressReleaseLimit < 0 || s.ReviewLimit < 0 || s.ReportLimit < 0 {
		return errors.New("config error: search limits must be non-negative")
	}
	return nil
}

// Config is everything a run needs.
type Config struct {
	Settings Settings
	Sources  Sources
}

// Validate checks both halves of the configuration.
func (c Config) Validate() error {
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	return c.Sources.Validate()
}

// Overrides carries explicit caller input. Empty fields fall through to the
// environment.
type Overrides struct {
	APIKey     string
	BaseURL    string
	Model      string
	ConfigFile string
}

// Resolve builds a Config. A fresh viper instance is used on every call so
// concurrent resolutions never share state. When the credential is missing
// the returned error matches ErrMissingAPIKey and the returned Config still
// carries everything else that was resolved.
func Resolve(o Overrides) (Config, error) {
	v := viper.New()

	d := DefaultSources()
	v.SetDefault("model", DefaultModel)
	v.SetDefault("sources.max_chars", d.MaxChars)
	v.SetDefault("sources.fetch_timeout", d.FetchTimeout)
	v.SetDefault("sources.press_release_limit", d.PressReleaseLimit)
	v.SetDefault("sources.review_limit", d.ReviewLimit)
	v.SetDefault("sources.report_limit", d.ReportLimit)
	v.SetDefault("sources.disallowed", d.Disallowed)
	v.SetDefault("sources.respect_robots", d.RespectRobots)
	v.SetDefault("sources.fingerprint", d.Fingerprint)
	v.SetDefault("sources.user_agent", "")
	v.SetDefault("sources.search_endpoint", "")

	bindings := map[string]string{
		"api_key":                     EnvAPIKey,
		"base_url":                    EnvBaseURL,
		"model":                       EnvModel,
		"sources.max_chars":           "EVP_MAX_CHARS",
		"sources.fetch_timeout":       "EVP_FETCH_TIMEOUT",
		"sources.press_release_limit": "EVP_PRESS_RELEASE_LIMIT",
		"sources.review_limit":        "EVP_REVIEW_LIMIT",
		"sources.report_limit":        "EVP_REPORT_LIMIT",
		"sources.disallowed":          "EVP_DISALLOWED_DOMAINS",
		"sources.respect_robots":      "EVP_RESPECT_ROBOTS",
		"sources.fingerprint":         "EVP_FINGERPRINT",
		"sources.user_agent":          "EVP_USER_AGENT",
		"sources.search_endpoint":     "EVP_SEARCH_ENDPOINT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", o.ConfigFile, err)
		}
	}

	if s := strings.TrimSpace(o.APIKey); s != "" {
		v.Set("api_key", s)
	}
	if s := strings.TrimSpace(o.BaseURL); s != "" {
		v.Set("base_url", s)
	}
	if s := strings.TrimSpace(o.Model); s != "" {
		v.Set("model", s)
	}

	cfg := Config{
		Settings: Settings{
			APIKey:  strings.TrimSpace(v.GetString("api_key")),
			BaseURL: strings.TrimSpace(v.GetString("base_url")),
			Model:   strings.TrimSpace(v.GetString("model")),
		},
		Sources: Sources{
			MaxChars:          v.GetInt("sources.max_chars"),
			FetchTimeout:      v.GetDuration("sources.fetch_timeout"),
			PressReleaseLimit: v.GetInt("sources.press_release_limit"),
			ReviewLimit:       v.GetInt("sources.review_limit"),
			ReportLimit:       v.GetInt("sources.report_limit"),
			Disallowed:        splitList(v.GetStringSlice("sources.disallowed")),
			RespectRobots:     v.GetBool("sources.respect_robots"),
			Fingerprint:       v.GetString("sources.fingerprint"),
			UserAgent:         v.GetString("sources.user_agent"),
			SearchEndpoint:    v.GetString("sources.search_endpoint"),
		},
	}
	if cfg.Settings.Model == "" {
		cfg.Settings.Model = DefaultModel
	}

	return cfg, cfg.Validate()
}

// splitList flattens entries that hold several comma or whitespace separated
// values, as environment variables usually do.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, entry := range in {
		for _, f := range strings.FieldsFunc(entry, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		}) {
			out = append(out, f)
		}
	}
	return out
}
