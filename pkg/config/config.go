package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/logsift/pkg/filter"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when it is non-empty and otherwise returns the
// validated default configuration with environment overrides applied.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}

	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration for errors, fills defaults and resolves
// the timezone.
func Validate(cfg *Config) error {
	for i, src := range cfg.LogSources {
		if strings.TrimSpace(src) == "" {
			return fmt.Errorf("log_sources[%d]: empty path", i)
		}
	}

	loc, err := loadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	cfg.location = loc

	if err := validateAnalysis(&cfg.Analysis); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	if err := validateFilters(&cfg.Filters, loc); err != nil {
		return fmt.Errorf("filters: %w", err)
	}

	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func loadLocation(name string) (*time.Location, error) {
	switch strings.ToLower(name) {
	case "", "local":
		return time.Local, nil
	case "utc":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

func validateAnalysis(a *AnalysisConfig) error {
	if a.TopThreads < 0 {
		return errors.New("top_threads must be >= 0")
	}
	if a.TopThreads == 0 {
		a.TopThreads = DefaultTopThreads
	}
	if a.ReadConcurrency < 0 {
		return errors.New("read_concurrency must be >= 0")
	}
	if a.ReadConcurrency == 0 {
		a.ReadConcurrency = DefaultReadConcurrency
	}
	return nil
}

func validateFilters(f *FilterConfig, loc *time.Location) error {
	if _, err := filter.NewCriteria(f.Levels, f.From, f.To, f.Search, loc); err != nil {
		return err
	}
	return nil
}

// Criteria builds the default entry filter described by the config.
func (c *Config) Criteria() (filter.Criteria, error) {
	return filter.NewCriteria(c.Filters.Levels, c.Filters.From, c.Filters.To, c.Filters.Search, c.Location())
}

func validateServer(s *ServerConfig) error {
	if s.Addr == "" {
		s.Addr = DefaultServerAddr
	}
	if s.MaxUploadBytes < 0 {
		return errors.New("max_upload_bytes must be >= 0")
	}
	if s.MaxUploadBytes == 0 {
		s.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	// Validate URL format
	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnErrors, WebhookTriggerAlways, WebhookTriggerNever:
		default:
			return fmt.Errorf("invalid trigger %q (must be on_errors, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnErrors
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	if wh.MaxRetries == 0 {
		wh.MaxRetries = DefaultWebhookRetries
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	// Handle ${VAR} format
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}

	// Handle $VAR format (no braces)
	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		varName := s[1:]
		return os.Getenv(varName)
	}

	return s
}
