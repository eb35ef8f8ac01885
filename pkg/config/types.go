// Package config provides configuration loading and validation for logsift.
package config

import (
	"time"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// LogSources lists files or doublestar glob patterns to read when no
	// files are given on the command line.
	LogSources []string `yaml:"log_sources"`

	// Timezone names the location header dates are interpreted in
	// ("Local", "UTC", or an IANA name).
	Timezone string `yaml:"timezone,omitempty"`

	Analysis AnalysisConfig  `yaml:"analysis"`
	Filters  FilterConfig    `yaml:"filters"`
	Server   ServerConfig    `yaml:"server"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`

	// location is resolved from Timezone during validation.
	location *time.Location
}

// Location returns the resolved timezone, time.Local before validation.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// AnalysisConfig tunes parsing and reporting.
type AnalysisConfig struct {
	// AttributeExceptions counts exceptions against the API call sharing
	// their correlation id. Defaults to true.
	AttributeExceptions *bool `yaml:"attribute_exceptions,omitempty"`

	// TopThreads limits the thread distribution. Defaults to 10.
	TopThreads int `yaml:"top_threads,omitempty"`

	// ReadConcurrency bounds how many files are read at once. Defaults to 4.
	ReadConcurrency int `yaml:"read_concurrency,omitempty"`
}

// AttributeExceptionsEnabled returns the effective attribution setting.
func (a AnalysisConfig) AttributeExceptionsEnabled() bool {
	return a.AttributeExceptions == nil || *a.AttributeExceptions
}

// FilterConfig holds the default entry filter used by view and export.
type FilterConfig struct {
	// Levels lists enabled levels by name or code; empty means all.
	Levels []string `yaml:"levels,omitempty"`

	// Search is a case-insensitive substring query.
	Search string `yaml:"search,omitempty"`

	// From and To bound entry dates inclusively.
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address. Defaults to ":8080".
	Addr string `yaml:"addr,omitempty"`

	// MaxUploadBytes limits a dataset upload. Defaults to 32 MiB.
	MaxUploadBytes int64 `yaml:"max_upload_bytes,omitempty"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnErrors fires only when error entries or exceptions
	// were found (default).
	WebhookTriggerOnErrors WebhookTrigger = "on_errors"
	// WebhookTriggerAlways fires after every report.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_errors" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the per-attempt HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxRetries is how many times a failed delivery is retried.
	// Defaults to 3; a negative value disables retries.
	MaxRetries int `yaml:"max_retries,omitempty"`
}
