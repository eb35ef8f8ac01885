package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ccollicutt/logsift/pkg/parser"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
log_sources:
  - /var/log/app/**/*.log
timezone: UTC
analysis:
  attribute_exceptions: false
  top_threads: 5
  read_concurrency: 2
filters:
  levels: [error, WRN]
  search: timeout
  from: "2024-01-15 00:00:00"
  to: "2024-01-16"
server:
  addr: ":9090"
`
	path := writeTempFile(t, "config.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.LogSources) != 1 {
		t.Errorf("LogSources = %d, want 1", len(cfg.LogSources))
	}
	if cfg.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", cfg.Location())
	}
	if cfg.Analysis.AttributeExceptionsEnabled() {
		t.Error("AttributeExceptionsEnabled() = true, want false")
	}
	if cfg.Analysis.TopThreads != 5 {
		t.Errorf("TopThreads = %d, want 5", cfg.Analysis.TopThreads)
	}
	if cfg.Analysis.ReadConcurrency != 2 {
		t.Errorf("ReadConcurrency = %d, want 2", cfg.Analysis.ReadConcurrency)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Server.MaxUploadBytes != DefaultMaxUploadBytes {
		t.Errorf("Server.MaxUploadBytes = %d, want default", cfg.Server.MaxUploadBytes)
	}

	c, err := cfg.Criteria()
	if err != nil {
		t.Fatalf("Criteria() error = %v", err)
	}
	if !c.Levels[parser.LevelError] || !c.Levels[parser.LevelWarning] || c.Levels[parser.LevelDebug] {
		t.Errorf("Criteria().Levels = %v", c.Levels)
	}
	if c.Query != "timeout" {
		t.Errorf("Criteria().Query = %q", c.Query)
	}
	if c.From == nil || !c.From.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Criteria().From = %v", c.From)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTempFile(t, "config.yaml", "log_sources: [app.log]\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.Analysis.AttributeExceptionsEnabled() {
		t.Error("AttributeExceptionsEnabled() = false, want true")
	}
	if cfg.Analysis.TopThreads != DefaultTopThreads {
		t.Errorf("TopThreads = %d, want %d", cfg.Analysis.TopThreads, DefaultTopThreads)
	}
	if cfg.Location() != time.Local {
		t.Errorf("Location() = %v, want Local", cfg.Location())
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	content := `invalid: yaml: content: [`
	path := writeTempFile(t, "invalid.yaml", content)
	_, err := Load(context.Background(), path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("LOGSIFT_TIMEZONE", "UTC")
	t.Setenv("LOGSIFT_SERVER_ADDR", "127.0.0.1:7000")
	t.Setenv("LOGSIFT_TOP_THREADS", "25")
	t.Setenv("LOGSIFT_ATTRIBUTE_EXCEPTIONS", "false")

	path := writeTempFile(t, "config.yaml", "timezone: Local\nanalysis:\n  top_threads: 3\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", cfg.Location())
	}
	if cfg.Server.Addr != "127.0.0.1:7000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Analysis.TopThreads != 25 {
		t.Errorf("TopThreads = %d, want 25", cfg.Analysis.TopThreads)
	}
	if cfg.Analysis.AttributeExceptionsEnabled() {
		t.Error("AttributeExceptionsEnabled() = true, want false")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(context.Background(), "")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if len(cfg.LogSources) != 0 {
		t.Errorf("LogSources = %v, want empty", cfg.LogSources)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultServerAddr)
	}

	path := writeTempFile(t, "config.yaml", "log_sources: [a.log, b.log]\n")
	cfg, err = LoadOrDefault(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if len(cfg.LogSources) != 2 {
		t.Errorf("LogSources = %v, want 2 entries", cfg.LogSources)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty log source", mutate: func(c *Config) { c.LogSources = []string{" "} }, wantErr: true},
		{name: "iana timezone", mutate: func(c *Config) { c.Timezone = "Europe/Berlin" }},
		{name: "unknown timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "negative top threads", mutate: func(c *Config) { c.Analysis.TopThreads = -1 }, wantErr: true},
		{name: "negative concurrency", mutate: func(c *Config) { c.Analysis.ReadConcurrency = -2 }, wantErr: true},
		{name: "unknown level", mutate: func(c *Config) { c.Filters.Levels = []string{"critical"} }, wantErr: true},
		{name: "bad from date", mutate: func(c *Config) { c.Filters.From = "yesterday-ish" }, wantErr: true},
		{name: "reversed dates", mutate: func(c *Config) {
			c.Filters.From = "2024-02-01"
			c.Filters.To = "2024-01-01"
		}, wantErr: true},
		{name: "negative upload limit", mutate: func(c *Config) { c.Server.MaxUploadBytes = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_FillsZeroValues(t *testing.T) {
	cfg := &Config{}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Analysis.TopThreads != DefaultTopThreads {
		t.Errorf("TopThreads = %d, want %d", cfg.Analysis.TopThreads, DefaultTopThreads)
	}
	if cfg.Analysis.ReadConcurrency != DefaultReadConcurrency {
		t.Errorf("ReadConcurrency = %d, want %d", cfg.Analysis.ReadConcurrency, DefaultReadConcurrency)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultServerAddr)
	}
	if !cfg.Analysis.AttributeExceptionsEnabled() {
		t.Error("AttributeExceptionsEnabled() = false, want true when unset")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Timezone != DefaultTimezone {
		t.Errorf("Timezone = %q, want %q", cfg.Timezone, DefaultTimezone)
	}
	if cfg.Server.MaxUploadBytes != DefaultMaxUploadBytes {
		t.Errorf("MaxUploadBytes = %d, want %d", cfg.Server.MaxUploadBytes, DefaultMaxUploadBytes)
	}
}

func TestValidate_Webhook_Valid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Webhooks = []WebhookConfig{{
		Name:    "ops",
		URL:     "https://hooks.example.com/logsift",
		Token:   "secret",
		Trigger: WebhookTriggerAlways,
	}}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_Webhook_Invalid(t *testing.T) {
	tests := []struct {
		name string
		wh   WebhookConfig
	}{
		{name: "missing url", wh: WebhookConfig{Name: "x"}},
		{name: "bad scheme", wh: WebhookConfig{URL: "ftp://example.com/hook"}},
		{name: "no host", wh: WebhookConfig{URL: "https:///hook"}},
		{name: "bad trigger", wh: WebhookConfig{URL: "https://example.com", Trigger: "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Webhooks = []WebhookConfig{tt.wh}
			if err := Validate(cfg); err == nil {
				t.Error("Validate() expected error")
			}
		})
	}
}

func TestValidate_Webhook_AllTriggers(t *testing.T) {
	for _, trigger := range []WebhookTrigger{WebhookTriggerOnErrors, WebhookTriggerAlways, WebhookTriggerNever} {
		cfg := DefaultConfig()
		cfg.Webhooks = []WebhookConfig{{URL: "https://example.com/webhook", Trigger: trigger}}
		if err := Validate(cfg); err != nil {
			t.Errorf("Validate() with trigger %q error = %v", trigger, err)
		}
	}
}

func TestValidate_Webhook_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Webhooks = []WebhookConfig{{URL: "https://example.com/webhook"}}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	wh := cfg.Webhooks[0]
	if wh.Trigger != WebhookTriggerOnErrors {
		t.Errorf("Trigger = %q, want %q", wh.Trigger, WebhookTriggerOnErrors)
	}
	if wh.Timeout != DefaultWebhookTimeout {
		t.Errorf("Timeout = %v, want %v", wh.Timeout, DefaultWebhookTimeout)
	}
	if wh.MaxRetries != DefaultWebhookRetries {
		t.Errorf("MaxRetries = %d, want %d", wh.MaxRetries, DefaultWebhookRetries)
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_TOKEN", "secret-value")

	tests := []struct {
		input string
		want  string
	}{
		{"${TEST_WEBHOOK_TOKEN}", "secret-value"},
		{"$TEST_WEBHOOK_TOKEN", "secret-value"},
		{"plain-value", "plain-value"},
		{"", ""},
		{"${NONEXISTENT_VAR}", ""},
	}

	for _, tt := range tests {
		got := expandEnvVar(tt.input)
		if got != tt.want {
			t.Errorf("expandEnvVar(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLoad_WithWebhooks(t *testing.T) {
	t.Setenv("LOGSIFT_TEST_TOKEN", "tok")
	content := `
log_sources:
  - /var/log/*.log
webhooks:
  - name: test-webhook
    url: "https://example.com/webhook"
    token: ${LOGSIFT_TEST_TOKEN}
    trigger: on_errors
    timeout: 30s
    max_retries: 5
  - url: "https://backup.example.com/webhook"
    trigger: always
`
	path := writeTempFile(t, "config-with-webhooks.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Webhooks) != 2 {
		t.Fatalf("Webhooks = %d, want 2", len(cfg.Webhooks))
	}
	if cfg.Webhooks[0].Token != "tok" {
		t.Errorf("Webhook[0].Token = %q, want %q", cfg.Webhooks[0].Token, "tok")
	}
	if cfg.Webhooks[0].Timeout != 30*time.Second {
		t.Errorf("Webhook[0].Timeout = %v, want 30s", cfg.Webhooks[0].Timeout)
	}
	if cfg.Webhooks[0].MaxRetries != 5 {
		t.Errorf("Webhook[0].MaxRetries = %d, want 5", cfg.Webhooks[0].MaxRetries)
	}
	if cfg.Webhooks[1].Trigger != WebhookTriggerAlways {
		t.Errorf("Webhook[1].Trigger = %v, want %v", cfg.Webhooks[1].Trigger, WebhookTriggerAlways)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}
