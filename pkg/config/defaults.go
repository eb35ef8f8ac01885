package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Default values for configuration.
const (
	DefaultTimezone        = "Local"
	DefaultTopThreads      = 10
	DefaultReadConcurrency = 4
	DefaultServerAddr      = ":8080"
	DefaultMaxUploadBytes  = 32 << 20
	DefaultWebhookTimeout  = 10 * time.Second
	DefaultWebhookRetries  = 3
)

// EnvPrefix is the prefix of environment variables that override the
// configuration, for example LOGSIFT_TIMEZONE.
const EnvPrefix = "LOGSIFT"

// Keys read from the environment.
const (
	envTimezone            = "timezone"
	envServerAddr          = "server_addr"
	envTopThreads          = "top_threads"
	envAttributeExceptions = "attribute_exceptions"
	envReadConcurrency     = "read_concurrency"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	attribute := true
	return &Config{
		LogSources: []string{},
		Timezone:   DefaultTimezone,
		Analysis: AnalysisConfig{
			AttributeExceptions: &attribute,
			TopThreads:          DefaultTopThreads,
			ReadConcurrency:     DefaultReadConcurrency,
		},
		Server: ServerConfig{
			Addr:           DefaultServerAddr,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
	}
}

// applyEnvironmentOverrides applies LOGSIFT_* environment variables to the
// config.
func (c *Config) applyEnvironmentOverrides() {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range []string{envTimezone, envServerAddr, envTopThreads, envAttributeExceptions, envReadConcurrency} {
		_ = v.BindEnv(key)
	}

	if v.IsSet(envTimezone) {
		c.Timezone = v.GetString(envTimezone)
	}
	if v.IsSet(envServerAddr) {
		c.Server.Addr = v.GetString(envServerAddr)
	}
	if v.IsSet(envTopThreads) {
		c.Analysis.TopThreads = v.GetInt(envTopThreads)
	}
	if v.IsSet(envReadConcurrency) {
		c.Analysis.ReadConcurrency = v.GetInt(envReadConcurrency)
	}
	if v.IsSet(envAttributeExceptions) {
		attribute := v.GetBool(envAttributeExceptions)
		c.Analysis.AttributeExceptions = &attribute
	}

	log.Debug().
		Str("timezone", c.Timezone).
		Str("server_addr", c.Server.Addr).
		Int("top_threads", c.Analysis.TopThreads).
		Bool("attribute_exceptions", c.Analysis.AttributeExceptionsEnabled()).
		Msg("configuration after environment overrides")
}
