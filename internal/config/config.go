// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Scrape   ScrapeConfig   `mapstructure:"scrape"`
	Headless HeadlessConfig `mapstructure:"headless"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Filing   FilingConfig   `mapstructure:"filing"`
	DB       DBConfig       `mapstructure:"db"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// ScrapeConfig governs the fetch and extraction pipeline.
type ScrapeConfig struct {
	UserAgent              string `mapstructure:"user_agent"`
	TimeoutSeconds         int    `mapstructure:"timeout_seconds"`
	MaxAttempts            int    `mapstructure:"max_attempts"`
	RetryDelaySeconds      int    `mapstructure:"retry_delay_seconds"`
	RetryableStatuses      []int  `mapstructure:"retryable_statuses"`
	PolitenessDelaySeconds int    `mapstructure:"politeness_delay_seconds"`
	RespectRobots          bool   `mapstructure:"respect_robots"`
}

// HeadlessConfig configures the headless rendering engine used by the
// fallback strategy.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
}

// LLMConfig selects the chat-model backend.
type LLMConfig struct {
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// FilingConfig sets the regulatory report URL templates.
type FilingConfig struct {
	ADVReportURL string `mapstructure:"adv_report_url"`
	CRSReportURL string `mapstructure:"crs_report_url"`
}

// DBConfig controls access to the relational database. An empty DSN selects
// the in-memory profile store.
type DBConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// LoggingConfig toggles zap development features and the level threshold.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("scrape.user_agent", "ria-analyst-bot/0.1")
	v.SetDefault("scrape.timeout_seconds", 15)
	v.SetDefault("scrape.max_attempts", 3)
	v.SetDefault("scrape.retry_delay_seconds", 1)
	v.SetDefault("scrape.politeness_delay_seconds", 1)
	v.SetDefault("scrape.respect_robots", true)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("db.table", "profiles")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scrape.TimeoutSeconds <= 0 {
		return fmt.Errorf("scrape.timeout_seconds must be > 0")
	}
	if c.Scrape.MaxAttempts <= 0 {
		return fmt.Errorf("scrape.max_attempts must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must be set")
	}
	return nil
}

// ScrapeTimeout converts the scrape timeout into a duration.
func (c Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Scrape.TimeoutSeconds) * time.Second
}
