package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings that are common for all bots.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// TokenParam names an SSM parameter holding the token. Used only when Token is empty.
	TokenParam string `yaml:"token_param" envconfig:"BOT_TOKEN_SSM_PARAM"`
	AdminIDs   IDList `yaml:"admin_ids" envconfig:"ADMIN_IDS"`
	RunMode    string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// HealthConfig configures the liveness and metrics HTTP server.
type HealthConfig struct {
	Disabled bool   `yaml:"disabled" envconfig:"HEALTH_DISABLED"`
	Listen   string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
	Port     int    `yaml:"port" envconfig:"PORT"`
}

// Addr returns the listen address of the health server.
func (h HealthConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Listen, h.Port)
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// DefaultHealthPort is used when no PORT is configured.
const DefaultHealthPort = 3000

const (
	// UpdateMessage identifies text message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdatePhoto identifies photo updates for rate limit exclusions.
	UpdatePhoto = "photo"
	// UpdateCommand identifies slash commands for rate limit exclusions.
	UpdateCommand = "command"
)

// RateLimitConfig holds settings for the per-user message throttle.
// IntervalMS 0 disables it. ExcludeUpdates accepts update types to bypass limiting:
// - "message": plain text messages
// - "photo": photo uploads
// - "command": slash commands
type RateLimitConfig struct {
	IntervalMS     int        `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	Burst          int        `yaml:"burst" envconfig:"RATE_LIMIT_BURST"`
	ExcludeUpdates StringList `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Health    HealthConfig    `yaml:"health"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Decode fills target from the YAML file at path and then from the
// environment. An empty path skips the file. Environment values win.
func Decode(path string, target any) error {
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, target); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process("", target); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	return nil
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	cfg.Telegram.TokenParam = strings.TrimSpace(cfg.Telegram.TokenParam)
	if cfg.Telegram.Token == "" && cfg.Telegram.TokenParam == "" {
		return fmt.Errorf("telegram token is required (BOT_TOKEN or BOT_TOKEN_SSM_PARAM)")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if !cfg.Health.Disabled {
		if cfg.Health.Port == 0 {
			cfg.Health.Port = DefaultHealthPort
		}
		if cfg.Health.Port < 0 || cfg.Health.Port > 65535 {
			return fmt.Errorf("health.port %d out of range", cfg.Health.Port)
		}
		if rm == RunModeWebhook && cfg.Health.Port == cfg.Webhook.Port {
			return fmt.Errorf("health.port must differ from webhook.port (%d)", cfg.Webhook.Port)
		}
	}

	if cfg.RateLimit.IntervalMS < 0 {
		return fmt.Errorf("rate_limit.interval_ms must be >= 0")
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 1
	}
	allowed := map[string]struct{}{
		UpdateMessage: {},
		UpdatePhoto:   {},
		UpdateCommand: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: message, photo, command", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}

// ParamResolver fetches a secret value by name.
type ParamResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// ResolveToken fills Telegram.Token from TokenParam when no token was
// configured directly.
func ResolveToken(ctx context.Context, cfg *Config, resolver ParamResolver) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if cfg.Telegram.Token != "" {
		return nil
	}
	if cfg.Telegram.TokenParam == "" {
		return errors.New("telegram token is required")
	}
	if resolver == nil {
		return fmt.Errorf("no resolver for token parameter %q", cfg.Telegram.TokenParam)
	}
	token, err := resolver.Resolve(ctx, cfg.Telegram.TokenParam)
	if err != nil {
		return fmt.Errorf("resolve token parameter %q: %w", cfg.Telegram.TokenParam, err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token parameter %q is empty", cfg.Telegram.TokenParam)
	}
	cfg.Telegram.Token = token
	return nil
}
