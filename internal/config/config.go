package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"Recharted/internal/interval"
	"Recharted/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port         int           `yaml:"port" env:"PORT"`
		ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL"`
	} `yaml:"log"`
	Codex struct {
		Endpoint string `yaml:"endpoint" env:"CODEX_ENDPOINT"`
		APIKey   string `yaml:"api_key" env:"CODEX_API_KEY"`
	} `yaml:"codex"`
	DexScreener struct {
		BaseURL string `yaml:"base_url" env:"DEXSCREENER_BASE_URL"`
	} `yaml:"dexscreener"`
	Syndication struct {
		BaseURL string `yaml:"base_url" env:"SYNDICATION_BASE_URL"`
	} `yaml:"syndication"`
	HTTP struct {
		Timeout time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT"`
	} `yaml:"http"`
	Resolver struct {
		DefaultTimeframe       string            `yaml:"default_timeframe" env:"DEFAULT_TIMEFRAME"`
		HistoryGuardExemptions []string          `yaml:"history_guard_exemptions" env:"HISTORY_GUARD_EXEMPTIONS" envSeparator:","`
		PopularTokens          map[string]string `yaml:"popular_tokens" env:"POPULAR_TOKENS" envSeparator:"," envKeyValSeparator:"="`
	} `yaml:"resolver"`
	Cache struct {
		TTL           time.Duration `yaml:"ttl" env:"CACHE_TTL"`
		RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR"`
		RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
		RedisDB       int           `yaml:"redis_db" env:"REDIS_DB"`
	} `yaml:"cache"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
		ChatID   int64  `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram"`
	Schedule struct {
		WarmCron  string `yaml:"warm_cron" env:"CRON_WARM"`
		PruneCron string `yaml:"prune_cron" env:"CRON_PRUNE"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy" env:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Load .env file if it exists
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = 30 * time.Second
	}
	if c.Resolver.DefaultTimeframe == "" {
		c.Resolver.DefaultTimeframe = string(interval.DefaultTimeframe)
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 60 * time.Second
	}
	if c.Schedule.WarmCron == "" {
		c.Schedule.WarmCron = "0 */5 * * * *"
	}
	if c.Schedule.PruneCron == "" {
		c.Schedule.PruneCron = "30 * * * * *"
	}
}

// Validate checks value ranges. Optional integrations may stay empty.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.HTTP.Timeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Cache.RedisDB < 0 {
		return fmt.Errorf("cache.redis_db must not be negative")
	}
	if !interval.Valid(model.Timeframe(c.Resolver.DefaultTimeframe)) {
		return fmt.Errorf("resolver.default_timeframe %q is not a known timeframe", c.Resolver.DefaultTimeframe)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == 0) {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether the ops notifier is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != 0
}

// DefaultTimeframe returns the configured default timeframe token.
func (c *Config) DefaultTimeframe() model.Timeframe {
	return model.Timeframe(c.Resolver.DefaultTimeframe)
}
