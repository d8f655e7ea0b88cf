package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	// Analysis delegate. An empty scripts dir disables the delegate and
	// every analysis request is served by the internal engine instead.
	AnalysisInterpreter string `env:"ANALYSIS_INTERPRETER" default:"python3"`
	AnalysisScriptsDir  string `env:"ANALYSIS_SCRIPTS_DIR"`

	ReportCacheTTL time.Duration `env:"REPORT_CACHE_TTL" default:"5m"`

	// TotalResidents feeds the per-meal submission percentages. Zero means
	// unknown and suppresses the percentage fields.
	TotalResidents int `env:"TOTAL_RESIDENTS" default:"0"`

	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" default:"120"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"REDIS_URL":    cfg.RedisURL,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if cfg.ReportCacheTTL <= 0 {
		return errors.New("REPORT_CACHE_TTL must be positive")
	}
	if cfg.TotalResidents < 0 {
		return errors.New("TOTAL_RESIDENTS must not be negative")
	}
	if cfg.RateLimitPerMinute <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be positive")
	}

	return nil
}
