package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"readsum/internal/domain"
)

type Config struct {
	Provider     domain.Provider `env:"PROVIDER"       envDefault:"openai" validate:"oneof=openai gemini"`
	OpenAIAPIKey string          `env:"OPENAI_API_KEY"`
	OpenAIModel  string          `env:"OPENAI_MODEL"`
	GeminiAPIKey string          `env:"GEMINI_API_KEY"`
	GeminiModel  string          `env:"GEMINI_MODEL"`

	ReaderMode    string        `env:"READER_MODE"     envDefault:"proxy"              validate:"oneof=proxy direct"`
	ReaderBaseURL string        `env:"READER_BASE_URL" envDefault:"https://r.jina.ai/" validate:"required,url"`
	FetchTimeout  time.Duration `env:"FETCH_TIMEOUT"   envDefault:"60s"                validate:"gte=0"`

	HTTPAddr         string        `env:"HTTP_ADDR"         envDefault:":8080"`
	DBPath           string        `env:"DB_PATH"           envDefault:"db.sqlite"`
	HistoryRetention time.Duration `env:"HISTORY_RETENTION" envDefault:"720h"      validate:"gte=0"`

	Token        string  `env:"TOKEN"`
	AllowedUsers []int64 `env:"ALLOWED_USERS" envSeparator:","`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFile  string `env:"LOG_FILE"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	return parse(env.Options{})
}

// Parse builds a Config from environment only, ignoring the process
// environment.
func Parse(environment map[string]string) (Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Provider = domain.Provider(strings.ToLower(strings.TrimSpace(string(cfg.Provider))))
	cfg.ReaderMode = strings.ToLower(strings.TrimSpace(cfg.ReaderMode))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err = validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// APIKey returns the credential of the selected provider.
func (c Config) APIKey() string {
	if c.Provider == domain.ProviderGemini {
		return strings.TrimSpace(c.GeminiAPIKey)
	}

	return strings.TrimSpace(c.OpenAIAPIKey)
}

// Model returns the model of the selected provider, empty for the default.
func (c Config) Model() string {
	if c.Provider == domain.ProviderGemini {
		return strings.TrimSpace(c.GeminiModel)
	}

	return strings.TrimSpace(c.OpenAIModel)
}

// HistoryEnabled reports whether runs are stored.
func (c Config) HistoryEnabled() bool {
	return strings.TrimSpace(c.DBPath) != ""
}

// BotEnabled reports whether the Telegram bot should run.
func (c Config) BotEnabled() bool {
	return strings.TrimSpace(c.Token) != ""
}
