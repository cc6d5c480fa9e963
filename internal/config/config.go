// Package config loads server settings from the environment, after an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/DoyleJ11/moodplay-backend/internal/games"
	"github.com/DoyleJ11/moodplay-backend/internal/kv"
	"github.com/DoyleJ11/moodplay-backend/internal/suggest"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Addr     string `env:"ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDev   bool   `env:"LOG_DEV" envDefault:"false"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	// RateLimit is requests per minute per client IP; 0 disables it.
	RateLimit int `env:"RATE_LIMIT" envDefault:"120"`

	Store   kv.Options     `envPrefix:"STORE_"`
	Suggest suggest.Config `envPrefix:"SUGGEST_"`
	Games   games.Timings  `envPrefix:"GAMES_"`
}

// Load reads files (default ".env") into the process environment without
// overriding variables already set, then parses Config with the MOODPLAY_
// prefix. A missing .env file is not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "MOODPLAY_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var err error
	if c.Addr == "" {
		err = multierr.Append(err, fmt.Errorf("%w: ADDR is empty", ErrInvalid))
	}
	if _, lerr := zapcore.ParseLevel(c.LogLevel); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: LOG_LEVEL: %v", ErrInvalid, lerr))
	}
	if c.RateLimit < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: RATE_LIMIT must be >= 0", ErrInvalid))
	}
	switch c.Store.Backend {
	case kv.BackendMemory, kv.BackendBadger:
	case kv.BackendPostgres:
		if c.Store.PostgresDSN == "" {
			err = multierr.Append(err, fmt.Errorf("%w: STORE_POSTGRES_DSN required for postgres backend", ErrInvalid))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("%w: unknown STORE_BACKEND %q", ErrInvalid, c.Store.Backend))
	}
	if c.Suggest.Enabled && c.Suggest.APIKey == "" {
		err = multierr.Append(err, fmt.Errorf("%w: SUGGEST_API_KEY required when suggestions are enabled", ErrInvalid))
	}
	if c.Games.RollTicks < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: GAMES_ROLL_TICKS must be >= 0", ErrInvalid))
	}
	return err
}
