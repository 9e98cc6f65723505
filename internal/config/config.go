// Package config loads runtime settings from CHESSRULES_* environment
// variables.
package config

import (
	"io"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Config holds every setting the command line tools read from the
// environment. Flags override individual fields.
type Config struct {
	DataDir     string `env:"CHESSRULES_DATA_DIR"`     // empty selects the platform data dir
	OpeningsDir string `env:"CHESSRULES_OPENINGS_DIR"` // empty selects <data dir>/openings

	EnginePath     string        `env:"CHESSRULES_ENGINE_PATH"`
	EngineDepth    int           `env:"CHESSRULES_ENGINE_DEPTH" envDefault:"12"`
	EngineMoveTime time.Duration `env:"CHESSRULES_ENGINE_MOVETIME"`
	EngineHashMB   int           `env:"CHESSRULES_ENGINE_HASH" envDefault:"64"`
	EngineThreads  int           `env:"CHESSRULES_ENGINE_THREADS" envDefault:"1"`
	EngineNice     int           `env:"CHESSRULES_ENGINE_NICE"` // 0 leaves the priority alone

	HashSeed uint64 `env:"CHESSRULES_HASH_SEED"` // 0 selects the default seed
	LogLevel string `env:"CHESSRULES_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return errors.Wrap(err, "parse env")
	}
	return nil
}

// Load returns the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.EngineDepth < 0 || cfg.EngineHashMB < 0 || cfg.EngineThreads < 0 {
		return Config{}, errors.New("parse env: engine settings must not be negative")
	}
	return cfg, nil
}

// Logger builds a human readable logger writing to w at the configured
// level. An unknown level falls back to info.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
