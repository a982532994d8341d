// Package config reads process configuration from BUNRAKU_* environment
// variables. Command-line flags override these where a command defines
// them.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config carries the settings every command shares.
type Config struct {
	LogLevel  string `env:"BUNRAKU_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"BUNRAKU_LOG_FORMAT" envDefault:"text"`
	Strict    bool   `env:"BUNRAKU_STRICT" envDefault:"false"`
	StorePath string `env:"BUNRAKU_STORE" envDefault:"bunraku.db"`
}

// FromEnv loads configuration from the environment.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
