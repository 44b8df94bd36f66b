// Package config loads process configuration from the environment and an
// optional .env file, and builds the logger.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds process-level settings. Rate tables are not configured here;
// TablesFile only points at them.
type Config struct {
	Env        string // TAX_ENV
	LogLevel   string // LOG_LEVEL
	TablesFile string // TAX_TABLES_FILE, empty means built-in tables
}

// Load reads .env files into the environment without overriding variables
// already set, then reads the configuration. With no arguments it reads
// ".env". Missing files are skipped; unreadable or malformed ones are errors.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(), nil
}

// FromEnv reads the configuration from the environment only.
func FromEnv() Config {
	return Config{
		Env:        strings.ToLower(getEnv("TAX_ENV", EnvDevelopment)),
		LogLevel:   strings.ToLower(getEnv("LOG_LEVEL", "info")),
		TablesFile: getEnv("TAX_TABLES_FILE", ""),
	}
}

// IsProduction reports whether the process runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}
