// Package config resolves armseq defaults from the environment.
//
// Values come from process environment variables, optionally seeded from
// a .env file. Command-line flags override whatever is loaded here.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvDB      = "ARMSEQ_DB"
	EnvFormat  = "ARMSEQ_FORMAT"
	EnvVerbose = "ARMSEQ_VERBOSE"
)

// Defaults used when neither the environment nor a flag sets a value.
const (
	DefaultDBPath = "armseq.db"
	DefaultFormat = "text"
)

type Config struct {
	DBPath  string
	Format  string
	Verbose bool
}

// Load reads the given .env files (".env" when none are named) into the
// process environment, without overriding variables already set, and
// builds a Config from it. Missing .env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
		slog.Debug("no .env file found, using environment variables")
	}

	verbose, err := getEnvAsBool(EnvVerbose, false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBPath:  getEnv(EnvDB, DefaultDBPath),
		Format:  getEnv(EnvFormat, DefaultFormat),
		Verbose: verbose,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("%s must not be empty", EnvDB)
	}
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("%s must be text or json, got %q", EnvFormat, c.Format)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, valueStr)
	}
	return v, nil
}
