// Package config loads rewind's settings from the environment.
//
// Values come from, in increasing priority: built-in defaults, a .env file in
// the working directory (if present), and process environment variables.
// Command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/matzehuels/rewind/pkg/dag"
	"github.com/matzehuels/rewind/pkg/errors"
	"github.com/matzehuels/rewind/pkg/httputil"
	"github.com/matzehuels/rewind/pkg/integrations/crates"
)

// Environment variable names.
const (
	EnvUserAgent       = "REWIND_USER_AGENT"
	EnvRegistryURL     = "REWIND_REGISTRY_URL"
	EnvRequestInterval = "REWIND_REQUEST_INTERVAL"
	EnvMaxLevels       = "REWIND_MAX_LEVELS"
	EnvCargo           = "REWIND_CARGO"
)

// Config holds runtime settings.
type Config struct {
	UserAgent       string        // User-Agent sent to the registry
	RegistryURL     string        // crates.io API root
	RequestInterval time.Duration // Minimum delay between registry requests
	MaxLevels       int           // Traversal bound for level selection
	Cargo           string        // cargo executable used to apply pins
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		UserAgent:       crates.DefaultUserAgent,
		RegistryURL:     crates.DefaultBaseURL,
		RequestInterval: httputil.DefaultInterval,
		MaxLevels:       dag.DefaultMaxLevels,
		Cargo:           "cargo",
	}
}

// Load reads envFiles (default ".env") if they exist, then the environment.
// A missing file is not an error; a malformed one is.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "load %s", f)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from defaults overridden by getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(getenv(EnvUserAgent)); v != "" {
		cfg.UserAgent = v
	}
	if v := strings.TrimSpace(getenv(EnvRegistryURL)); v != "" {
		cfg.RegistryURL = strings.TrimSuffix(v, "/")
	}
	if v := strings.TrimSpace(getenv(EnvCargo)); v != "" {
		cfg.Cargo = v
	}
	if v := strings.TrimSpace(getenv(EnvRequestInterval)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, invalid(EnvRequestInterval, v, err)
		}
		cfg.RequestInterval = d
	}
	if v := strings.TrimSpace(getenv(EnvMaxLevels)); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n <= 0 {
			err = fmt.Errorf("must be positive")
		}
		if err != nil {
			return Config{}, invalid(EnvMaxLevels, v, err)
		}
		cfg.MaxLevels = n
	}
	return cfg, nil
}

func invalid(name, value string, err error) error {
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s=%q", name, value)
}

// CratesOptions returns the registry client options for cfg.
func (c Config) CratesOptions() crates.Options {
	interval := c.RequestInterval
	if interval == 0 {
		interval = -1 // explicit zero disables pacing
	}
	return crates.Options{
		BaseURL:   c.RegistryURL,
		UserAgent: c.UserAgent,
		Interval:  interval,
	}
}
