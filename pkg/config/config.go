// Package config loads a client configuration from a YAML file, a .env file
// and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"bitstamp-go/pkg/core"
)

// Environment variables read by Load.
const (
	EnvKey        = "BITSTAMP_KEY"
	EnvSecret     = "BITSTAMP_SECRET"
	EnvCustomerID = "BITSTAMP_CUSTOMER_ID"
	EnvBaseURL    = "BITSTAMP_BASE_URL"
	EnvLogLevel   = "BITSTAMP_LOG_LEVEL"
)

// Load returns core.DefaultConfig("bitstamp") overlaid with the YAML file at
// path (skipped when path is empty) and then with the environment. envFiles
// are loaded into the environment first without overriding variables that
// are already set; with none given, ./.env is tried. Missing env files are
// ignored. Credentials are optional: an empty result is valid for
// public-only use.
func Load(path string, envFiles ...string) (*core.Config, error) {
	cfg := core.DefaultConfig("bitstamp")

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *core.Config) {
	creds := core.Credentials{}
	if cfg.Credentials != nil {
		creds = *cfg.Credentials
	}

	set := false
	if v, ok := lookup(EnvKey); ok {
		creds.APIKey, set = v, true
	}
	if v, ok := lookup(EnvSecret); ok {
		creds.SecretKey, set = v, true
	}
	if v, ok := lookup(EnvCustomerID); ok {
		creds.CustomerID, set = v, true
	}
	if set || cfg.Credentials != nil {
		cfg.Credentials = &creds
	}

	if v, ok := lookup(EnvBaseURL); ok {
		cfg.BaseURL = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}
