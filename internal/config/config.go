// Package config resolves the harness configuration that gets injected into
// every suite under test.
//
// Resolution is layered. Per field the precedence is:
//
//  1. process environment (WEBULL_* variables)
//  2. optional YAML profile file
//  3. literal placeholder default
//
// Missing credentials are never an error at this layer. Placeholder values
// flow into the API clients unchanged and surface as request failures at
// run time, which keeps suite loading independent of environment state.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names read by Resolve.
const (
	EnvEndpoint  = "WEBULL_API_ENDPOINT"
	EnvAppKey    = "WEBULL_APP_KEY"
	EnvAppSecret = "WEBULL_APP_SECRET"
	EnvRegionID  = "WEBULL_REGION_ID"
	EnvAccountID = "WEBULL_ACCOUNT_ID"
)

// Placeholder defaults used when neither the environment nor a profile
// provides a value. The endpoint default is a real sandbox host; the rest
// are placeholder tokens that no real backend accepts.
const (
	DefaultEndpoint      = "api.sandbox.webull.hk"
	PlaceholderAppKey    = "<your_app_key>"
	PlaceholderAppSecret = "<your_app_secret>"
	PlaceholderRegionID  = "<region_id>"
	PlaceholderAccountID = "<your_account_id>"
)

// Config carries the five values every suite needs.
type Config struct {
	Endpoint  string `yaml:"endpoint"`
	AppKey    string `yaml:"app_key"`
	AppSecret string `yaml:"app_secret"`
	RegionID  string `yaml:"region_id"`
	AccountID string `yaml:"account_id"`
}

// Option configures Resolve.
type Option func(*resolver)

type resolver struct {
	profilePath string
	envFiles    []string
}

// WithProfile points Resolve at a YAML profile file. The file must exist
// and parse; unknown fields are rejected to catch typos.
func WithProfile(path string) Option {
	return func(r *resolver) { r.profilePath = path }
}

// WithEnvFile adds a dotenv file to load before reading the environment.
// Without this option Resolve loads "./.env" on a best-effort basis.
func WithEnvFile(path string) Option {
	return func(r *resolver) { r.envFiles = append(r.envFiles, path) }
}

// Resolve builds the harness configuration.
//
// A missing default .env file is not an error; an explicitly requested env
// file or profile that cannot be read is.
func Resolve(opts ...Option) (*Config, error) {
	var r resolver
	for _, opt := range opts {
		opt(&r)
	}

	if len(r.envFiles) == 0 {
		// Best effort, mirrors the conventional dotenv autoload.
		_ = godotenv.Load()
	} else {
		if err := godotenv.Load(r.envFiles...); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg := Defaults()

	if r.profilePath != "" {
		if err := cfg.mergeProfile(r.profilePath); err != nil {
			return nil, err
		}
	}

	cfg.mergeEnv()
	return cfg, nil
}

// Defaults returns a config populated with placeholder defaults only.
func Defaults() *Config {
	return &Config{
		Endpoint:  DefaultEndpoint,
		AppKey:    PlaceholderAppKey,
		AppSecret: PlaceholderAppSecret,
		RegionID:  PlaceholderRegionID,
		AccountID: PlaceholderAccountID,
	}
}

// mergeProfile overlays non-empty fields from a YAML profile file.
func (c *Config) mergeProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}

	var p Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return fmt.Errorf("parse profile %s: %w", path, err)
	}

	overlay(&c.Endpoint, p.Endpoint)
	overlay(&c.AppKey, p.AppKey)
	overlay(&c.AppSecret, p.AppSecret)
	overlay(&c.RegionID, p.RegionID)
	overlay(&c.AccountID, p.AccountID)
	return nil
}

// mergeEnv overlays values from the process environment.
func (c *Config) mergeEnv() {
	overlay(&c.Endpoint, os.Getenv(EnvEndpoint))
	overlay(&c.AppKey, os.Getenv(EnvAppKey))
	overlay(&c.AppSecret, os.Getenv(EnvAppSecret))
	overlay(&c.RegionID, os.Getenv(EnvRegionID))
	overlay(&c.AccountID, os.Getenv(EnvAccountID))
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// IsPlaceholder reports whether a value is still an unsubstituted
// placeholder token of the form "<...>".
func IsPlaceholder(v string) bool {
	return len(v) >= 2 && v[0] == '<' && v[len(v)-1] == '>'
}

// HasCredentials reports whether both credential fields carry real values.
func (c *Config) HasCredentials() bool {
	return !IsPlaceholder(c.AppKey) && !IsPlaceholder(c.AppSecret)
}

// Masked returns a copy safe for display: secret-like fields keep at most
// their 4 leading characters.
func (c *Config) Masked() Config {
	masked := *c
	masked.AppKey = Mask(c.AppKey)
	masked.AppSecret = Mask(c.AppSecret)
	return masked
}

// Mask truncates a secret for display. Values of 4 characters or fewer are
// fully redacted.
func Mask(v string) string {
	if len(v) > 4 {
		return v[:4] + "****"
	}
	return "****"
}
