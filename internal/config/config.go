// Package config loads the suite configuration from dotenv files and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables recognized by the suite.
const (
	EnvUserEmail    = "TEST_USER_EMAIL"
	EnvUserPassword = "TEST_USER_PASSWORD"
	EnvStoreURL     = "NEXT_PUBLIC_SUPABASE_URL"
	EnvStoreKey     = "NEXT_PUBLIC_SUPABASE_ANON_KEY"
	EnvBaseURL      = "BASE_URL"
	EnvHeadless     = "E2E_HEADLESS"
	EnvCoverageDir  = "E2E_COVERAGE_DIR"
	EnvExternal     = "E2E_EXTERNAL" // "1" disables the local stand-in app
)

const (
	DefaultEnvFile     = ".env.local"
	DefaultBaseURL     = "http://localhost:3000"
	DefaultCoverageDir = ".nyc_output"
)

// Credentials is the test user's identity, used for the UI login and for
// the out-of-band token request made during cleanup.
type Credentials struct {
	Email    string
	Password string
}

// Complete reports whether both email and password are set.
func (c Credentials) Complete() bool {
	return c.Email != "" && c.Password != ""
}

// StoreSettings locate the backend REST API.
type StoreSettings struct {
	URL     string // e.g. https://xyz.supabase.co, no trailing slash
	AnonKey string
}

// Complete reports whether both URL and key are set.
func (s StoreSettings) Complete() bool {
	return s.URL != "" && s.AnonKey != ""
}

// BrowserConfig configures the browser session opened for each test.
type BrowserConfig struct {
	Headless         bool          // Run in headless mode (default: true)
	Timeout          time.Duration // Default operation timeout (default: 30s)
	ViewportWidth    int           // default: 1920
	ViewportHeight   int           // default: 1080
	IgnoreCertErrors bool          // Accept self-signed certificates (default: true)
}

// DefaultBrowserConfig returns the session settings used by the suite.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless:         true,
		Timeout:          30 * time.Second,
		ViewportWidth:    1920,
		ViewportHeight:   1080,
		IgnoreCertErrors: true,
	}
}

// Config is the full suite configuration.
type Config struct {
	BaseURL     string
	Credentials Credentials
	Store       StoreSettings
	Headless    bool
	CoverageDir string
}

// Browser returns the browser configuration derived from c.
func (c Config) Browser() BrowserConfig {
	b := DefaultBrowserConfig()
	b.Headless = c.Headless
	return b
}

// Load reads the given dotenv files (default .env.local) into the process
// environment and builds a Config from it. Missing files are ignored and
// variables already present in the environment take precedence.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		BaseURL: strings.TrimSuffix(getenv(EnvBaseURL, DefaultBaseURL), "/"),
		Credentials: Credentials{
			Email:    strings.TrimSpace(os.Getenv(EnvUserEmail)),
			Password: os.Getenv(EnvUserPassword),
		},
		Store: StoreSettings{
			URL:     strings.TrimSuffix(strings.TrimSpace(os.Getenv(EnvStoreURL)), "/"),
			AnonKey: strings.TrimSpace(os.Getenv(EnvStoreKey)),
		},
		Headless:    true,
		CoverageDir: getenv(EnvCoverageDir, DefaultCoverageDir),
	}

	if raw := strings.TrimSpace(os.Getenv(EnvHeadless)); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.Headless = v
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
