// Package config loads crawler settings from defaults, a YAML file, the
// environment and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppName is used for the data directory and environment prefix
const AppName = "sitecrawl"

// EnvPrefix prefixes every environment override
const EnvPrefix = "SITECRAWL_"

// Renderer names
const (
	RendererChrome = "chrome"
	RendererHTTP   = "http"
)

// ErrInvalidConfig is wrapped by every validation and parse failure
var ErrInvalidConfig = errors.New("invalid configuration")

// ReadinessConfig tunes the page readiness heuristics
type ReadinessConfig struct {
	ScrollInterval time.Duration `yaml:"scroll_interval"`
	MaxScrollSteps int           `yaml:"max_scroll_steps"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	MaxChecks      int           `yaml:"max_checks"`
	StableRounds   int           `yaml:"stable_rounds"`
	Threshold      int           `yaml:"threshold"`
}

// Config holds every crawler setting
type Config struct {
	MaxPages             int             `yaml:"max_pages"`
	Renderer             string          `yaml:"renderer"`
	Headless             bool            `yaml:"headless"`
	ChromePath           string          `yaml:"chrome_path,omitempty"`
	UserAgent            string          `yaml:"user_agent,omitempty"`
	Browser              string          `yaml:"browser"`
	TLSFingerprint       string          `yaml:"tls_fingerprint,omitempty"`
	NavigationTimeout    time.Duration   `yaml:"navigation_timeout"`
	SettleDelay          time.Duration   `yaml:"settle_delay"`
	Readiness            ReadinessConfig `yaml:"readiness"`
	BlockedHosts         []string        `yaml:"blocked_hosts"`
	FollowDuplicateLinks bool            `yaml:"follow_duplicate_links"`
	SeedSitemap          bool            `yaml:"seed_sitemap"`
	SeedMaxRetries       int             `yaml:"seed_max_retries"`
	DataDir              string          `yaml:"data_dir"`
}

// Default returns the stock configuration
func Default() *Config {
	return &Config{
		MaxPages:          20,
		Renderer:          RendererChrome,
		Headless:          true,
		Browser:           "chrome",
		NavigationTimeout: 60 * time.Second,
		SettleDelay:       1 * time.Second,
		Readiness: ReadinessConfig{
			ScrollInterval: 200 * time.Millisecond,
			MaxScrollSteps: 200,
			PollInterval:   700 * time.Millisecond,
			MaxChecks:      10,
			StableRounds:   3,
			Threshold:      100,
		},
		BlockedHosts:   []string{"medium.com"},
		SeedMaxRetries: 2,
		DataDir:        DefaultDataDir(),
	}
}

// DefaultDataDir returns the XDG data directory for sitecrawl.
// On Linux: ~/.local/share/sitecrawl
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DatabasePath returns the path of the site index database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, AppName+".db")
}

// Load builds a configuration from defaults, the optional YAML file at
// path, a .env file in the working directory and SITECRAWL_* variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overlays SITECRAWL_* variables read through lookup. Every
// scalar setting has one; readiness tuning is file-only.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	var err error
	intVar := func(name string, dst *int) {
		if v, ok := get(name); ok && err == nil {
			n, perr := strconv.Atoi(v)
			if perr != nil {
				err = fmt.Errorf("%w: %s%s: %v", ErrInvalidConfig, EnvPrefix, name, perr)
				return
			}
			*dst = n
		}
	}
	boolVar := func(name string, dst *bool) {
		if v, ok := get(name); ok && err == nil {
			b, perr := strconv.ParseBool(v)
			if perr != nil {
				err = fmt.Errorf("%w: %s%s: %v", ErrInvalidConfig, EnvPrefix, name, perr)
				return
			}
			*dst = b
		}
	}
	durationVar := func(name string, dst *time.Duration) {
		if v, ok := get(name); ok && err == nil {
			d, perr := time.ParseDuration(v)
			if perr != nil {
				err = fmt.Errorf("%w: %s%s: %v", ErrInvalidConfig, EnvPrefix, name, perr)
				return
			}
			*dst = d
		}
	}

	intVar("MAX_PAGES", &c.MaxPages)
	boolVar("HEADLESS", &c.Headless)
	durationVar("NAVIGATION_TIMEOUT", &c.NavigationTimeout)
	durationVar("SETTLE_DELAY", &c.SettleDelay)
	boolVar("FOLLOW_DUPLICATE_LINKS", &c.FollowDuplicateLinks)
	boolVar("SEED_SITEMAP", &c.SeedSitemap)
	intVar("SEED_MAX_RETRIES", &c.SeedMaxRetries)
	if err != nil {
		return err
	}

	if v, ok := get("RENDERER"); ok {
		c.Renderer = strings.ToLower(v)
	}
	if v, ok := get("BROWSER"); ok {
		c.Browser = strings.ToLower(v)
	}
	if v, ok := get("CHROME_PATH"); ok {
		c.ChromePath = v
	}
	if v, ok := get("USER_AGENT"); ok {
		c.UserAgent = v
	}
	if v, ok := get("TLS_FINGERPRINT"); ok {
		c.TLSFingerprint = strings.ToLower(v)
	}
	if v, ok := get("BLOCKED_HOSTS"); ok {
		c.BlockedHosts = splitList(v)
	}
	if v, ok := get("DATA_DIR"); ok {
		c.DataDir = v
	}

	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate returns the first invalid setting found
func (c *Config) Validate() error {
	if c.MaxPages <= 0 {
		return fmt.Errorf("%w: max_pages must be positive, got %d", ErrInvalidConfig, c.MaxPages)
	}

	if c.Renderer != RendererChrome && c.Renderer != RendererHTTP {
		return fmt.Errorf("%w: unknown renderer %q (want %s or %s)", ErrInvalidConfig, c.Renderer, RendererChrome, RendererHTTP)
	}

	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("%w: navigation_timeout must be positive, got %v", ErrInvalidConfig, c.NavigationTimeout)
	}

	if c.SettleDelay < 0 {
		return fmt.Errorf("%w: settle_delay cannot be negative, got %v", ErrInvalidConfig, c.SettleDelay)
	}

	r := c.Readiness
	if r.ScrollInterval < 0 || r.PollInterval <= 0 {
		return fmt.Errorf("%w: readiness intervals must be positive", ErrInvalidConfig)
	}
	if r.MaxChecks <= 0 || r.StableRounds <= 0 || r.Threshold <= 0 {
		return fmt.Errorf("%w: readiness max_checks, stable_rounds and threshold must be positive", ErrInvalidConfig)
	}
	if r.MaxScrollSteps < 0 {
		return fmt.Errorf("%w: max_scroll_steps cannot be negative", ErrInvalidConfig)
	}

	switch c.TLSFingerprint {
	case "", "chrome", "firefox", "edge":
	default:
		return fmt.Errorf("%w: unknown tls_fingerprint %q", ErrInvalidConfig, c.TLSFingerprint)
	}

	if c.SeedMaxRetries < 0 || c.SeedMaxRetries > 10 {
		return fmt.Errorf("%w: seed_max_retries must be between 0 and 10, got %d", ErrInvalidConfig, c.SeedMaxRetries)
	}

	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is required", ErrInvalidConfig)
	}

	return nil
}
