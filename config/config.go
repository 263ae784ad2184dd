package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/alorle/iptv-sync/internal/playlist"
)

// DefaultPath is the config file looked up when no path is given.
const DefaultPath = "iptv-sync.yaml"

// SourceConfig describes one playlist source as written in the config file
type SourceConfig struct {
	ID      string            `yaml:"id" toml:"id"`
	Alias   string            `yaml:"alias,omitempty" toml:"alias,omitempty"`
	Dialect string            `yaml:"dialect" toml:"dialect"`
	URL     string            `yaml:"url" toml:"url"`
	Policy  map[string]string `yaml:"policy,omitempty" toml:"policy,omitempty"`
}

// Source converts the entry into a validated playlist.Source
func (s SourceConfig) Source() (playlist.Source, error) {
	dialect, err := playlist.ParseDialect(s.Dialect)
	if err != nil {
		return playlist.Source{}, fmt.Errorf("source %s: %w", s.ID, err)
	}
	return playlist.NewSource(s.ID, s.Alias, dialect, s.URL, s.Policy)
}

// Config holds the complete application configuration
type Config struct {
	// Output settings
	Output struct {
		Dir string `yaml:"dir" toml:"dir"`
	} `yaml:"output" toml:"output"`

	// Upstream retrieval settings
	Fetch struct {
		Timeout   time.Duration `yaml:"timeout" toml:"timeout"`
		UserAgent string        `yaml:"user_agent" toml:"user_agent"`
		RateLimit float64       `yaml:"rate_limit" toml:"rate_limit"` // requests per second, 0 = unlimited
	} `yaml:"fetch" toml:"fetch"`

	// Per-host circuit breaker settings
	Breaker struct {
		FailureThreshold int           `yaml:"failure_threshold" toml:"failure_threshold"`
		Timeout          time.Duration `yaml:"timeout" toml:"timeout"`
		HalfOpenRequests int           `yaml:"half_open_requests" toml:"half_open_requests"`
	} `yaml:"breaker" toml:"breaker"`

	// Logging settings
	Log struct {
		Level string `yaml:"level" toml:"level"` // DEBUG, INFO, WARN, ERROR
	} `yaml:"log" toml:"log"`

	// Metrics settings
	Metrics struct {
		TextfilePath string `yaml:"textfile_path" toml:"textfile_path"` // empty = disabled
	} `yaml:"metrics" toml:"metrics"`

	// Playlist sources, synced in declaration order
	Sources []SourceConfig `yaml:"sources" toml:"sources"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	cfg := &Config{}

	cfg.Output.Dir = "iptv"

	cfg.Fetch.Timeout = 30 * time.Second
	cfg.Fetch.UserAgent = "iptv-sync/1.0"
	cfg.Fetch.RateLimit = 0

	cfg.Breaker.FailureThreshold = 3
	cfg.Breaker.Timeout = 30 * time.Second
	cfg.Breaker.HalfOpenRequests = 1

	cfg.Log.Level = "INFO"

	cfg.Sources = DefaultSources()

	return cfg
}

// DefaultSources returns the built-in source list
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			ID:      "fmml_ipv6_sh",
			Alias:   "fmml",
			Dialect: "diyp",
			URL:     "https://m3u.ibert.me/txt/fmml_ipv6.txt",
			Policy: map[string]string{
				"央视频道": "央视",
				"卫视频道": "卫视",
				"上海频道": "上海",
			},
		},
		{
			ID:      "aptv",
			Dialect: "m3u",
			URL:     "https://raw.githubusercontent.com/Kimentanm/aptv/master/m3u/iptv.m3u",
		},
	}
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	var errs []string

	if c.Output.Dir == "" {
		errs = append(errs, "Output directory is required")
	}

	if c.Fetch.Timeout <= 0 {
		errs = append(errs, "Fetch timeout must be positive")
	}
	if c.Fetch.RateLimit < 0 {
		errs = append(errs, "Fetch rate limit cannot be negative")
	}

	if c.Breaker.FailureThreshold <= 0 {
		errs = append(errs, "Breaker failure threshold must be positive")
	}
	if c.Breaker.Timeout <= 0 {
		errs = append(errs, "Breaker timeout must be positive")
	}
	if c.Breaker.HalfOpenRequests <= 0 {
		errs = append(errs, "Breaker half-open requests must be positive")
	}

	if !isValidLogLevel(c.Log.Level) {
		errs = append(errs, fmt.Sprintf("Log level must be one of DEBUG, INFO, WARN, ERROR, got %q", c.Log.Level))
	}

	if len(c.Sources) == 0 {
		errs = append(errs, "At least one source is required")
	}

	// Two sources sharing an identity would overwrite each other's artifacts.
	owners := make(map[string]string)
	for i, sc := range c.Sources {
		src, err := sc.Source()
		if err != nil {
			errs = append(errs, fmt.Sprintf("Source %d: %v", i, err))
			continue
		}
		for _, identity := range src.Identities() {
			if owner, ok := owners[identity]; ok {
				errs = append(errs, fmt.Sprintf("Source %d (%s): identity %q already used by %s", i, src.ID, identity, owner))
				continue
			}
			owners[identity] = src.ID
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// PlaylistSources builds the source list in declaration order
func (c *Config) PlaylistSources() ([]playlist.Source, error) {
	sources := make([]playlist.Source, 0, len(c.Sources))
	for i, sc := range c.Sources {
		src, err := sc.Source()
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// LoadFromFile loads configuration from a YAML or TOML file, chosen by extension.
// Files with any other extension are parsed as YAML.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	defaults := cfg.Sources
	// Decoders merge into existing slices and maps, so sources start empty.
	cfg.Sources = nil

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if cfg.Sources == nil {
		cfg.Sources = defaults
	}

	return cfg, nil
}

// ResolvePath returns the config file to use for path. An empty path falls
// back to IPTV_CONFIG and then DefaultPath; explicit is false only for the
// DefaultPath fallback.
func ResolvePath(path string) (resolved string, explicit bool) {
	if path != "" {
		return path, true
	}
	if env := os.Getenv("IPTV_CONFIG"); env != "" {
		return env, true
	}
	return DefaultPath, false
}

// Load loads configuration from a file and applies environment variable overrides.
// A missing DefaultPath file yields the defaults, while any other missing file
// is an error.
func Load(path string) (*Config, error) {
	path, explicit := ResolvePath(path)

	var cfg *Config

	if _, err := os.Stat(path); err == nil {
		cfg, err = LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	} else {
		cfg = Default()
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("IPTV_OUTPUT_DIR"); val != "" {
		cfg.Output.Dir = val
	}

	if val := os.Getenv("IPTV_FETCH_TIMEOUT"); val != "" {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid IPTV_FETCH_TIMEOUT format (expected duration like '30s', '1m'): %w", err)
		}
		if duration <= 0 {
			return fmt.Errorf("IPTV_FETCH_TIMEOUT must be positive, got: %s", val)
		}
		cfg.Fetch.Timeout = duration
	}
	if val := os.Getenv("IPTV_FETCH_RATE_LIMIT"); val != "" {
		limit, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid IPTV_FETCH_RATE_LIMIT: %w", err)
		}
		if limit < 0 {
			return fmt.Errorf("IPTV_FETCH_RATE_LIMIT cannot be negative")
		}
		cfg.Fetch.RateLimit = limit
	}
	if val := os.Getenv("IPTV_FETCH_USER_AGENT"); val != "" {
		cfg.Fetch.UserAgent = val
	}

	if val := os.Getenv("IPTV_LOG_LEVEL"); val != "" {
		level := strings.ToUpper(val)
		if !isValidLogLevel(level) {
			return fmt.Errorf("invalid IPTV_LOG_LEVEL: %s (must be DEBUG, INFO, WARN, or ERROR)", val)
		}
		cfg.Log.Level = level
	}

	if val := os.Getenv("IPTV_METRICS_FILE"); val != "" {
		cfg.Metrics.TextfilePath = val
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch strings.ToUpper(level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
		return true
	default:
		return false
	}
}

// Print writes a human readable summary of the configuration to w
func (c *Config) Print(w io.Writer) {
	fmt.Fprintf(w, "outputDir: %v\n", c.Output.Dir)
	fmt.Fprintf(w, "fetchTimeout: %v\n", c.Fetch.Timeout)
	fmt.Fprintf(w, "fetchUserAgent: %v\n", c.Fetch.UserAgent)
	fmt.Fprintf(w, "fetchRateLimit: %v req/s\n", c.Fetch.RateLimit)
	fmt.Fprintf(w, "breakerFailureThreshold: %v\n", c.Breaker.FailureThreshold)
	fmt.Fprintf(w, "breakerTimeout: %v\n", c.Breaker.Timeout)
	fmt.Fprintf(w, "logLevel: %v\n", c.Log.Level)
	fmt.Fprintf(w, "metricsTextfile: %v\n", c.Metrics.TextfilePath)
	fmt.Fprintf(w, "sources: %d\n", len(c.Sources))
	for _, s := range c.Sources {
		alias := ""
		if s.Alias != "" {
			alias = " (alias " + s.Alias + ")"
		}
		fmt.Fprintf(w, "  - %s%s [%s, %d genres]: %s\n", s.ID, alias, s.Dialect, len(s.Policy), s.URL)
	}
}
