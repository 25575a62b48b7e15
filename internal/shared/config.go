package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	MinWorkers = 1
	MaxWorkers = 16
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Providers ProvidersConfig `toml:"providers"`
	Scan      ScanConfig      `toml:"scan"`
	Cache     CacheConfig     `toml:"cache"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ProvidersConfig groups the metadata provider settings.
type ProvidersConfig struct {
	TMDB TMDBConfig `toml:"tmdb"`
	OMDB OMDBConfig `toml:"omdb"`
}

// TMDBConfig contains The Movie Database credentials and limits.
type TMDBConfig struct {
	APIKey            string   `toml:"api_key"`
	AccessToken       string   `toml:"access_token"`
	BaseURL           string   `toml:"base_url"`
	ImageBaseURL      string   `toml:"image_base_url"`
	Language          string   `toml:"language"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Timeout           Duration `toml:"timeout"`
}

// Enabled reports whether any TMDB credential is configured.
func (c TMDBConfig) Enabled() bool {
	return c.APIKey != "" || c.AccessToken != ""
}

// OMDBConfig contains Open Movie Database credentials and limits.
type OMDBConfig struct {
	APIKey            string   `toml:"api_key"`
	BaseURL           string   `toml:"base_url"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Timeout           Duration `toml:"timeout"`
}

// Enabled reports whether an OMDB key is configured.
func (c OMDBConfig) Enabled() bool {
	return c.APIKey != ""
}

// ScanConfig controls the scan worker pool and source fetching.
type ScanConfig struct {
	Workers      int      `toml:"workers"`
	FetchTimeout Duration `toml:"fetch_timeout"`
	ScanTimeout  Duration `toml:"scan_timeout"`
	UserAgent    string   `toml:"user_agent"`
}

// CacheConfig selects the metadata cache backend.
type CacheConfig struct {
	Backend  string   `toml:"backend"`
	TTL      Duration `toml:"ttl"`
	MaxItems int      `toml:"max_items"`
}

// Duration is a [time.Duration] that decodes from TOML strings such as "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Fields missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv reads key=value pairs from the given dotenv files into the process environment.
//
// Missing files are ignored. Variables already set in the environment win.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides credentials and paths from environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("TMDB_API_KEY"); v != "" {
		c.Providers.TMDB.APIKey = v
	}
	if v := getenv("TMDB_ACCESS_TOKEN"); v != "" {
		c.Providers.TMDB.AccessToken = v
	}
	if v := getenv("TMDB_BASE_URL"); v != "" {
		c.Providers.TMDB.BaseURL = v
	}
	if v := getenv("OMDB_API_KEY"); v != "" {
		c.Providers.OMDB.APIKey = v
	}
	if v := getenv("OMDB_BASE_URL"); v != "" {
		c.Providers.OMDB.BaseURL = v
	}
	if v := getenv("LENS_DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
}

// Validate checks the configuration for values the scanner cannot run with.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "sqlite", "none":
	default:
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend)
	}

	if c.Cache.MaxItems < 0 {
		return fmt.Errorf("%w: cache.max_items must not be negative", ErrInvalidConfig)
	}

	if c.Scan.Workers < 0 {
		return fmt.Errorf("%w: scan.workers must not be negative", ErrInvalidConfig)
	}

	for name, raw := range map[string]string{
		"providers.tmdb.base_url":       c.Providers.TMDB.BaseURL,
		"providers.tmdb.image_base_url": c.Providers.TMDB.ImageBaseURL,
		"providers.omdb.base_url":       c.Providers.OMDB.BaseURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s %q is not an absolute URL", ErrInvalidConfig, name, raw)
		}
	}

	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", ErrInvalidConfig)
	}

	return nil
}

// WorkerCount returns the configured worker count clamped to [MinWorkers, MaxWorkers].
func (c ScanConfig) WorkerCount() int {
	switch {
	case c.Workers < MinWorkers:
		return MinWorkers
	case c.Workers > MaxWorkers:
		return MaxWorkers
	default:
		return c.Workers
	}
}
