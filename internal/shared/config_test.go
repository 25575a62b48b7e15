package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./lens.db" {
			t.Errorf("expected database path ./lens.db, got %s", config.Database.Path)
		}
		if config.Providers.TMDB.BaseURL != "https://api.themoviedb.org/3" {
			t.Errorf("expected tmdb base url, got %s", config.Providers.TMDB.BaseURL)
		}
		if config.Providers.OMDB.BaseURL != "http://www.omdbapi.com" {
			t.Errorf("expected omdb base url, got %s", config.Providers.OMDB.BaseURL)
		}
		if config.Providers.TMDB.Timeout.Duration != 10*time.Second {
			t.Errorf("expected tmdb timeout 10s, got %v", config.Providers.TMDB.Timeout)
		}
		if config.Scan.FetchTimeout.Duration != 30*time.Second {
			t.Errorf("expected fetch timeout 30s, got %v", config.Scan.FetchTimeout)
		}
		if config.Cache.TTL.Duration != 24*time.Hour {
			t.Errorf("expected cache ttl 24h, got %v", config.Cache.TTL)
		}
		if config.Cache.MaxItems != 10000 {
			t.Errorf("expected cache max items 10000, got %d", config.Cache.MaxItems)
		}
		if config.Scan.UserAgent != "LENS-Scanner/1.0" {
			t.Errorf("expected user agent LENS-Scanner/1.0, got %s", config.Scan.UserAgent)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to validate, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("partial file keeps defaults", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			content := `
[scan]
workers = 8

[providers.tmdb]
api_key = "abc"
timeout = "3s"
`
			if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			config, err := LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}
			if config.Scan.Workers != 8 {
				t.Errorf("expected 8 workers, got %d", config.Scan.Workers)
			}
			if config.Providers.TMDB.APIKey != "abc" {
				t.Errorf("expected api key abc, got %s", config.Providers.TMDB.APIKey)
			}
			if config.Providers.TMDB.Timeout.Duration != 3*time.Second {
				t.Errorf("expected 3s timeout, got %v", config.Providers.TMDB.Timeout)
			}
			if config.Cache.Backend != "sqlite" {
				t.Errorf("expected default cache backend, got %s", config.Cache.Backend)
			}
		})

		t.Run("missing file", func(t *testing.T) {
			if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
				t.Error("expected error for missing file")
			}
		})

		t.Run("bad duration", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(configPath, []byte("[cache]\nttl = \"forever\"\n"), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			if _, err := LoadConfig(configPath); err == nil {
				t.Error("expected error for invalid duration")
			}
		})
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		env := map[string]string{
			"TMDB_API_KEY":       "tmdb-key",
			"OMDB_API_KEY":       "omdb-key",
			"LENS_DATABASE_PATH": "/tmp/x.db",
		}
		config := DefaultConfig()
		config.ApplyEnv(func(k string) string { return env[k] })

		if !config.Providers.TMDB.Enabled() || config.Providers.TMDB.APIKey != "tmdb-key" {
			t.Errorf("expected tmdb key from env, got %q", config.Providers.TMDB.APIKey)
		}
		if !config.Providers.OMDB.Enabled() {
			t.Error("expected omdb to be enabled")
		}
		if config.Database.Path != "/tmp/x.db" {
			t.Errorf("expected database path from env, got %s", config.Database.Path)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("LENS_TEST_ONLY_VAR=hello\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv("LENS_TEST_ONLY_VAR", "")
		os.Unsetenv("LENS_TEST_ONLY_VAR")

		if err := LoadEnv(envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := os.Getenv("LENS_TEST_ONLY_VAR"); got != "hello" {
			t.Errorf("expected hello, got %q", got)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name   string
			mutate func(*Config)
		}{
			{"unknown cache backend", func(c *Config) { c.Cache.Backend = "redis" }},
			{"negative cache bound", func(c *Config) { c.Cache.MaxItems = -1 }},
			{"negative workers", func(c *Config) { c.Scan.Workers = -1 }},
			{"relative base url", func(c *Config) { c.Providers.OMDB.BaseURL = "omdbapi.com" }},
			{"empty database path", func(c *Config) { c.Database.Path = "" }},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				config := DefaultConfig()
				tc.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("WorkerCount", func(t *testing.T) {
		tt := []struct {
			workers int
			want    int
		}{
			{0, MinWorkers},
			{4, 4},
			{100, MaxWorkers},
		}
		for _, tc := range tt {
			if got := (ScanConfig{Workers: tc.workers}).WorkerCount(); got != tc.want {
				t.Errorf("WorkerCount(%d) = %d, want %d", tc.workers, got, tc.want)
			}
		}
	})
}
