package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/lens/internal/cache"
	"github.com/desertthunder/lens/internal/enrich"
	"github.com/desertthunder/lens/internal/formatter"
	"github.com/desertthunder/lens/internal/repositories"
	"github.com/desertthunder/lens/internal/services"
	"github.com/desertthunder/lens/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	fetcher    services.Fetcher
	db         *sql.DB
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Fetcher    services.Fetcher // Default: SourceFetcher built from the scan config
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		fetcher:    opts.Fetcher,
		now:        opts.Now,
	}
}

// SetLogger replaces the logger used by commands and the services they build.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database handle if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// Command builds the root command with every subcommand registered.
func (r *Runner) Command() *cli.Command {
	return &cli.Command{
		Name:    "lens",
		Usage:   "Scan, classify and catalog IPTV playlists",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.before,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, parseCommand, classifyCommand, scanCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads configuration for the selected command.
//
// A config file that does not exist leaves the defaults in place; environment variables
// override both.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
			r.logger.Debug("loaded config", "path", r.configPath)
		} else {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		}
	}

	r.config.ApplyEnv(os.Getenv)
	if err := r.config.Validate(); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// openDB opens and migrates the configured database once per process.
func (r *Runner) openDB(ctx context.Context) (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(ctx, r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

func (r *Runner) sourceFetcher() services.Fetcher {
	if r.fetcher != nil {
		return r.fetcher
	}
	return services.NewSourceFetcher(r.httpClient, r.config.Scan.UserAgent, r.config.Scan.FetchTimeout.Duration)
}

// providers builds the configured metadata providers, each behind a rate limiter.
func (r *Runner) providers() ([]services.Provider, error) {
	opts := []services.Option{
		services.WithHTTPClient(r.httpClient),
		services.WithUserAgent(r.config.Scan.UserAgent),
	}

	var providers []services.Provider
	if tmdb := r.config.Providers.TMDB; tmdb.Enabled() {
		svc, err := services.NewTMDBService(tmdb, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to configure TMDB: %w", err)
		}
		providers = append(providers, services.NewThrottled(svc, tmdb.RequestsPerSecond, tmdb.Timeout.Duration))
	}
	if omdb := r.config.Providers.OMDB; omdb.Enabled() {
		svc, err := services.NewOMDBService(omdb, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to configure OMDB: %w", err)
		}
		providers = append(providers, services.NewThrottled(svc, omdb.RequestsPerSecond, omdb.Timeout.Duration))
	}
	return providers, nil
}

// metadataCache returns the configured cache backend.
func (r *Runner) metadataCache(ctx context.Context) (cache.Cache, error) {
	switch r.config.Cache.Backend {
	case "memory":
		return cache.NewMemory(cache.WithClock(r.now), cache.WithMaxItems(r.config.Cache.MaxItems)), nil
	case "sqlite":
		db, err := r.openDB(ctx)
		if err != nil {
			return nil, err
		}
		return repositories.NewCacheRepository(db), nil
	default:
		return cache.Noop{}, nil
	}
}

// enricher returns nil when no provider is configured.
func (r *Runner) enricher(ctx context.Context) (*enrich.Enricher, error) {
	providers, err := r.providers()
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		r.logger.Warn("no metadata providers configured, classifying heuristically")
		return nil, nil
	}

	c, err := r.metadataCache(ctx)
	if err != nil {
		return nil, err
	}
	e := enrich.New(providers, enrich.WithCache(c, r.config.Cache.TTL.Duration), enrich.WithLogger(r.logger))
	r.logger.Debug("metadata enrichment enabled", "providers", e.Providers(), "cache", r.config.Cache.Backend)
	return e, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := formatter.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
