package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/lens/internal/formatter"
	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/repositories"
	"github.com/desertthunder/lens/internal/services"
	"github.com/desertthunder/lens/internal/shared"
	"github.com/desertthunder/lens/internal/tasks"
	"github.com/desertthunder/lens/internal/ui"
)

// scanEngine wires the fetcher, SQLite store and enricher into a [tasks.ScanEngine].
func (r *Runner) scanEngine(ctx context.Context, workers int) (*tasks.ScanEngine, error) {
	db, err := r.openDB(ctx)
	if err != nil {
		return nil, err
	}

	opts := tasks.ScanOpts{
		Workers:     r.config.Scan.Workers,
		ScanTimeout: r.config.Scan.ScanTimeout.Duration,
		Logger:      r.logger,
		Now:         r.now,
	}
	if workers > 0 {
		opts.Workers = workers
	}

	e, err := r.enricher(ctx)
	if err != nil {
		return nil, err
	}
	if e != nil {
		opts.Enricher = e
	}
	return tasks.NewScanEngine(r.sourceFetcher(), repositories.NewStore(db), opts), nil
}

// ScanRun fetches, classifies, enriches and persists every entry of a playlist.
func (r *Runner) ScanRun(ctx context.Context, cmd *cli.Command) error {
	src, err := sourceFrom(cmd)
	if err != nil {
		return err
	}
	sourceID := cmd.String("source-id")
	if sourceID == "" {
		sourceID = services.Redact(src.Location)
	}

	if cmd.Bool("tui") {
		if err := r.useFileLogger(); err != nil {
			return err
		}
	}

	engine, err := r.scanEngine(ctx, int(cmd.Int("workers")))
	if err != nil {
		return err
	}

	req := tasks.ScanRequest{
		SourceID:    sourceID,
		Location:    src.Location,
		SourceType:  src.Type,
		Credentials: src.Credentials,
	}

	if cmd.Bool("tui") {
		return r.scanTUI(ctx, engine, req)
	}

	r.logger.Info("starting scan", "source", sourceID, "type", src.Type)
	quiet := cmd.Bool("quiet")

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.printProgress(update, quiet)
		}
	}()

	log, err := engine.RunScan(ctx, req, progressCh)
	close(progressCh)
	<-done

	if log != nil {
		r.writePlain("\n")
		r.writePlainHeader(scanHeadline(log))
		r.writePlain("%s\n", formatter.ScanLogDetail(log, r.now()))
	}
	return err
}

func (r *Runner) printProgress(update tasks.ProgressUpdate, quiet bool) {
	switch update.Phase {
	case tasks.FetchSource:
		r.writePlain("📥 %s\n", update.Message)
	case tasks.ParseSource:
		r.writePlain("📄 %s\n", update.Message)
	case tasks.ProcessEntry:
		if out, ok := update.Data.(tasks.EntryOutcome); ok && out.Err != nil {
			r.writePlain("   %s\n", ui.Warning(update.Message))
		} else if !quiet {
			r.writePlain("   %s\n", update.Message)
		}
	case tasks.ScanComplete:
		r.writePlain("\n%s\n", ui.Success("✓ "+update.Message))
	case tasks.ScanFailed:
		r.writePlain("\n%s\n", ui.Failure("✗ "+update.Message))
	}
}

func scanHeadline(log *models.ScanLog) string {
	if log.Status == models.ScanCompleted {
		return "Scan Complete!"
	}
	return fmt.Sprintf("Scan %s", log.Status)
}

// ScanLogs lists recent scan logs.
func (r *Runner) ScanLogs(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB(ctx)
	if err != nil {
		return err
	}

	status := cmd.String("status")
	switch models.ScanStatus(status) {
	case "", models.ScanRunning, models.ScanCompleted, models.ScanFailed:
	default:
		return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidArgument, status)
	}

	logs, err := repositories.NewScanLogRepository(db).List(ctx, map[string]any{
		"source_id": cmd.String("source"),
		"status":    status,
		"limit":     int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(logs, cmd.Bool("pretty"))
	}
	if len(logs) == 0 {
		return r.writePlain("No scans recorded.\n")
	}
	return r.writePlain("%s\n", formatter.ScanLogTable(logs))
}

// ScanShow prints one scan log with its errors. The id may be a unique prefix.
func (r *Runner) ScanShow(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: scan id is required", shared.ErrMissingArgument)
	}

	db, err := r.openDB(ctx)
	if err != nil {
		return err
	}
	repo := repositories.NewScanLogRepository(db)

	log, err := repo.Get(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		log, err = findByPrefix(ctx, repo, id)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(log, true)
	}
	r.writePlain("%s\n", ui.Status(log.Status))
	return r.writePlain("%s\n", formatter.ScanLogDetail(log, r.now()))
}

func findByPrefix(ctx context.Context, repo *repositories.ScanLogRepository, prefix string) (*models.ScanLog, error) {
	logs, err := repo.List(ctx, map[string]any{"limit": 1000})
	if err != nil {
		return nil, err
	}

	var match *models.ScanLog
	for _, l := range logs {
		if !strings.HasPrefix(l.ID, prefix) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%w: scan id prefix %q is ambiguous", shared.ErrInvalidArgument, prefix)
		}
		match = l
	}
	if match == nil {
		return nil, fmt.Errorf("%w: scan log %s", shared.ErrNotFound, prefix)
	}
	return match, nil
}

// ScanCatalog lists the records persisted for a source.
func (r *Runner) ScanCatalog(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB(ctx)
	if err != nil {
		return err
	}

	criteria := map[string]any{
		"source_id": cmd.String("source"),
		"limit":     int(cmd.Int("limit")),
	}
	kind, err := models.ParseContentType(cmd.String("kind"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	var (
		records any
		table   string
	)
	switch kind {
	case models.Movie:
		movies, err := repositories.NewMovieRepository(db).List(ctx, criteria)
		if err != nil {
			return err
		}
		records, table = movies, formatter.MoviesTable(movies)
	case models.Series:
		series, err := repositories.NewSeriesRepository(db).List(ctx, criteria)
		if err != nil {
			return err
		}
		records, table = series, formatter.SeriesTable(series)
	default:
		channels, err := repositories.NewChannelRepository(db).List(ctx, criteria)
		if err != nil {
			return err
		}
		records, table = channels, formatter.ChannelsTable(channels)
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}
	return r.writePlain("%s\n", table)
}

// scanCommand groups scan execution and history.
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Scan playlists and inspect scan history",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Scan a playlist: classify, enrich and persist every entry",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "location"},
				},
				Flags: append(sourceFlags(),
					&cli.StringFlag{
						Name:  "source-id",
						Usage: "Identifier recorded on the scan log (default: the location)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent entries (overrides scan.workers)",
					},
					&cli.BoolFlag{
						Name:  "tui",
						Usage: "Show an interactive progress view",
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Only print failed entries",
					},
				),
				Action: r.ScanRun,
			},
			{
				Name:  "logs",
				Usage: "List recent scans",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "Only scans of this source id",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only scans with this status (running, completed, failed)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of scans to list",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.ScanLogs,
			},
			{
				Name:  "show",
				Usage: "Show one scan and its errors",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ScanShow,
			},
			{
				Name:  "catalog",
				Usage: "List persisted movies, series or channels",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Record kind (movie, series, channel)",
						Value: models.Movie.String(),
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Only records of this source id",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of records",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ScanCatalog,
			},
		},
	}
}
