package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/lens/internal/classifier"
	"github.com/desertthunder/lens/internal/formatter"
	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/parser"
	"github.com/desertthunder/lens/internal/services"
	"github.com/desertthunder/lens/internal/shared"
	"github.com/desertthunder/lens/internal/tasks"
)

// loadPlaylist fetches and parses the playlist named by the command's location argument.
func (r *Runner) loadPlaylist(ctx context.Context, cmd *cli.Command) (parser.Result, error) {
	src, err := sourceFrom(cmd)
	if err != nil {
		return parser.Result{}, err
	}

	r.logger.Debug("fetching playlist", "location", services.Redact(src.Location), "type", src.Type)
	text, err := r.sourceFetcher().FetchText(ctx, src)
	if err != nil {
		return parser.Result{}, err
	}

	result := parser.ParseString(text)
	r.logger.Info("parsed playlist",
		"entries", result.Stats.Total,
		"dropped", result.Stats.Dropped,
		"elapsed", shared.FormatDuration(result.Elapsed),
	)
	return result, nil
}

// Parse prints the entries of a playlist without classifying them.
func (r *Runner) Parse(ctx context.Context, cmd *cli.Command) error {
	result, err := r.loadPlaylist(ctx, cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("stats") {
		return r.writePlain("%s\n", formatter.StatsTable(result.Stats, result.Elapsed))
	}
	return r.emit(cmd, func(buf *strings.Builder) error {
		return formatter.WriteEntries(buf, result.Entries, cmd.String("format"))
	})
}

// Classify classifies every entry of a playlist, optionally enriching movies and series
// with provider metadata. Nothing is persisted.
func (r *Runner) Classify(ctx context.Context, cmd *cli.Command) error {
	result, err := r.loadPlaylist(ctx, cmd)
	if err != nil {
		return err
	}

	entries := result.Entries
	if limit := int(cmd.Int("limit")); limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	var enricher tasks.Enricher
	if cmd.Bool("enrich") {
		e, err := r.enricher(ctx)
		if err != nil {
			return err
		}
		if e != nil {
			enricher = e
		}
	}

	items := make([]formatter.Classified, 0, len(entries))
	for i, entry := range entries {
		res := classifier.Classify(entry)
		if enricher != nil && res.Type != models.Channel {
			cand, err := enricher.Enrich(ctx, res.Metadata.Title, res.Metadata.Year, res.Type)
			if err != nil {
				r.logger.Warn("enrichment failed", "index", i, "name", entry.Name, "err", err)
			}
			if cand != nil {
				details, err := enricher.Details(ctx, *cand)
				if err != nil {
					r.logger.Warn("details lookup failed", "index", i, "name", entry.Name, "err", err)
				}
				res = classifier.Apply(res, cand, details)
			}
		}
		items = append(items, formatter.Classified{Entry: entry, Result: res})
	}

	return r.emit(cmd, func(buf *strings.Builder) error {
		return formatter.WriteClassified(buf, items, cmd.String("format"))
	})
}

// emit renders into a buffer, then writes it to --output or the runner's output.
func (r *Runner) emit(cmd *cli.Command, render func(*strings.Builder) error) error {
	var buf strings.Builder
	if err := render(&buf); err != nil {
		return err
	}
	path := cmd.String("output")
	if err := formatter.WriteFile(r.output, path, []byte(buf.String())); err != nil {
		return err
	}
	if path != "" && path != "-" {
		r.logger.Info("output written", "path", path)
	}
	return nil
}

// parseCommand prints parsed playlist entries.
func parseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "parse",
		Usage: "Parse an M3U playlist and print its entries",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "location"},
		},
		Flags: append(append(sourceFlags(), outputFlags()...),
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "Print entry counts instead of entries",
			},
		),
		Action: r.Parse,
	}
}

// classifyCommand classifies playlist entries without a scan log.
func classifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "classify",
		Usage: "Classify playlist entries as movies, series or channels",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "location"},
		},
		Flags: append(append(sourceFlags(), outputFlags()...),
			&cli.BoolFlag{
				Name:  "enrich",
				Usage: "Look up movies and series with the configured metadata providers",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Classify at most this many entries",
			},
		),
		Action: r.Classify,
	}
}
