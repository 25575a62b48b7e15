package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/lens/internal/repositories"
	"github.com/desertthunder/lens/internal/shared"
)

// CachePurge deletes expired provider responses from the SQLite cache.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	if r.config.Cache.Backend != "sqlite" {
		return fmt.Errorf("%w: cache backend is %q, only sqlite entries persist", shared.ErrInvalidArgument, r.config.Cache.Backend)
	}

	db, err := r.openDB(ctx)
	if err != nil {
		return err
	}

	n, err := repositories.NewCacheRepository(db).WithClock(r.now).Purge(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("purged cache entries", "count", n)
	return r.writePlain("✓ Removed %d expired cache entries\n", n)
}

// cacheCommand handles the provider response cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the metadata provider cache",
		Commands: []*cli.Command{
			{
				Name:   "purge",
				Usage:  "Remove expired cache entries",
				Action: r.CachePurge,
			},
		},
	}
}
