// submodule cmd contains command definitions shared across subcommands
package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/lens/internal/formatter"
	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/services"
	"github.com/desertthunder/lens/internal/shared"
)

// sourceFlags are shared by every command that reads a playlist.
func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Usage:   "Source type (m3u, xtream)",
			Value:   string(models.SourceM3U),
		},
		&cli.StringFlag{
			Name:    "username",
			Usage:   "Xtream username",
			Sources: cli.EnvVars("LENS_SOURCE_USERNAME"),
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "Xtream password",
			Sources: cli.EnvVars("LENS_SOURCE_PASSWORD"),
		},
	}
}

// outputFlags select how entries are rendered.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (text, table, json, csv)",
			Value:   formatter.FormatText,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to a file instead of stdout",
		},
	}
}

func sourceFrom(cmd *cli.Command) (services.Source, error) {
	location := cmd.StringArg("location")
	if strings.TrimSpace(location) == "" {
		return services.Source{}, fmt.Errorf("%w: playlist location is required", shared.ErrMissingArgument)
	}
	return services.Source{
		Location: location,
		Type:     models.SourceType(cmd.String("type")),
		Credentials: models.Credentials{
			Username: cmd.String("username"),
			Password: cmd.String("password"),
		},
	}, nil
}
