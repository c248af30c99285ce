// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
	}
}

// setupCommand handles setup operations for configuration and the bookkeeping database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the bookkeeping database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Exchange client credentials for a token and report the result",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthCheck,
			},
		},
	}
}

// searchCommand runs a single catalog search
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search Spotify for a track, falling back to the artist alone",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "artist"},
			&cli.StringArg{Name: "title"},
		},
		Flags: []cli.Flag{
			configFlag(),
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
		Action: r.Search,
	}
}

// enrichCommand runs the enrichment pipeline
func enrichCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "enrich",
		Aliases: []string{"run"},
		Usage:   "Resolve pending input rows and append matches to the output table",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Input table (overrides tables.input)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output table (overrides tables.output)",
			},
			&cli.IntFlag{
				Name:  "goal",
				Usage: "Total tracks wanted in the output table (overrides pipeline.goal)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum rows to process this run; skips the prompt",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Process the full remaining budget without prompting",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show an interactive progress view",
			},
		},
		Action: r.Enrich,
	}
}

// statusCommand reports table progress and run history
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show table progress, recent runs and failing rows",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "runs",
				Usage: "Number of recent runs to show",
				Value: 5,
			},
			&cli.BoolFlag{
				Name:  "attempts",
				Usage: "List rows with recorded failures",
			},
		},
		Action: r.Status,
	}
}

// exportCommand writes the output table in a shareable format
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export resolved tracks as Markdown, text or JSON",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (md, txt, json)",
				Value:   "md",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: results.<format>)",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Title for Markdown exports",
				Value: "Resolved tracks",
			},
		},
		Action: r.Export,
	}
}
