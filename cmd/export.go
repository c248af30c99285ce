package main

import (
	"context"

	"github.com/desertthunder/spotfill/internal/formatter"
	"github.com/desertthunder/spotfill/internal/tables"
	"github.com/urfave/cli/v3"
)

// Export renders the output table with the formatter package and writes it to disk.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	output, err := tables.OpenOutputTable(config.Tables.Output)
	if err != nil {
		return err
	}

	rows, err := output.Rows()
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(rows, format, cmd.String("output"), cmd.String("title"))
	if err != nil {
		return err
	}

	r.logger.Info("export written", "path", path, "format", string(format), "tracks", len(rows))
	r.writePlain("✓ Exported %d tracks to %s\n", len(rows), path)
	return nil
}
