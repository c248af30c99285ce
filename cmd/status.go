package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/spotfill/internal/models"
	"github.com/desertthunder/spotfill/internal/repositories"
	"github.com/desertthunder/spotfill/internal/shared"
	"github.com/desertthunder/spotfill/internal/tables"
	"github.com/urfave/cli/v3"
)

const maxErrorWidth = 48

// Status prints how far the tables are toward the goal, recent runs, and optionally rows that keep failing.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	goal := config.Pipeline.Goal

	input, err := tables.OpenInputTable(config.Tables.Input)
	if err != nil {
		return err
	}
	output, err := tables.OpenOutputTable(config.Tables.Output)
	if err != nil {
		return err
	}

	processed := input.ProcessedCount()
	retrieved := output.Count()

	r.writePlainHeader("spotfill status")
	r.writePlain("%s\n", renderTable(
		[]string{"Table", "Path", "Rows", "Done", "Progress"},
		[][]string{
			{"input", input.Path(), strconv.Itoa(input.Len()), strconv.Itoa(processed), percentOf(processed, input.Len())},
			{"output", output.Path(), strconv.Itoa(retrieved), fmt.Sprintf("%d/%d", retrieved, goal), percentOf(retrieved, goal)},
		},
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))

	db, err := shared.OpenBookkeeping(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repositories.NewRunRepository(db).Recent(cmd.Int("runs"))
	if err != nil {
		return err
	}
	r.writePlainln("Recent runs:")
	if len(runs) == 0 {
		r.writePlain("  (none)\n")
	} else {
		r.writePlain("%s\n", renderRuns(runs))
	}

	if !cmd.Bool("attempts") {
		return nil
	}

	attempts, err := repositories.NewAttemptRepository(db).List()
	if err != nil {
		return err
	}
	r.writePlainln("Failing rows:")
	if len(attempts) == 0 {
		return r.writePlain("  (none)\n")
	}
	return r.writePlain("%s\n", renderAttempts(attempts))
}

func renderRuns(runs []models.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := "-"
		if run.FinishedAt != nil {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		rows = append(rows, []string{
			"#" + strconv.Itoa(run.Sequence),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			string(run.Status),
			duration,
			strconv.Itoa(run.Budget),
			strconv.Itoa(run.Resolved),
			strconv.Itoa(run.Duplicates),
			strconv.Itoa(run.NoMatch),
			strconv.Itoa(run.Deferred),
			strconv.Itoa(run.Abandoned),
			strconv.Itoa(run.Requests),
			strconv.Itoa(run.RateLimited),
		})
	}

	return renderTable(
		[]string{"Run", "Started", "Status", "Duration", "Budget", "Resolved", "Dup", "No match", "Deferred", "Abandoned", "Requests", "429"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}

func renderAttempts(attempts []models.Attempt) string {
	rows := make([][]string, 0, len(attempts))
	for _, a := range attempts {
		rows = append(rows, []string{a.Artist, a.Title, strconv.Itoa(a.Attempts), truncate(a.LastError, maxErrorWidth)})
	}
	return renderTable(
		[]string{"Artist", "Title", "Attempts", "Last error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func percentOf(n, of int) string {
	if of <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", float64(n)*100/float64(of))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
