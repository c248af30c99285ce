package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/spotfill/internal/models"
	"github.com/desertthunder/spotfill/internal/repositories"
	"github.com/desertthunder/spotfill/internal/shared"
	"github.com/desertthunder/spotfill/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Enrich runs the enrichment pipeline over the pending rows of the input table.
//
// Holds the input table lock for the whole run. Authentication failure aborts before anything is written.
func (r *Runner) Enrich(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if v := cmd.String("input"); v != "" {
		config.Tables.Input = v
	}
	if v := cmd.String("output"); v != "" {
		config.Tables.Output = v
	}
	if v := cmd.Int("goal"); v > 0 {
		config.Pipeline.Goal = v
	}
	if r.catalog == nil {
		if err := config.Validate(); err != nil {
			return err
		}
	}
	goal := config.Pipeline.Goal

	lock, err := shared.AcquireTableLock(config.Tables.Input)
	if err != nil {
		return err
	}
	defer lock.Release()

	session, err := tasks.LoadPending(config.Tables.Input, config.Tables.Output)
	if err != nil {
		return err
	}
	if session.Input.AddedProcessedColumn {
		r.logger.Info("added processed column", "table", config.Tables.Input)
	}

	remaining := session.Remaining(goal)

	r.writePlainHeader("spotfill enrich")
	r.writePlain("Input: %s (%d rows, %d pending)\n", config.Tables.Input, session.Input.Len(), len(session.Pending))
	r.writePlain("Output: %s (%d/%d tracks)\n\n", config.Tables.Output, session.AlreadyRetrieved, goal)

	if remaining == 0 {
		return r.writePlain("✓ Goal of %d tracks already reached\n", goal)
	}
	if len(session.Pending) == 0 {
		return r.writePlain("✓ No pending rows\n")
	}

	limit := cmd.Int("limit")
	if limit <= 0 && !cmd.Bool("yes") {
		limit = r.promptLimit(remaining)
	}
	rows := session.Budget(goal, limit)
	r.logger.Info("run budget", "remaining", remaining, "limit", limit, "rows", len(rows))

	catalog, err := r.newCatalog(config)
	if err != nil {
		return err
	}
	if err := catalog.Authenticate(ctx); err != nil {
		return err
	}
	r.logger.Info("authenticated", "service", catalog.Name())

	db, err := shared.OpenBookkeeping(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	runs := repositories.NewRunRepository(db)
	run := &models.Run{Budget: len(rows), AlreadyRetrieved: session.AlreadyRetrieved}
	if err := runs.Start(run); err != nil {
		return err
	}

	useTUI := cmd.Bool("tui") && shared.IsTerminal(r.output)
	if useTUI {
		fileLogger, err := shared.NewFileLogger(config.Log.File)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		shared.ConfigureLogLevel(fileLogger, config.Log.Level)
		r.SetLogger(fileLogger)
	}

	enricher := tasks.NewEnricher(catalog, session.Input, session.Output, tasks.Options{
		Goal:              goal,
		CountFallback:     config.Pipeline.CountFallback,
		MaxAttempts:       config.Pipeline.MaxAttempts,
		DefaultRetryAfter: config.Pipeline.DefaultRetryAfter(),
		Gate:              tasks.NewRateGate(config.Pipeline.RequestsPerWindow, config.Pipeline.Window(), r.clock),
		Clock:             r.clock,
		Logger:            shared.WithLogger(r.logger, "run", run.ID),
		Attempts:          repositories.NewAttemptRepository(db),
	})

	var result *tasks.RunResult
	if useTUI {
		result, err = r.runTUI(ctx, enricher, rows, session.AlreadyRetrieved)
	} else {
		result, err = r.runPlain(ctx, enricher, rows, session.AlreadyRetrieved)
	}

	finishRun(run, result, err)
	if ferr := runs.Finish(run); ferr != nil {
		r.logger.Warn("failed to record run", "id", run.ID, "error", ferr)
	}

	if result != nil && !useTUI {
		r.writeSummary(result, session.Output.Count(), goal)
	}

	if errors.Is(err, context.Canceled) {
		r.writePlainln("Run interrupted; processed rows are saved and the next run resumes from the first pending row.")
		return nil
	}
	return err
}

// runPlain runs the pipeline printing progress lines to the runner output.
func (r *Runner) runPlain(ctx context.Context, enricher *tasks.Enricher, rows []models.InputRow, alreadyRetrieved int) (*tasks.RunResult, error) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.LoadRows:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.SearchTracks:
				if update.Data != nil {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.RateWait, tasks.Backoff:
				r.writePlain("⏳ %s\n", update.Message)
			}
		}
	}()

	result, err := enricher.Run(ctx, rows, alreadyRetrieved, progressCh)
	close(progressCh)
	<-done

	return result, err
}

func (r *Runner) writeSummary(result *tasks.RunResult, retrieved, goal int) {
	r.writePlain("\n═══════════════════════════════════════\n")
	r.writePlain("Run Complete!\n")
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("Attempted: %d/%d\n", result.Attempted(), result.Total)
	r.writePlain("Resolved: %d, duplicates: %d, no match: %d\n", result.Resolved, result.Duplicates, result.NoMatch)
	r.writePlain("Deferred: %d, abandoned: %d\n", result.Deferred, result.Abandoned)
	r.writePlain("Requests: %d (%d rate limited, %d pacing waits)\n", result.Requests, result.RateLimited, result.GateWaits)
	r.writePlain("Retrieved: %d/%d (%.2f%%)\n", retrieved, goal, float64(retrieved)*100/float64(goal))

	if len(result.Failures) > 0 {
		r.writePlain("\nFailed lookups (%d):\n", len(result.Failures))
		for _, f := range result.Failures {
			r.writePlain("  - %s: %s (%v)\n", f.Outcome, f.Row, f.Err)
		}
	}
}

// finishRun copies result counters into run and derives its final status from err.
func finishRun(run *models.Run, result *tasks.RunResult, err error) {
	if result != nil {
		run.Resolved = result.Resolved
		run.Duplicates = result.Duplicates
		run.NoMatch = result.NoMatch
		run.Deferred = result.Deferred
		run.Abandoned = result.Abandoned
		run.Requests = result.Requests
		run.RateLimited = result.RateLimited
	}

	switch {
	case err == nil:
		run.Status = models.RunCompleted
	case errors.Is(err, context.Canceled):
		run.Status = models.RunCancelled
	default:
		run.Status = models.RunFailed
		run.Error = err.Error()
	}
}
