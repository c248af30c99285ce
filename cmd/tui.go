package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotfill/internal/models"
	"github.com/desertthunder/spotfill/internal/tasks"
	"github.com/desertthunder/spotfill/internal/ui"
)

// runTUI runs the pipeline behind the interactive progress view.
//
// Logs must already be redirected to a file so they do not interfere with TUI rendering.
func (r *Runner) runTUI(ctx context.Context, enricher *tasks.Enricher, rows []models.InputRow, alreadyRetrieved int) (*tasks.RunResult, error) {
	model := ui.NewModel(ctx, fmt.Sprintf("Enriching %d tracks", len(rows)), func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
		return enricher.Run(ctx, rows, alreadyRetrieved, progress)
	})

	p := tea.NewProgram(model, tea.WithOutput(r.output))
	if _, err := p.Run(); err != nil {
		result, _ := model.Result()
		return result, fmt.Errorf("error running TUI: %w", err)
	}

	return model.Result()
}
