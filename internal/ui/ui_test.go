package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotfill/internal/models"
	"github.com/desertthunder/spotfill/internal/tasks"
)

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel(t *testing.T) {
	row := models.InputRow{Artist: "Kult", Title: "Arahja"}

	t.Run("runs to completion", func(t *testing.T) {
		want := &tasks.RunResult{Total: 1, Resolved: 1, Requests: 1}
		run := func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
			progress <- tasks.ProgressUpdate{
				Phase: tasks.SearchTracks,
				Step:  1,
				Total: 1,
				Data:  tasks.RowProgress{Row: row, Outcome: tasks.Resolved, Processed: 1, Goal: 10, Percent: 10},
			}
			return want, nil
		}

		m := NewModel(context.Background(), "Enriching", run)
		msg := m.startRun()()
		if got, ok := msg.(Msg); !ok || got.kind != MsgProgressUpdate {
			t.Fatalf("expected progress message, got %#v", msg)
		}

		_, cmd := m.Update(msg)
		if m.row == nil || m.row.Processed != 1 {
			t.Fatalf("expected row progress to be applied, got %+v", m.row)
		}
		view := m.View()
		for _, s := range []string{"Enriching", "Searching tracks (1/1)", "Kult - Arahja", "1/10 (10.00%)"} {
			if !strings.Contains(view, s) {
				t.Errorf("run view missing %q:\n%s", s, view)
			}
		}

		m.Update(cmd())
		if m.view != ResultView {
			t.Fatalf("expected result view, got %d", m.view)
		}
		result, err := m.Result()
		if err != nil || result != want {
			t.Errorf("Result() = %v, %v", result, err)
		}
		if !strings.Contains(m.View(), "Run Complete") {
			t.Errorf("expected completion summary, got:\n%s", m.View())
		}
	})

	t.Run("stop cancels the run context", func(t *testing.T) {
		m := NewModel(context.Background(), "Enriching", nil)
		m.Update(keyPress("q"))

		if !m.stopping {
			t.Error("expected model to be stopping")
		}
		select {
		case <-m.ctx.Done():
		case <-time.After(time.Second):
			t.Fatal("expected context to be cancelled")
		}
		if !strings.Contains(m.View(), "Stopping after current track") {
			t.Errorf("expected stopping status, got:\n%s", m.View())
		}
	})

	t.Run("wait messages are shown until the next track", func(t *testing.T) {
		m := NewModel(context.Background(), "Enriching", nil)
		m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.RateWait, Step: 3, Total: 5, Message: "API call limit reached"}))
		if !strings.Contains(m.View(), "API call limit reached") {
			t.Errorf("expected wait message, got:\n%s", m.View())
		}

		m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.SearchTracks, Step: 3, Total: 5}))
		if strings.Contains(m.View(), "API call limit reached") {
			t.Error("expected wait message to clear")
		}
	})

	t.Run("result view lists failures", func(t *testing.T) {
		m := NewModel(context.Background(), "Enriching", nil)
		result := &tasks.RunResult{
			Total:    2,
			Deferred: 1,
			Failures: []tasks.RowResult{{Row: row, Outcome: tasks.Deferred}},
		}
		m.Update(runCompleteMsg(result, nil))

		view := m.View()
		if !strings.Contains(view, "Failed lookups (1)") || !strings.Contains(view, "Kult - Arahja (deferred)") {
			t.Errorf("expected failures listed, got:\n%s", view)
		}

		_, cmd := m.Update(keyPress("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})

	t.Run("failed run without result", func(t *testing.T) {
		m := NewModel(context.Background(), "Enriching", nil)
		m.Update(runCompleteMsg(nil, errors.New("disk full")))
		if !strings.Contains(m.View(), "Run failed: disk full") {
			t.Errorf("expected failure message, got:\n%s", m.View())
		}
	})
}

func TestRunFraction(t *testing.T) {
	tests := []struct {
		update tasks.ProgressUpdate
		want   float64
	}{
		{tasks.ProgressUpdate{}, 0},
		{tasks.ProgressUpdate{Step: 1, Total: 4}, 0.25},
		{tasks.ProgressUpdate{Step: 5, Total: 4}, 1},
	}
	for _, tt := range tests {
		if got := runFraction(tt.update); got != tt.want {
			t.Errorf("runFraction(%d/%d) = %v, want %v", tt.update.Step, tt.update.Total, got, tt.want)
		}
	}
}
