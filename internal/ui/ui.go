package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotfill/internal/tasks"
)

const (
	maxBarWidth      = 60
	maxFailuresShown = 10
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunView ViewState = iota
	ResultView
)

// RunFunc starts an enrichment run that reports to progress. Usually a closure over [tasks.Enricher.Run].
type RunFunc func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	run          RunFunc
	view         ViewState
	title        string
	width        int
	spinner      spinner.Model
	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	done         chan runOutcome
	progress     tasks.ProgressUpdate
	row          *tasks.RowProgress
	waiting      string
	stopping     bool
	result       *tasks.RunResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model that will execute run once started.
func NewModel(ctx context.Context, title string, run RunFunc) *Model {
	ctx, cancel := context.WithCancel(ctx)
	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		run:     run,
		view:    RunView,
		title:   title,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.ok)),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(maxBarWidth)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Result returns the outcome of the run once the program has exited.
func (m *Model) Result() (*tasks.RunResult, error) {
	return m.result, m.err
}

// Init starts the run and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRun())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-4, 10), maxBarWidth)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case RunView:
			return m.handleRunKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != RunView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.applyProgress(msg.data.(tasks.ProgressUpdate))
			return m, m.waitForProgress()
		case MsgRunComplete:
			outcome := msg.data.(runOutcome)
			m.result = outcome.result
			m.err = outcome.err
			m.view = ResultView
			m.progressChan = nil
			return m, nil
		}
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) applyProgress(update tasks.ProgressUpdate) {
	m.progress = update
	switch update.Phase {
	case tasks.RateWait, tasks.Backoff:
		m.waiting = update.Message
	case tasks.SearchTracks:
		m.waiting = ""
		if p, ok := update.Data.(tasks.RowProgress); ok {
			m.row = &p
		}
	}
}

func (m *Model) handleRunKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.stop) {
		m.stopping = true
		m.cancel()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		m.cancel()
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.done = make(chan runOutcome, 1)

	progressChan, done := m.progressChan, m.done
	go func() {
		result, err := m.run(m.ctx, progressChan)
		done <- runOutcome{result, err}
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, done := m.progressChan, m.done
	return func() tea.Msg {
		if progressChan == nil {
			return runCompleteMsg(m.result, m.err)
		}

		update, ok := <-progressChan
		if !ok {
			outcome := <-done
			return runCompleteMsg(outcome.result, outcome.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderRun() string {
	var b strings.Builder

	b.WriteString(styles.title.Render(m.title))
	b.WriteString("\n")

	status := "Starting..."
	switch m.progress.Phase {
	case tasks.LoadRows, tasks.Complete:
		if m.progress.Message != "" {
			status = m.progress.Message
		}
	case tasks.SearchTracks:
		status = fmt.Sprintf("Searching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.RateWait, tasks.Backoff:
		status = fmt.Sprintf("Waiting (%d/%d)", m.progress.Step, m.progress.Total)
	}
	if m.stopping {
		status = "Stopping after current track..."
	}
	fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), status)

	b.WriteString(m.bar.ViewAs(runFraction(m.progress)))
	b.WriteString("\n\n")

	if m.row != nil {
		fmt.Fprintf(&b, "%s %s\n", styles.label.Render("Last"), m.row.Row)
		fmt.Fprintf(&b, "%s %s\n", styles.label.Render("Outcome"), m.row.Outcome)
		fmt.Fprintf(&b, "%s %d/%d (%.2f%%)\n", styles.label.Render("Retrieved"), m.row.Processed, m.row.Goal, m.row.Percent)
		fmt.Fprintf(&b, "%s %s\n", styles.label.Render("ETA"), formatDuration(m.row.ETA))
	}
	if m.waiting != "" {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render(m.waiting))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.stop}))
	return b.String()
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	if m.result == nil {
		if m.err != nil {
			return styles.err.Render(fmt.Sprintf("Run failed: %v", m.err)) + "\n\n" + helpView
		}
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	var b strings.Builder
	switch {
	case m.err != nil && m.stopping:
		b.WriteString(styles.warn.Render("Run stopped"))
	case m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Run failed: %v", m.err)))
	default:
		b.WriteString(styles.ok.Render("✓ Run Complete!"))
	}
	b.WriteString("\n\n")

	r := m.result
	fmt.Fprintf(&b, "%s %d/%d\n", styles.label.Render("Attempted"), r.Attempted(), r.Total)
	fmt.Fprintf(&b, "%s %d\n", styles.label.Render("Resolved"), r.Resolved)
	fmt.Fprintf(&b, "%s %d\n", styles.label.Render("Duplicates"), r.Duplicates)
	fmt.Fprintf(&b, "%s %d\n", styles.label.Render("No match"), r.NoMatch)
	fmt.Fprintf(&b, "%s %d\n", styles.label.Render("Deferred"), r.Deferred)
	fmt.Fprintf(&b, "%s %d\n", styles.label.Render("Abandoned"), r.Abandoned)
	fmt.Fprintf(&b, "%s %d (%d rate limited)\n", styles.label.Render("Requests"), r.Requests, r.RateLimited)
	fmt.Fprintf(&b, "%s %s\n", styles.label.Render("Elapsed"), formatDuration(r.Elapsed))

	if len(r.Failures) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render(fmt.Sprintf("Failed lookups (%d):", len(r.Failures))))
		for i, f := range r.Failures {
			if i == maxFailuresShown {
				fmt.Fprintf(&b, "\n  … and %d more", len(r.Failures)-maxFailuresShown)
				break
			}
			fmt.Fprintf(&b, "\n  • %s (%s)", f.Row, f.Outcome)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpView)
	return b.String()
}

func runFraction(u tasks.ProgressUpdate) float64 {
	if u.Total <= 0 {
		return 0
	}
	return min(float64(u.Step)/float64(u.Total), 1)
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}
