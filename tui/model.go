// Package tui provides the Bubble Tea terminal UI for urlpulse, showing
// each target's report as it is collected and a styled summary at the end.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lukemcguire/urlpulse/checker"
	"github.com/lukemcguire/urlpulse/result"
)

// Batch runs the pool over the targets. The tui calls it exactly once.
type Batch interface {
	RunAll(ctx context.Context, targets []string) []result.Outcome
}

// Model is the Bubble Tea model for the batch TUI.
type Model struct {
	ctx        context.Context
	cancel     context.CancelFunc
	batch      Batch
	targets    []string
	poolSize   int
	spinner    spinner.Model
	progressCh <-chan checker.Event

	records      []result.Record
	current      string
	interrupting bool
	done         bool
	duration     time.Duration
	width        int
}

// NewModel creates a TUI model wired to the given batch and progress channel.
func NewModel(ctx context.Context, cancel context.CancelFunc, batch Batch, targets []string, poolSize int, progressCh <-chan checker.Event) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	var current string
	if len(targets) > 0 {
		current = targets[0]
	}
	return Model{
		ctx:        ctx,
		cancel:     cancel,
		batch:      batch,
		targets:    targets,
		poolSize:   poolSize,
		spinner:    spin,
		progressCh: progressCh,
		current:    current,
	}
}

// Init starts the spinner, the batch, and the progress listener concurrently.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startBatch(), waitForProgress(m.progressCh))
}

// startBatch returns a tea.Cmd that runs the batch and sends BatchDoneMsg.
func (m Model) startBatch() tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		outcomes := m.batch.RunAll(m.ctx, m.targets)
		records := make([]result.Record, len(outcomes))
		for i, o := range outcomes {
			records[i] = result.Classify(i+1, o)
		}
		return BatchDoneMsg{Records: records, Duration: time.Since(start)}
	}
}

// Update handles messages from the Bubble Tea runtime.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// Remaining targets are reported as interrupted; wait for them.
			m.interrupting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case ProgressMsg:
		if msg.Event.Collected > len(m.records) {
			m.records = append(m.records, msg.Event.Record)
		}
		if next := msg.Event.Index + 1; next < len(m.targets) {
			m.current = m.targets[next]
		}
		return m, waitForProgress(m.progressCh)

	case BatchDoneMsg:
		m.done = true
		m.records = msg.Records
		m.duration = msg.Duration
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current TUI state.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(dimStyle.Render(fmt.Sprintf("Checking %d URLs using a pool of %d workers...", len(m.targets), m.poolSize)))
	b.WriteString("\n\n")
	for _, rec := range m.records {
		b.WriteString(RenderRecord(rec))
	}

	if m.done {
		b.WriteString(RenderSummary(m.records, m.duration))
		return b.String()
	}

	status := "Checking"
	if m.interrupting {
		status = "Interrupting"
	}
	fmt.Fprintf(&b, "%s %s... collected %d of %d\n", m.spinner.View(), status, len(m.records), len(m.targets))
	if m.current != "" && !m.interrupting {
		b.WriteString(dimStyle.Render("  waiting on " + m.current))
		b.WriteString("\n")
	}
	return b.String()
}

// Records returns the records collected so far.
func (m Model) Records() []result.Record {
	return m.records
}
