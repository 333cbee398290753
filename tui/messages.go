package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lukemcguire/urlpulse/checker"
	"github.com/lukemcguire/urlpulse/result"
)

// ProgressMsg reports that one more target's outcome was collected.
type ProgressMsg struct {
	Event checker.Event
}

// BatchDoneMsg signals the batch has completed.
type BatchDoneMsg struct {
	Records  []result.Record
	Duration time.Duration
}

// waitForProgress returns a tea.Cmd that reads one event from the progress
// channel. A closed channel yields nil, which Bubble Tea ignores; the final
// records come from startBatch.
func waitForProgress(ch <-chan checker.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return ProgressMsg{Event: evt}
	}
}
