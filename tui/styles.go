package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lukemcguire/urlpulse/result"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	indexStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

// verdictStyle picks a color for a verdict: green for fast, yellow for slow
// or redirected, red for errors.
func verdictStyle(v result.Verdict) lipgloss.Style {
	switch v {
	case result.VerdictFast:
		return successStyle
	case result.VerdictSlow, result.VerdictVerySlow, result.VerdictRedirect:
		return warnStyle
	default:
		return errorStyle
	}
}

// RenderRecord produces the Lip Gloss styled block for one target.
func RenderRecord(rec result.Record) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString("     → ")
		b.WriteString(s)
		b.WriteString("\n")
	}

	b.WriteString(indexStyle.Render(fmt.Sprintf("[%02d]", rec.Index)))
	b.WriteString(" " + rec.URL + "\n")

	switch rec.Kind {
	case result.KindInvalid:
		line(errorStyle.Render("Invalid URL format."))
	case result.KindError:
		line(errorStyle.Render("ERROR: " + rec.Error))
	default:
		line(fmt.Sprintf("Status: %s (%d)", rec.Message, rec.StatusCode))
		line(fmt.Sprintf("Time: %d ms", rec.ElapsedMs))
		line("Content-Length: " + rec.ContentLengthString())
		line("Verdict: " + verdictStyle(rec.Verdict).Render(string(rec.Verdict)))
	}
	b.WriteString("\n")
	return b.String()
}

// RenderSummary produces a table of all records followed by batch totals.
func RenderSummary(records []result.Record, duration time.Duration) string {
	if len(records) == 0 {
		return errorStyle.Render("No results available.") + "\n"
	}

	rows := make([][]string, 0, len(records))
	outcomeCol := make([]result.Record, 0, len(records))
	for _, rec := range records {
		status, outcome := "-", ""
		switch rec.Kind {
		case result.KindInvalid:
			outcome = "Invalid URL"
		case result.KindError:
			outcome = result.FormatCategory(rec.ErrorCategory)
		default:
			status = fmt.Sprintf("%d", rec.StatusCode)
			outcome = string(rec.Verdict)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%02d", rec.Index),
			rec.URL,
			status,
			fmt.Sprintf("%d ms", rec.ElapsedMs),
			outcome,
		})
		outcomeCol = append(outcomeCol, rec)
	}

	summaryTable := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("#", "URL", "Status", "Time", "Outcome").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			if col == 4 && row >= 0 && row < len(outcomeCol) {
				rec := outcomeCol[row]
				if rec.Kind != result.KindSuccess {
					return errorStyle.Padding(0, 1)
				}
				return verdictStyle(rec.Verdict).Padding(0, 1)
			}
			return cellStyle
		}).
		Rows(rows...)

	var b strings.Builder
	b.WriteString(summaryTable.Render())
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(result.FormatSummary(result.Summarize(records, duration))))
	b.WriteString("\n")
	return b.String()
}
