package result

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// Printer writes human-readable report blocks to an io.Writer.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) writef(format string, a ...any) { _, _ = fmt.Fprintf(p.w, format, a...) }

// Header announces the batch.
func (p *Printer) Header(targets, poolSize int) {
	p.writef("Checking %d URLs using a pool of %d workers...\n\n", targets, poolSize)
}

// Record writes the block for a single target.
func (p *Printer) Record(rec Record) {
	p.writef("%s", FormatRecord(rec))
}

// Footer writes the batch summary and the closing line.
func (p *Printer) Footer(stats BatchStats) {
	p.writef("%s\n", FormatSummary(stats))
	p.writef("\nDone.\n")
}

// FormatRecord renders rec as an indexed block terminated by a blank line.
func FormatRecord(rec Record) string {
	var b strings.Builder
	line := func(format string, a ...any) {
		b.WriteString("     → ")
		fmt.Fprintf(&b, format, a...)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "[%02d] %s\n", rec.Index, rec.URL)
	switch rec.Kind {
	case KindInvalid:
		line("Invalid URL format.")
	case KindError:
		line("ERROR: %s", rec.Error)
	default:
		line("Status: %s (%d)", rec.Message, rec.StatusCode)
		line("Time: %d ms", rec.ElapsedMs)
		line("Content-Length: %s", rec.ContentLengthString())
		line("Verdict: %s", rec.Verdict)
	}
	b.WriteString("\n")
	return b.String()
}

// FormatSummary renders batch statistics on one line.
func FormatSummary(stats BatchStats) string {
	parts := make([]string, 0, len(stats.Verdicts)+2)

	verdicts := make([]string, 0, len(stats.Verdicts))
	for v := range stats.Verdicts {
		verdicts = append(verdicts, string(v))
	}
	sort.Strings(verdicts)
	for _, v := range verdicts {
		parts = append(parts, fmt.Sprintf("%d %s", stats.Verdicts[Verdict(v)], v))
	}
	if stats.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", stats.Failed))
	}
	if stats.Invalid > 0 {
		parts = append(parts, fmt.Sprintf("%d invalid", stats.Invalid))
	}

	summary := fmt.Sprintf("Checked %d URLs in %s", stats.Total, stats.Duration.Round(time.Millisecond))
	if len(parts) > 0 {
		summary += ": " + strings.Join(parts, ", ")
	}
	return summary
}
