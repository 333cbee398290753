// Package input gathers the list of targets to check from arguments or
// line-delimited standard input.
package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ExampleTargets are checked when no URL is supplied.
var ExampleTargets = []string{
	"https://www.google.com",
	"https://www.github.com",
	"https://example.invalid.url", // intentionally unresolvable
	"http://httpstat.us/200?sleep=3000",
	"http://httpstat.us/503",
}

// Source describes where targets come from.
type Source struct {
	Args        []string  // Positional arguments; used verbatim when non-empty
	In          io.Reader // Line-delimited input, read when Args is empty
	Out         io.Writer // Receives prompts and notices
	Interactive bool      // Print a prompt before reading In
	Max         int       // Maximum number of lines read from In
}

// Collect returns the targets to check. Arguments win over In. Reading In
// stops at the first blank line, at end of stream, or after Max lines.
// When nothing is supplied, ExampleTargets is returned.
func Collect(src Source) ([]string, error) {
	if len(src.Args) > 0 {
		return append([]string(nil), src.Args...), nil
	}

	out := src.Out
	if out == nil {
		out = io.Discard
	}
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(out, format, a...) }

	var targets []string
	if src.In != nil {
		if src.Interactive {
			writef("Paste one URL per line. Submit an empty line to start checking (or Ctrl+D):\n")
		}

		scanner := bufio.NewScanner(src.In)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				break
			}
			targets = append(targets, line)
			if src.Max > 0 && len(targets) >= src.Max {
				writef("Reached max URL limit (%d). Proceeding...\n", src.Max)
				break
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read targets: %w", err)
		}
	}

	if len(targets) == 0 {
		writef("No URLs provided. Using example URLs.\n")
		return append([]string(nil), ExampleTargets...), nil
	}
	return targets, nil
}
