package result

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// WriteJSON writes the records as a formatted JSON array to the writer.
func WriteJSON(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}

// WriteYAML writes the records as a YAML sequence to the writer.
func WriteYAML(w io.Writer, records []Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("write yaml output: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush yaml output: %w", err)
	}
	return nil
}

// csvHeader is the column order for WriteCSV.
var csvHeader = []string{"index", "url", "kind", "status_code", "time_ms", "content_length", "verdict", "error_type", "error"}

// WriteCSV writes the records as CSV to the writer.
// Always includes a header row, even if there are no records.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.Index),
			rec.URL,
			string(rec.Kind),
			statusCodeStr(rec.StatusCode),
			strconv.FormatInt(rec.ElapsedMs, 10),
			contentLengthStr(rec.ContentLength),
			string(rec.Verdict),
			string(rec.ErrorCategory),
			rec.Error,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv record for %s: %w", rec.URL, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}

// statusCodeStr converts an HTTP status code to a string.
// Returns empty string for 0 (no HTTP status).
func statusCodeStr(code int) string {
	if code == 0 {
		return ""
	}
	return strconv.Itoa(code)
}

func contentLengthStr(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}
