// Package result models the outcome of checking a single URL and renders
// outcomes for people (text blocks) and machines (JSON, CSV, YAML).
package result

import "time"

// Outcome is the result of one fetch job. Exactly one of Invalid,
// NetworkError or Success holds per checked target.
type Outcome interface {
	// Input returns the raw target string exactly as the caller supplied it.
	Input() string
	isOutcome()
}

// Invalid reports input that could not become an absolute URL.
// The network is never touched for an Invalid target.
type Invalid struct {
	RawInput string
	Reason   string
}

// NetworkError reports a failure while fetching, or while waiting for the
// fetch to finish.
type NetworkError struct {
	RawInput string
	Category ErrorCategory
	Error    string        // "<category label>: <underlying message>"
	Elapsed  time.Duration // From task start to the failure
}

// Success reports a response whose status line and headers were received.
type Success struct {
	RawInput      string
	StatusCode    int
	Message       *string // Reason phrase, nil when the server sent none
	Elapsed       time.Duration
	ContentLength *int64 // nil when the server did not send Content-Length
}

func (o Invalid) Input() string      { return o.RawInput }
func (o NetworkError) Input() string { return o.RawInput }
func (o Success) Input() string      { return o.RawInput }

func (Invalid) isOutcome()      {}
func (NetworkError) isOutcome() {}
func (Success) isOutcome()      {}

// NewSuccess builds a Success, translating the transport's conventions:
// an empty reason phrase becomes nil and a negative content length
// (unknown) becomes nil.
func NewSuccess(raw string, status int, message string, elapsed time.Duration, contentLength int64) Success {
	s := Success{
		RawInput:   raw,
		StatusCode: status,
		Elapsed:    clampElapsed(elapsed),
	}
	if message != "" {
		s.Message = &message
	}
	if contentLength >= 0 {
		s.ContentLength = &contentLength
	}
	return s
}

// NewNetworkError builds a NetworkError whose description combines the
// category label and the underlying message.
func NewNetworkError(raw string, category ErrorCategory, msg string, elapsed time.Duration) NetworkError {
	return NetworkError{
		RawInput: raw,
		Category: category,
		Error:    FormatCategory(category) + ": " + msg,
		Elapsed:  clampElapsed(elapsed),
	}
}

func clampElapsed(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

// BatchStats contains aggregate statistics for a batch.
type BatchStats struct {
	Total    int           // Number of targets checked
	Invalid  int           // Targets rejected before fetching
	Failed   int           // Targets that ended in a NetworkError
	Duration time.Duration // Wall-clock time for the batch
	Verdicts map[Verdict]int
}

// Summarize computes batch statistics over records.
func Summarize(records []Record, duration time.Duration) BatchStats {
	stats := BatchStats{
		Total:    len(records),
		Duration: duration,
		Verdicts: make(map[Verdict]int),
	}
	for _, rec := range records {
		switch rec.Kind {
		case KindInvalid:
			stats.Invalid++
		case KindError:
			stats.Failed++
		case KindSuccess:
			stats.Verdicts[rec.Verdict]++
		}
	}
	return stats
}
