package result

import "time"

// Verdict is a qualitative label derived from a status code and latency.
type Verdict string

const (
	VerdictFast        Verdict = "OK (fast)"
	VerdictSlow        Verdict = "OK (slow)"
	VerdictVerySlow    Verdict = "OK (very slow)"
	VerdictRedirect    Verdict = "Redirect"
	VerdictClientError Verdict = "Client error"
	VerdictServerError Verdict = "Server error"
	VerdictUnknown     Verdict = "Unknown"
)

// Latency bands applied to 2xx responses.
const (
	FastThreshold = 1000 * time.Millisecond
	SlowThreshold = 3000 * time.Millisecond
)

// ComputeVerdict maps a status code and elapsed time to a Verdict.
// Latency only matters for 2xx responses. A status of 0 means absent.
func ComputeVerdict(statusCode int, elapsed time.Duration) Verdict {
	switch {
	case statusCode >= 200 && statusCode < 300:
		switch {
		case elapsed < FastThreshold:
			return VerdictFast
		case elapsed < SlowThreshold:
			return VerdictSlow
		default:
			return VerdictVerySlow
		}
	case statusCode >= 300 && statusCode < 400:
		return VerdictRedirect
	case statusCode >= 400 && statusCode < 500:
		return VerdictClientError
	case statusCode >= 500:
		return VerdictServerError
	default:
		return VerdictUnknown
	}
}
