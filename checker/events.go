package checker

import "github.com/lukemcguire/urlpulse/result"

// Event reports that the outcome for one target has been collected.
// Events arrive in input order.
type Event struct {
	Index     int // 0-based position in the input
	Total     int
	Collected int
	Record    result.Record
}
