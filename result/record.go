package result

import "strconv"

// Kind identifies which Outcome case a Record was built from.
type Kind string

const (
	KindInvalid Kind = "invalid"
	KindError   Kind = "error"
	KindSuccess Kind = "success"
)

// NotAvailable is displayed for absent optional values.
const NotAvailable = "N/A"

// Record is the display form of an Outcome.
// Fields that do not apply to Kind are left at their zero value.
type Record struct {
	Index         int           `json:"index" yaml:"index"`
	URL           string        `json:"url" yaml:"url"`
	Kind          Kind          `json:"kind" yaml:"kind"`
	ValidURL      bool          `json:"valid_url" yaml:"valid_url"`
	Error         string        `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorCategory ErrorCategory `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	StatusCode    int           `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Message       string        `json:"status_message,omitempty" yaml:"status_message,omitempty"`
	ElapsedMs     int64         `json:"time_ms" yaml:"time_ms"`
	ContentLength *int64        `json:"content_length" yaml:"content_length"`
	Verdict       Verdict       `json:"verdict,omitempty" yaml:"verdict,omitempty"`
}

// Classify builds the display Record for the target at index (1-based).
func Classify(index int, o Outcome) Record {
	rec := Record{Index: index}

	switch o := o.(type) {
	case Invalid:
		rec.URL = o.RawInput
		rec.Kind = KindInvalid
		rec.Error = o.Reason
	case NetworkError:
		rec.URL = o.RawInput
		rec.Kind = KindError
		rec.ValidURL = true
		rec.Error = o.Error
		rec.ErrorCategory = o.Category
		rec.ElapsedMs = o.Elapsed.Milliseconds()
	case Success:
		rec.URL = o.RawInput
		rec.Kind = KindSuccess
		rec.ValidURL = true
		rec.StatusCode = o.StatusCode
		rec.Message = NotAvailable
		if o.Message != nil {
			rec.Message = *o.Message
		}
		rec.ElapsedMs = o.Elapsed.Milliseconds()
		rec.ContentLength = o.ContentLength
		rec.Verdict = ComputeVerdict(o.StatusCode, o.Elapsed)
	default:
		rec.Kind = KindError
		rec.Error = FormatCategory(CategoryUnknown) + ": unrecognized outcome"
		rec.ErrorCategory = CategoryUnknown
		if o != nil {
			rec.URL = o.Input()
		}
	}

	return rec
}

// ContentLengthString returns the content length, or NotAvailable when unknown.
func (r Record) ContentLengthString() string {
	if r.ContentLength == nil {
		return NotAvailable
	}
	return strconv.FormatInt(*r.ContentLength, 10)
}
