// Package finding defines the result records shared by the validation and
// simulation engines. Both engines return ordered finding lists rather than
// errors: graph content problems are reportable outcomes, not failures.
//
// An empty list is deliberately never produced - engines that find nothing
// append an explicit [SeverityOK] success finding, so "ran and found nothing"
// is distinguishable from "not yet run".
package finding

// Severity classifies a finding.
type Severity string

const (
	// SeverityError marks structural problems such as dangling link endpoints.
	SeverityError Severity = "error"
	// SeverityWarning marks suspect but loadable content, e.g. signal-type
	// mismatches or unreachable equipment.
	SeverityWarning Severity = "warning"
	// SeverityInfo marks neutral observations, e.g. "no start devices".
	SeverityInfo Severity = "info"
	// SeverityOK is the explicit success marker appended when an engine ran
	// and found nothing to report.
	SeverityOK Severity = "ok"
)

// Finding is a single engine result. NodeID or LinkID is set when the
// finding cites a specific element, so the renderer can highlight it.
type Finding struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	NodeID   string   `json:"node_id,omitempty"`
	LinkID   string   `json:"link_id,omitempty"`
}

// List is an ordered set of findings as returned by one engine run.
type List []Finding

// HasErrors reports whether any finding is [SeverityError].
func (l List) HasErrors() bool {
	for _, f := range l {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of findings with the given severity.
func (l List) Count(s Severity) int {
	var n int
	for _, f := range l {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// Clean reports whether the run produced nothing beyond the success marker.
func (l List) Clean() bool {
	return len(l) == 1 && l[0].Severity == SeverityOK
}
