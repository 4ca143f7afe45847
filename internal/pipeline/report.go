package pipeline

import (
	"encoding/json"
	"time"
)

// Report summarizes one orchestrator run.
type Report struct {
	StartedAt  time.Time        `json:"started_at"`
	Duration   time.Duration    `json:"-"`
	Categories []CategoryReport `json:"categories"`
}

// MarshalJSON renders the duration in human-readable form ("1.5s") instead
// of raw nanoseconds, since the report is consumed by external schedulers
// through the HTTP trigger.
func (r *Report) MarshalJSON() ([]byte, error) {
	type alias Report
	return json.Marshal(struct {
		*alias
		Duration string `json:"duration"`
	}{(*alias)(r), r.Duration.String()})
}

// CategoryReport counts one category's pass. Err is empty on success.
type CategoryReport struct {
	Category  string `json:"category"`
	Listed    int    `json:"listed"`
	Batched   int    `json:"batched"`
	Extracted int    `json:"extracted"`
	Skipped   int    `json:"skipped"`
	Tagged    int    `json:"tagged"`
	Appended  int    `json:"appended"`
	Remaining int    `json:"remaining"`
	Err       string `json:"error,omitempty"`
}

// TotalAppended sums appended rows across categories.
func (r *Report) TotalAppended() int {
	n := 0
	for _, c := range r.Categories {
		n += c.Appended
	}
	return n
}

// TotalRemaining sums messages left beyond the batch limit. A non-zero
// total means another run is needed to drain the backlog.
func (r *Report) TotalRemaining() int {
	n := 0
	for _, c := range r.Categories {
		n += c.Remaining
	}
	return n
}
