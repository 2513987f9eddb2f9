package domain

import (
	"encoding/json"
	"time"
)

// Name is a validated, normalized domain name: lowercase, no leading "www.",
// no trailing dots. Values are produced by the normalizer and immutable
// afterwards.
type Name string

// String returns the domain name as a plain string.
func (n Name) String() string { return string(n) }

// Category identifies one of the association types under which the
// intelligence API reports a domain as compromise-associated.
type Category string

const (
	// CategoryEmployee means the domain appeared among employee-side
	// compromise records ("employeeAt" in the API payload).
	CategoryEmployee Category = "employee"
	// CategoryClient means the domain appeared among client-side
	// compromise records ("clientAt" in the API payload).
	CategoryClient Category = "client"
)

// Match records a queried domain that the intelligence API reported as
// compromise-associated. Matches are created as batches complete and are
// never mutated.
type Match struct {
	// Domain is the matched domain name.
	Domain Name `json:"domain"`
	// Categories lists the association types under which the domain was
	// reported. At least one entry is always present.
	Categories []Category `json:"categories"`
	// Payload is the raw API record the match was extracted from. It is
	// retained for matched domains only.
	Payload json.RawMessage `json:"payload,omitempty"`
	// ObservedAt is when the match was recorded locally.
	ObservedAt time.Time `json:"observedAt"`
}

// Summary aggregates the outcome of a whole check run.
type Summary struct {
	// RunID uniquely identifies the run in logs.
	RunID string `json:"runId"`
	// Domains is the number of valid, deduplicated domains checked.
	Domains int `json:"domains"`
	// Batches is the total number of batches dispatched.
	Batches int `json:"batches"`
	// Completed counts batches whose query finished successfully.
	Completed int `json:"completed"`
	// Failed counts batches abandoned after a fatal error or after
	// exhausting the retry budget.
	Failed int `json:"failed"`
	// Matches is the number of matched domains collected.
	Matches int `json:"matches"`
	// Interrupted reports whether the run was cut short by a shutdown
	// signal. Collected matches are still written out.
	Interrupted bool `json:"interrupted"`
	// Duration is the wall-clock time of the run.
	Duration time.Duration `json:"duration"`
}
