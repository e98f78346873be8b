package harness

import (
	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

// TraceEvent records one handled step.
type TraceEvent struct {
	Step     int         `json:"step"`
	At       string      `json:"at"`
	User     string      `json:"user,omitempty"`
	Send     string      `json:"send"`
	Command  string      `json:"command,omitempty"`
	Reply    string      `json:"reply"`
	Error    string      `json:"error,omitempty"` // structural or runtime error code
	Request  *ir.Request `json:"request,omitempty"`
	IDs      []string    `json:"ids,omitempty"`
	Affected int64       `json:"affected,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per sent message, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors describes every failed expectation and assertion.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
