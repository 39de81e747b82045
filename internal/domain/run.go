package domain

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the final state of one tool run.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomePartial   Outcome = "partial"
	OutcomeFailed    Outcome = "failed"
)

// RunEvent records one tool invocation. It is published to the run-event topic
// when one is configured.
type RunEvent struct {
	ID         string         `json:"id"`
	Tool       string         `json:"tool"`
	Args       []string       `json:"args,omitempty"`
	Outcome    Outcome        `json:"outcome"`
	ErrorKind  string         `json:"error_kind,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Summary    map[string]int `json:"summary,omitempty"`
}

// NewRunEvent starts a run record for tool.
func NewRunEvent(tool string, args []string) *RunEvent {
	return &RunEvent{
		ID:        uuid.NewString(),
		Tool:      tool,
		Args:      args,
		StartedAt: Now(),
		Summary:   make(map[string]int),
	}
}

// Count adds n to a summary counter.
func (e *RunEvent) Count(key string, n int) {
	e.Summary[key] += n
}

// Finish stamps the end time and derives the outcome. partial marks a run whose
// guarded steps failed while the run itself completed.
func (e *RunEvent) Finish(err error, partial bool) {
	e.FinishedAt = Now()
	switch {
	case err != nil:
		e.Outcome = OutcomeFailed
		e.ErrorKind = KindName(err)
		e.Error = err.Error()
	case partial:
		e.Outcome = OutcomePartial
	default:
		e.Outcome = OutcomeSucceeded
	}
}

// Duration is the wall time of a finished run.
func (e *RunEvent) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}
