package domain

import "time"

// PipelineState is the run-to-run state persisted between invocations.
// Since is the cutoff below which documents are assumed unchanged;
// LastRun is diagnostic only and never drives algorithmic decisions.
type PipelineState struct {
	LastRun *time.Time `json:"last_run"`
	Since   *time.Time `json:"since"`
}

// HasSince reports whether a usable cutoff is recorded.
func (s PipelineState) HasSince() bool {
	return s.Since != nil && !s.Since.IsZero()
}
