package model

import "time"

// RunReport summarizes one pipeline invocation. A run that sends zero
// notifications because nothing matched a bucket is a normal success.
type RunReport struct {
	RunID       string         `json:"run_id"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	Rows        int            `json:"rows"`
	SkippedRows int            `json:"skipped_rows"`
	Agreements  int            `json:"agreements"`
	Buckets     map[string]int `json:"buckets"`
	Sent        int            `json:"sent"`
	Suppressed  int            `json:"suppressed"`
	Failed      int            `json:"failed"`
}

// NewRunReport creates an empty report for the given run id.
func NewRunReport(runID string, startedAt time.Time) *RunReport {
	return &RunReport{
		RunID:     runID,
		StartedAt: startedAt,
		Buckets:   make(map[string]int),
	}
}
