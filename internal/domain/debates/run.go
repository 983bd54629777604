package debates

import "time"

// RunSummary is published once a pipeline run has finished.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Dates      []string  `json:"dates,omitempty"`
	DebateIDs  []string  `json:"debate_ids,omitempty"`
	Success    int       `json:"success"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	DryRun     bool      `json:"dry_run"`
}
