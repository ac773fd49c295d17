package domain

import "time"

// BuildInfo is the informational record of the last execution of a task.
// It is never consulted to skip work.
type BuildInfo struct {
	RunID      string        `json:"run_id,omitzero"`
	TaskName   string        `json:"task_name,omitzero"`
	Outputs    int           `json:"outputs,omitzero"`
	OutputHash string        `json:"output_hash,omitzero"`
	Duration   time.Duration `json:"duration,omitzero"`
	Timestamp  time.Time     `json:"timestamp,omitzero"`
	Failed     bool          `json:"failed,omitzero"`
	Error      string        `json:"error,omitzero"`
}
