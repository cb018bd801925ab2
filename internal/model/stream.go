package model

import "time"

// Stream statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusStopped   = "stopped"
	StatusFailed    = "failed"
)

// Stream represents one processed video.
type Stream struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	SourcePath  string    `json:"source_path"`
	StartTime   time.Time `json:"start_time"`
	Policy      string    `json:"policy"`
	Status      string    `json:"status"`
	RecordCount int       `json:"record_count"`
	CreatedAt   time.Time `json:"created_at"`
}
