package dto

// Live message types.
const (
	LiveStreamStarted = "stream_started"
	LiveRecord        = "record"
	LiveStreamEnded   = "stream_ended"
)

// LiveMessage is pushed to websocket viewers while videos are being processed.
type LiveMessage struct {
	Type      string   `json:"type"`
	RunID     string   `json:"run_id"`
	Source    string   `json:"source"`
	Timestamp string   `json:"timestamp,omitempty"`
	Kind      string   `json:"kind,omitempty"`
	Label     string   `json:"label,omitempty"`
	Names     []string `json:"names,omitempty"`
	MarkerIDs []int    `json:"marker_ids,omitempty"`
	Status    string   `json:"status,omitempty"`
	Records   int      `json:"records,omitempty"`
}
