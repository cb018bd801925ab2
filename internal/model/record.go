package model

import "time"

// SecondRecord is a persisted per-second marker label.
type SecondRecord struct {
	ID        int64     `json:"id"`
	StreamID  int64     `json:"stream_id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`       // absent, present or set
	Label     string    `json:"label"`      // CSV cell form
	MarkerIDs string    `json:"marker_ids"` // comma separated, empty when unknown
}
