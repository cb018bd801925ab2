// StreamFilters describe user-provided filters to narrow the stream list.
package dto

import "time"

type StreamFilters struct {
	RunID      string
	Source     string
	Status     string
	StartAfter time.Time
	Limit      int
}
