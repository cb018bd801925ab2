// Package pipeline drives one video at a time through detection and
// aggregation and hands every emitted record to the configured sinks.
package pipeline

import (
	"context"
	"errors"
	"time"

	"arucolog/internal/aggregator"
	"arucolog/internal/marker"
)

var (
	// ErrInputNotFound is returned for a video path that does not exist.
	ErrInputNotFound = errors.New("input file not found")
	// ErrOpenVideo is returned when the decoder cannot open a video.
	ErrOpenVideo = errors.New("cannot open video source")
)

// Frame is a decoded image.
type Frame interface {
	Height() int
}

// FrameSource is a scoped decoder handle over one video. Next returns false at
// end of stream or on a read error; both end the stream normally.
type FrameSource interface {
	Next() bool
	Frame() Frame
	ElapsedMillis() int64
	Close() error
}

// OpenFunc acquires a FrameSource for a path.
type OpenFunc func(path string) (FrameSource, error)

// Detector finds markers in a frame. It returns an empty slice, not nil, when
// the frame has no markers. An error is fatal for the stream.
type Detector interface {
	Detect(frame Frame) ([]marker.Detection, error)
}

// Preview shows annotated frames. Show returns true when the viewer asked to
// stop the current stream.
type Preview interface {
	Show(frame Frame, detections []marker.Detection) bool
}

// StartResolver provides the anchor of a stream.
type StartResolver interface {
	Resolve(ctx context.Context, path string) (time.Time, error)
}

// Stream describes the video currently being processed.
type Stream struct {
	RunID  string
	Index  int
	Path   string
	Start  time.Time
	Policy string
}

// Outcome is how a stream ended.
type Outcome struct {
	Status  string
	Records int
	Err     error
}

// Sink receives the records of every stream, in order.
type Sink interface {
	Open(stream Stream) error
	Write(stream Stream, record aggregator.SecondRecord) error
	Close(stream Stream, outcome Outcome) error
}
