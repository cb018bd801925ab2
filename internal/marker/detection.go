// Package marker holds the per-frame observation types shared by the detector,
// the aggregator and the output writers.
package marker

import "math"

// Point is a sub-pixel image position.
type Point struct {
	X float64
	Y float64
}

// Detection is a single marker observed in one frame. Position is informational
// and may be nil when the detector does not report one.
type Detection struct {
	MarkerID int
	Position *Point
}

// FrameSample is what the aggregator receives for every decoded frame.
type FrameSample struct {
	ElapsedMillis int64
	FrameHeight   int
	Detections    []Detection
}

// ElapsedSeconds floors the elapsed time to whole seconds.
func (s FrameSample) ElapsedSeconds() int64 {
	if s.ElapsedMillis < 0 {
		return 0
	}
	return s.ElapsedMillis / 1000
}

// CenterDistance is the vertical pixel distance from the detection to the frame's
// vertical center. Detections without a position are infinitely far away.
func (s FrameSample) CenterDistance(d Detection) float64 {
	if d.Position == nil {
		return math.Inf(1)
	}
	return math.Abs(d.Position.Y - float64(s.FrameHeight)/2)
}

// IDs returns the marker ids of the sample in detection order.
func (s FrameSample) IDs() []int {
	ids := make([]int, 0, len(s.Detections))
	for _, d := range s.Detections {
		ids = append(ids, d.MarkerID)
	}
	return ids
}
