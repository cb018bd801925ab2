package vision

import "gocv.io/x/gocv"

// Frame is a decoded BGR image. After detection it also carries the raw marker
// corners so the preview can outline them.
type Frame struct {
	mat     gocv.Mat
	corners [][]gocv.Point2f
	ids     []int
}

// Height returns the frame height in pixels.
func (f *Frame) Height() int {
	return f.mat.Rows()
}
