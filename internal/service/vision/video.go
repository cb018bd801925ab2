package vision

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"

	"arucolog/internal/service/pipeline"
)

// VideoSource decodes a video file frame by frame. The frame buffer is reused,
// so a Frame is only valid until the next call to Next.
type VideoSource struct {
	path    string
	capture *gocv.VideoCapture
	frame   *Frame
}

// OpenVideo opens path for decoding. The caller must Close the source.
func OpenVideo(path string) (pipeline.FrameSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video source %s is not open", path)
	}

	return &VideoSource{
		path:    path,
		capture: capture,
		frame:   &Frame{mat: gocv.NewMat()},
	}, nil
}

// Next reads the following frame. It returns false at end of stream or when
// the decoder fails to produce an image.
func (s *VideoSource) Next() bool {
	s.frame.corners, s.frame.ids = nil, nil
	if ok := s.capture.Read(&s.frame.mat); !ok {
		return false
	}
	return !s.frame.mat.Empty()
}

func (s *VideoSource) Frame() pipeline.Frame {
	return s.frame
}

// ElapsedMillis is the decoder position of the current frame, floored.
func (s *VideoSource) ElapsedMillis() int64 {
	ms := s.capture.Get(gocv.VideoCapturePosMsec)
	if math.IsNaN(ms) || ms < 0 {
		return 0
	}
	return int64(math.Floor(ms))
}

// Close releases the frame buffer and the decoder.
func (s *VideoSource) Close() error {
	s.frame.mat.Close()
	return s.capture.Close()
}
