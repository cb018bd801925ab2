package vision

import (
	"fmt"
	"strings"

	"gocv.io/x/gocv"

	"arucolog/internal/logger"
	"arucolog/internal/marker"
	"arucolog/internal/service/pipeline"
)

var dictionaries = map[string]gocv.ArucoDictionaryCode{
	"4x4_50":   gocv.ArucoDict4x4_50,
	"4x4_100":  gocv.ArucoDict4x4_100,
	"4x4_250":  gocv.ArucoDict4x4_250,
	"4x4_1000": gocv.ArucoDict4x4_1000,
	"5x5_50":   gocv.ArucoDict5x5_50,
	"5x5_100":  gocv.ArucoDict5x5_100,
	"5x5_250":  gocv.ArucoDict5x5_250,
	"5x5_1000": gocv.ArucoDict5x5_1000,
	"6x6_50":   gocv.ArucoDict6x6_50,
	"6x6_100":  gocv.ArucoDict6x6_100,
	"6x6_250":  gocv.ArucoDict6x6_250,
	"6x6_1000": gocv.ArucoDict6x6_1000,
	"7x7_50":   gocv.ArucoDict7x7_50,
	"7x7_100":  gocv.ArucoDict7x7_100,
	"7x7_250":  gocv.ArucoDict7x7_250,
	"7x7_1000": gocv.ArucoDict7x7_1000,
	"original": gocv.ArucoDictArucoOriginal,
}

// ParseDictionary maps a name like "5x5_100" to a predefined dictionary.
func ParseDictionary(name string) (gocv.ArucoDictionaryCode, error) {
	code, ok := dictionaries[marker.NormalizeDictionary(name)]
	if !ok {
		return 0, fmt.Errorf("unknown marker dictionary %q (expected one of %s)", name, strings.Join(marker.Dictionaries, ", "))
	}
	return code, nil
}

// ArucoDetector finds ArUco markers in decoded frames.
type ArucoDetector struct {
	detector gocv.ArucoDetector
	gray     gocv.Mat
	logger   *logger.Logger
}

// NewArucoDetector creates a detector for the named dictionary.
func NewArucoDetector(dictionary string, logger *logger.Logger) (*ArucoDetector, error) {
	code, err := ParseDictionary(dictionary)
	if err != nil {
		return nil, err
	}

	detector := gocv.NewArucoDetectorWithParams(gocv.GetPredefinedDictionary(code), gocv.NewArucoDetectorParameters())
	logger.Info("ArUco detector initialized with dictionary %s", dictionary)

	return &ArucoDetector{
		detector: detector,
		gray:     gocv.NewMat(),
		logger:   logger,
	}, nil
}

// Detect returns one detection per marker, positioned at the mean of its corners.
// It returns an empty slice when the frame shows no marker.
func (d *ArucoDetector) Detect(frame pipeline.Frame) ([]marker.Detection, error) {
	f, ok := frame.(*Frame)
	if !ok {
		return nil, fmt.Errorf("unsupported frame type %T", frame)
	}
	if f.mat.Empty() {
		return nil, fmt.Errorf("decoded frame is empty")
	}

	if err := gocv.CvtColor(f.mat, &d.gray, gocv.ColorBGRToGray); err != nil {
		return nil, fmt.Errorf("failed to convert frame to grayscale: %w", err)
	}

	corners, ids, _ := d.detector.DetectMarkers(d.gray)
	f.corners, f.ids = corners, ids

	detections := make([]marker.Detection, 0, len(ids))
	for i, id := range ids {
		detection := marker.Detection{MarkerID: id}
		if i < len(corners) && len(corners[i]) > 0 {
			detection.Position = center(corners[i])
		}
		detections = append(detections, detection)
	}
	return detections, nil
}

// Close releases the OpenCV resources.
func (d *ArucoDetector) Close() error {
	d.detector.Close()
	return d.gray.Close()
}

func center(corners []gocv.Point2f) *marker.Point {
	var x, y float64
	for _, c := range corners {
		x += float64(c.X)
		y += float64(c.Y)
	}
	n := float64(len(corners))
	return &marker.Point{X: x / n, Y: y / n}
}
