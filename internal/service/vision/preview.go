package vision

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"arucolog/internal/marker"
	"arucolog/internal/service/pipeline"
)

const previewTitle = "Aruco Tag Detection"

// Preview shows every frame with the detected markers outlined and named.
// Pressing q stops the current stream.
type Preview struct {
	window *gocv.Window
	canvas gocv.Mat
	names  marker.NameTable
}

func NewPreview(names marker.NameTable) *Preview {
	return &Preview{
		window: gocv.NewWindow(previewTitle),
		canvas: gocv.NewMat(),
		names:  names,
	}
}

// Show draws and displays frame, then polls the keyboard.
func (p *Preview) Show(frame pipeline.Frame, detections []marker.Detection) bool {
	f, ok := frame.(*Frame)
	if !ok || f.mat.Empty() {
		return false
	}

	f.mat.CopyTo(&p.canvas)
	if len(f.ids) > 0 {
		gocv.ArucoDrawDetectedMarkers(p.canvas, f.corners, f.ids, gocv.NewScalar(0, 255, 0, 0))
	}

	green := color.RGBA{G: 255, A: 255}
	for _, d := range detections {
		if d.Position == nil {
			continue
		}
		pt := image.Pt(int(d.Position.X), int(d.Position.Y)-12)
		gocv.PutText(&p.canvas, p.names.Name(d.MarkerID).Text, pt, gocv.FontHersheySimplex, 0.6, green, 2)
	}

	p.window.IMShow(p.canvas)
	return p.window.WaitKey(1)&0xFF == 'q'
}

func (p *Preview) Close() error {
	p.canvas.Close()
	return p.window.Close()
}
