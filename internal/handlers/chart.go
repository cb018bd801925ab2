package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"arucolog/internal/logger"
	"arucolog/internal/repository"
)

// StreamChartHandler renders a bar chart of how many seconds each label was
// reported in one stream.
func StreamChartHandler(streamRepo repository.StreamRepository, recordRepo repository.RecordRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stream, ok := lookupStream(w, r, streamRepo, logger)
		if !ok {
			return
		}

		counts, err := recordRepo.CountByLabel(stream.ID)
		if err != nil {
			logger.Error("Failed to count labels of stream %d: %v", stream.ID, err)
			http.Error(w, "Unable to count labels", http.StatusInternalServerError)
			return
		}

		labels := make([]string, 0, len(counts))
		data := make([]opts.BarData, 0, len(counts))
		for _, c := range counts {
			labels = append(labels, c.Label)
			data = append(data, opts.BarData{Value: c.Seconds})
		}

		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{
				PageTitle: "Marker timeline",
				Width:     "1000px",
				Height:    "500px",
			}),
			charts.WithTitleOpts(opts.Title{
				Title:    filepath.Base(stream.SourcePath),
				Subtitle: fmt.Sprintf("%s policy, started %s", stream.Policy, stream.StartTime.Format("2006-01-02 15:04:05")),
			}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Name: "label"}),
			charts.WithYAxisOpts(opts.YAxis{Name: "seconds"}),
		)
		bar.SetXAxis(labels).AddSeries("seconds", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

		page := components.NewPage()
		page.AddCharts(bar)

		var buf bytes.Buffer
		if err := page.Render(&buf); err != nil {
			logger.Error("Failed to render chart for stream %d: %v", stream.ID, err)
			http.Error(w, "Unable to render chart", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}
}
