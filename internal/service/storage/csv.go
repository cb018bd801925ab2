package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"arucolog/internal/aggregator"
	"arucolog/internal/config"
	"arucolog/internal/logger"
	"arucolog/internal/service/pipeline"
)

const (
	// TimestampLayout is the format of the timestamp column.
	TimestampLayout = "2006-01-02 15:04:05"
	fileNameLayout  = "2006-01-02-15-04-05"
	fileNamePrefix  = "aruco_detection_log_"
)

// Header is the first row of every CSV log.
var Header = []string{"timestamp", "aruco_ids"}

// FileName returns the log file name for a recording that started at start.
func FileName(start time.Time) string {
	return fileNamePrefix + start.Format(fileNameLayout) + ".csv"
}

// ParseFileName extracts the start time from a log file name.
func ParseFileName(name string) (time.Time, error) {
	base := filepath.Base(name)
	if len(base) != len(fileNamePrefix)+len(fileNameLayout)+len(".csv") ||
		base[:len(fileNamePrefix)] != fileNamePrefix || filepath.Ext(base) != ".csv" {
		return time.Time{}, fmt.Errorf("not a detection log file name: %s", base)
	}
	stamp := base[len(fileNamePrefix) : len(base)-len(".csv")]
	return time.ParseInLocation(fileNameLayout, stamp, time.Local)
}

// CSVWriter writes one row per record. In invocation mode every stream of the
// run goes to the file named after the first stream; in stream mode each
// stream gets its own file.
type CSVWriter struct {
	dir    string
	mode   string
	logger *logger.Logger

	file   *os.File
	writer *csv.Writer
	path   string
}

// NewCSVWriter creates a writer. Files are only created once a stream opens.
func NewCSVWriter(cfg *config.Config, logger *logger.Logger) *CSVWriter {
	return &CSVWriter{
		dir:    cfg.OutputDirectory,
		mode:   cfg.OutputMode,
		logger: logger,
	}
}

// Path returns the file currently written, if any.
func (w *CSVWriter) Path() string {
	return w.path
}

// Open implements pipeline.Sink.
func (w *CSVWriter) Open(stream pipeline.Stream) error {
	if w.file != nil && w.mode != config.OutputPerStream {
		return nil
	}
	if err := w.closeFile(); err != nil {
		return err
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.dir, FileName(stream.Start))
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w.file = file
	w.path = path
	w.writer = csv.NewWriter(file)
	if err := w.writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	w.logger.Info("Writing detection log %s", path)
	return nil
}

// Write implements pipeline.Sink.
func (w *CSVWriter) Write(stream pipeline.Stream, record aggregator.SecondRecord) error {
	if w.writer == nil {
		return fmt.Errorf("no open log file for %s", stream.Path)
	}
	return w.writer.Write([]string{record.Timestamp.Format(TimestampLayout), record.Label.String()})
}

// Close implements pipeline.Sink. Rows are flushed after every stream.
func (w *CSVWriter) Close(stream pipeline.Stream, outcome pipeline.Outcome) error {
	if w.writer == nil {
		return nil
	}
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", w.path, err)
	}
	if w.mode == config.OutputPerStream {
		return w.closeFile()
	}
	return nil
}

// Finish closes the file of the run.
func (w *CSVWriter) Finish() error {
	return w.closeFile()
}

func (w *CSVWriter) closeFile() error {
	if w.file == nil {
		return nil
	}
	w.writer.Flush()
	flushErr := w.writer.Error()
	closeErr := w.file.Close()
	w.file, w.writer = nil, nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// Row is one line of a detection log.
type Row struct {
	Timestamp time.Time
	Label     string
}

// ReadCSV reads a detection log written by CSVWriter.
func ReadCSV(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(Header)

	lines, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	rows := make([]Row, 0, len(lines))
	for i, line := range lines {
		if line[0] == Header[0] && line[1] == Header[1] {
			continue
		}
		ts, err := time.ParseInLocation(TimestampLayout, line[0], time.Local)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+1, err)
		}
		rows = append(rows, Row{Timestamp: ts, Label: line[1]})
	}
	return rows, nil
}
