package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"arucolog/internal/aggregator"
	"arucolog/internal/logger"
	"arucolog/internal/marker"
	"arucolog/internal/model"
)

// Options wires a Processor. Preview may be nil.
type Options struct {
	RunID    string
	Open     OpenFunc
	Detector Detector
	Resolver StartResolver
	Policy   aggregator.Policy
	Names    marker.NameTable
	Sinks    []Sink
	Preview  Preview
	Logger   *logger.Logger
}

// Summary counts how the streams of a run ended.
type Summary struct {
	Completed int
	Stopped   int
	Skipped   int
	Failed    int
	Records   int
}

// Processor runs streams one after another. Each stream gets a fresh
// aggregator and a freshly resolved anchor.
type Processor struct {
	opts Options
}

// NewProcessor creates a processor from opts.
func NewProcessor(opts Options) *Processor {
	return &Processor{opts: opts}
}

// ProcessAll processes every path in order. Failures of one stream never stop
// the others; they are logged and counted.
func (p *Processor) ProcessAll(ctx context.Context, paths []string) Summary {
	var summary Summary

	for i, path := range paths {
		if ctx.Err() != nil {
			p.opts.Logger.Warning("Run cancelled, %d input(s) left unprocessed", len(paths)-i)
			break
		}

		outcome, err := p.ProcessStream(ctx, i, path)
		summary.Records += outcome.Records

		switch {
		case errors.Is(err, ErrInputNotFound):
			summary.Skipped++
		case err != nil:
			summary.Failed++
		case outcome.Status == model.StatusStopped:
			summary.Stopped++
		default:
			summary.Completed++
		}
	}

	p.opts.Logger.Info("Run %s finished: %d completed, %d stopped, %d skipped, %d failed, %d records",
		p.opts.RunID, summary.Completed, summary.Stopped, summary.Skipped, summary.Failed, summary.Records)
	return summary
}

// ProcessStream runs one video from anchor resolution to the final flush.
func (p *Processor) ProcessStream(ctx context.Context, index int, path string) (Outcome, error) {
	log := p.opts.Logger

	if _, err := os.Stat(path); err != nil {
		log.Warning("Video file not found: %s", path)
		return Outcome{Status: model.StatusFailed, Err: err}, fmt.Errorf("%s: %w", path, ErrInputNotFound)
	}

	start, err := p.opts.Resolver.Resolve(ctx, path)
	if err != nil {
		log.Error("Cannot resolve start time of %s: %v", path, err)
		return Outcome{Status: model.StatusFailed, Err: err}, fmt.Errorf("resolve start time: %w", err)
	}

	source, err := p.opts.Open(path)
	if err != nil {
		log.Error("Cannot open video source %s: %v", path, err)
		return Outcome{Status: model.StatusFailed, Err: err}, fmt.Errorf("%s: %w: %v", path, ErrOpenVideo, err)
	}
	defer source.Close()

	stream := Stream{
		RunID:  p.opts.RunID,
		Index:  index,
		Path:   path,
		Start:  start,
		Policy: p.opts.Policy.Name(),
	}

	opened := make([]Sink, 0, len(p.opts.Sinks))
	for _, sink := range p.opts.Sinks {
		if err := sink.Open(stream); err != nil {
			outcome := Outcome{Status: model.StatusFailed, Err: err}
			p.closeSinks(opened, stream, outcome)
			log.Error("Cannot open output for %s: %v", path, err)
			return outcome, fmt.Errorf("open output: %w", err)
		}
		opened = append(opened, sink)
	}

	log.Info("Processing %s (start %s, policy %s)", path, start.Format("2006-01-02 15:04:05"), stream.Policy)

	outcome, err := p.run(ctx, stream, source, opened)
	p.closeSinks(opened, stream, outcome)

	if err != nil {
		log.Error("Stream %s failed after %d records: %v", path, outcome.Records, err)
		return outcome, err
	}
	log.Info("Stream %s %s: %d records", path, outcome.Status, outcome.Records)
	return outcome, nil
}

func (p *Processor) run(ctx context.Context, stream Stream, source FrameSource, sinks []Sink) (Outcome, error) {
	agg := aggregator.New(stream.Start, p.opts.Policy, p.opts.Names)
	outcome := Outcome{Status: model.StatusCompleted}

	emit := func(record aggregator.SecondRecord) error {
		for _, sink := range sinks {
			if err := sink.Write(stream, record); err != nil {
				return fmt.Errorf("write record: %w", err)
			}
		}
		outcome.Records++
		return nil
	}

	for source.Next() {
		frame := source.Frame()

		detections, err := p.opts.Detector.Detect(frame)
		if err != nil {
			outcome.Status, outcome.Err = model.StatusFailed, err
			return outcome, fmt.Errorf("detect markers: %w", err)
		}

		sample := marker.FrameSample{
			ElapsedMillis: source.ElapsedMillis(),
			FrameHeight:   frame.Height(),
			Detections:    detections,
		}
		if record, ok := agg.Ingest(sample); ok {
			if err := emit(record); err != nil {
				outcome.Status, outcome.Err = model.StatusFailed, err
				return outcome, err
			}
		}

		if p.opts.Preview != nil && p.opts.Preview.Show(frame, detections) {
			outcome.Status = model.StatusStopped
			break
		}
		if ctx.Err() != nil {
			outcome.Status = model.StatusStopped
			break
		}
	}

	if record, ok := agg.Flush(); ok {
		if err := emit(record); err != nil {
			outcome.Status, outcome.Err = model.StatusFailed, err
			return outcome, err
		}
	}
	return outcome, nil
}

func (p *Processor) closeSinks(sinks []Sink, stream Stream, outcome Outcome) {
	for _, sink := range sinks {
		if err := sink.Close(stream, outcome); err != nil {
			p.opts.Logger.Error("Cannot close output for %s: %v", stream.Path, err)
		}
	}
}
