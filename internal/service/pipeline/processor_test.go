package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arucolog/internal/aggregator"
	"arucolog/internal/config"
	"arucolog/internal/logger"
	"arucolog/internal/marker"
	"arucolog/internal/model"
)

var anchorTime = time.Date(2024, 10, 15, 17, 52, 16, 0, time.UTC)

type fakeFrame struct {
	height int
	ids    []int
}

func (f fakeFrame) Height() int { return f.height }

type fakeSource struct {
	frames []fakeFrame
	millis []int64
	pos    int
	closed bool
}

func (s *fakeSource) Next() bool {
	if s.pos >= len(s.frames) {
		return false
	}
	s.pos++
	return true
}

func (s *fakeSource) Frame() Frame         { return s.frames[s.pos-1] }
func (s *fakeSource) ElapsedMillis() int64 { return s.millis[s.pos-1] }
func (s *fakeSource) Close() error         { s.closed = true; return nil }

type fakeDetector struct {
	failAt int
	calls  int
}

func (d *fakeDetector) Detect(frame Frame) ([]marker.Detection, error) {
	d.calls++
	if d.failAt > 0 && d.calls == d.failAt {
		return nil, errors.New("detector crashed")
	}
	f := frame.(fakeFrame)
	dets := make([]marker.Detection, 0, len(f.ids))
	for _, id := range f.ids {
		dets = append(dets, marker.Detection{MarkerID: id})
	}
	return dets, nil
}

type fakeResolver struct {
	err error
}

func (r fakeResolver) Resolve(ctx context.Context, path string) (time.Time, error) {
	return anchorTime, r.err
}

type fakeSink struct {
	opened  []Stream
	records map[string][]aggregator.SecondRecord
	closed  []Outcome
}

func newFakeSink() *fakeSink {
	return &fakeSink{records: make(map[string][]aggregator.SecondRecord)}
}

func (s *fakeSink) Open(stream Stream) error {
	s.opened = append(s.opened, stream)
	return nil
}

func (s *fakeSink) Write(stream Stream, record aggregator.SecondRecord) error {
	s.records[stream.Path] = append(s.records[stream.Path], record)
	return nil
}

func (s *fakeSink) Close(stream Stream, outcome Outcome) error {
	s.closed = append(s.closed, outcome)
	return nil
}

type stopAfter struct {
	frames int
	shown  int
}

func (p *stopAfter) Show(frame Frame, detections []marker.Detection) bool {
	p.shown++
	return p.shown >= p.frames
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("video"), 0644))
	return path
}

// newSource yields one frame per entry of ms, all showing ids.
func newSource(ms []int64, ids ...int) *fakeSource {
	s := &fakeSource{millis: ms}
	for range ms {
		s.frames = append(s.frames, fakeFrame{height: 480, ids: ids})
	}
	return s
}

type harness struct {
	opts    Options
	sink    *fakeSink
	sources map[string]*fakeSource
}

func newHarness(t *testing.T, policy aggregator.Policy) *harness {
	t.Helper()

	h := &harness{sink: newFakeSink(), sources: make(map[string]*fakeSource)}
	log := logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
	t.Cleanup(func() { log.Close() })

	h.opts = Options{
		RunID: "run-test",
		Open: func(path string) (FrameSource, error) {
			src, ok := h.sources[path]
			if !ok {
				return nil, errors.New("codec not supported")
			}
			return src, nil
		},
		Detector: &fakeDetector{},
		Resolver: fakeResolver{},
		Policy:   policy,
		Names:    marker.NewNameTable(marker.DefaultNames(), "unknown"),
		Sinks:    []Sink{h.sink},
		Logger:   log,
	}
	return h
}

func TestProcessStream_EmitsAndFlushes(t *testing.T) {
	h := newHarness(t, aggregator.MajorityVote{})
	path := touch(t, t.TempDir(), "20241015175216_000001.MP4")
	h.sources[path] = newSource([]int64{0, 500, 1000, 1500, 2100}, 3)

	outcome, err := NewProcessor(h.opts).ProcessStream(context.Background(), 0, path)
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, outcome.Status)
	assert.Equal(t, 3, outcome.Records)
	require.Len(t, h.sink.records[path], 3)
	assert.Equal(t, anchorTime.Add(time.Second), h.sink.records[path][0].Timestamp)
	assert.Equal(t, anchorTime.Add(2*time.Second), h.sink.records[path][2].Timestamp)
	assert.True(t, h.sources[path].closed)
	require.Len(t, h.sink.opened, 1)
	assert.Equal(t, "majority", h.sink.opened[0].Policy)
}

func TestProcessStream_MissingInput(t *testing.T) {
	h := newHarness(t, aggregator.Union{})

	_, err := NewProcessor(h.opts).ProcessStream(context.Background(), 0, filepath.Join(t.TempDir(), "nope.mp4"))
	assert.ErrorIs(t, err, ErrInputNotFound)
	assert.Empty(t, h.sink.opened)
}

func TestProcessStream_AnchorFailure(t *testing.T) {
	h := newHarness(t, aggregator.Union{})
	h.opts.Resolver = fakeResolver{err: errors.New("no timestamp")}
	path := touch(t, t.TempDir(), "clip.mp4")
	h.sources[path] = newSource([]int64{0}, 2)

	_, err := NewProcessor(h.opts).ProcessStream(context.Background(), 0, path)
	assert.Error(t, err)
	assert.Empty(t, h.sink.opened)
	assert.False(t, h.sources[path].closed, "decoder must not be opened without an anchor")
}

func TestProcessStream_OpenFailure(t *testing.T) {
	h := newHarness(t, aggregator.Union{})
	path := touch(t, t.TempDir(), "20241015175216_000001.MP4")

	_, err := NewProcessor(h.opts).ProcessStream(context.Background(), 0, path)
	assert.ErrorIs(t, err, ErrOpenVideo)
	assert.Empty(t, h.sink.opened)
	assert.Empty(t, h.sink.records)
}

func TestProcessStream_DetectorFailure(t *testing.T) {
	h := newHarness(t, aggregator.Union{})
	h.opts.Detector = &fakeDetector{failAt: 4}
	path := touch(t, t.TempDir(), "20241015175216_000001.MP4")
	h.sources[path] = newSource([]int64{0, 400, 1000, 1400, 2000}, 2)

	outcome, err := NewProcessor(h.opts).ProcessStream(context.Background(), 0, path)
	require.Error(t, err)

	assert.Equal(t, model.StatusFailed, outcome.Status)
	// Only the boundary at 1000ms was crossed before the crash; no flush.
	assert.Len(t, h.sink.records[path], 1)
	require.Len(t, h.sink.closed, 1)
	assert.Equal(t, model.StatusFailed, h.sink.closed[0].Status)
	assert.True(t, h.sources[path].closed)
}

func TestProcessStream_PreviewStopStillFlushes(t *testing.T) {
	h := newHarness(t, aggregator.Union{})
	h.opts.Preview = &stopAfter{frames: 2}
	path := touch(t, t.TempDir(), "20241015175216_000001.MP4")
	h.sources[path] = newSource([]int64{0, 1000, 2000, 3000}, 4)

	outcome, err := NewProcessor(h.opts).ProcessStream(context.Background(), 0, path)
	require.NoError(t, err)

	assert.Equal(t, model.StatusStopped, outcome.Status)
	records := h.sink.records[path]
	require.Len(t, records, 2)
	assert.Equal(t, "{'shelf'}", records[1].Label.String())
	assert.Equal(t, int64(1), records[1].Second)
}

func TestProcessAll_FreshStatePerStream(t *testing.T) {
	h := newHarness(t, aggregator.Union{})
	dir := t.TempDir()

	first := touch(t, dir, "20241015175216_000001.MP4")
	broken := touch(t, dir, "20241015175300_000002.MP4")
	second := touch(t, dir, "20241015175400_000003.MP4")
	h.sources[first] = newSource([]int64{0, 200}, 2)
	h.sources[second] = newSource([]int64{0, 200}, 7)

	summary := NewProcessor(h.opts).ProcessAll(context.Background(), []string{
		first, filepath.Join(dir, "missing.MP4"), broken, second,
	})

	assert.Equal(t, Summary{Completed: 2, Skipped: 1, Failed: 1, Records: 2}, summary)
	assert.Equal(t, "{'reachy'}", h.sink.records[first][0].Label.String())
	assert.Equal(t, "{'monitor'}", h.sink.records[second][0].Label.String())
	require.Len(t, h.sink.opened, 2)
	assert.Equal(t, 3, h.sink.opened[1].Index)
}

func TestProcessAll_Cancelled(t *testing.T) {
	h := newHarness(t, aggregator.Union{})
	path := touch(t, t.TempDir(), "20241015175216_000001.MP4")
	h.sources[path] = newSource([]int64{0}, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := NewProcessor(h.opts).ProcessAll(ctx, []string{path})
	assert.Equal(t, Summary{}, summary)
}
