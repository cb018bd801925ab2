// Package aggregator turns per-frame marker detections into one record per
// elapsed second of video.
//
// An Aggregator serves exactly one stream. It is not safe for concurrent use:
// samples must be ingested in non-decreasing time order from a single goroutine,
// and Flush must be called once after the last frame, including when the caller
// stops pulling frames early.
package aggregator

import (
	"time"

	"arucolog/internal/marker"
)

// noSecond marks an aggregator that has not seen a frame yet.
const noSecond int64 = -1

// Bucket accumulates the detections of the second currently open.
type Bucket struct {
	SecondIndex int64
	// Collected holds marker ids in encounter order. Whether duplicates are
	// kept depends on the policy.
	Collected []int
	// BestByDistance is the smallest vertical distance to the frame center seen
	// for each id. Only center-aware policies fill it.
	BestByDistance map[int]float64
}

func newBucket(second int64) *Bucket {
	return &Bucket{
		SecondIndex:    second,
		Collected:      make([]int, 0, 8),
		BestByDistance: make(map[int]float64),
	}
}

// Empty reports whether nothing has been accumulated.
func (b *Bucket) Empty() bool {
	return b == nil || len(b.Collected) == 0
}

// SecondRecord is the immutable output unit.
type SecondRecord struct {
	Timestamp time.Time
	// Second is the elapsed-second index of the bucket that produced the record.
	Second int64
	Label  marker.Label
}

// Aggregator is the per-stream state machine.
type Aggregator struct {
	policy Policy
	names  marker.NameTable
	start  time.Time

	current       int64
	bucket        *Bucket
	lastTimestamp time.Time
}

// New creates an aggregator anchored at start, the wall-clock time of elapsed 0.
func New(start time.Time, policy Policy, names marker.NameTable) *Aggregator {
	return &Aggregator{
		policy:  policy,
		names:   names,
		start:   start,
		current: noSecond,
	}
}

// Ingest adds one frame. When the frame opens a new second, the record of the
// bucket being closed is returned with ok=true.
//
// The closing record is stamped with the new frame's second, not with the
// closing bucket's own index. Existing logs were produced that way.
func (a *Aggregator) Ingest(sample marker.FrameSample) (record SecondRecord, ok bool) {
	second := sample.ElapsedSeconds()
	timestamp := a.start.Add(time.Duration(second) * time.Second)

	if a.bucket != nil && second <= a.current {
		// Samples from an already-closed second are folded into the open bucket.
		a.policy.Accumulate(a.bucket, sample)
		a.lastTimestamp = a.start.Add(time.Duration(a.current) * time.Second)
		return SecondRecord{}, false
	}

	if a.bucket != nil {
		record = SecondRecord{
			Timestamp: timestamp,
			Second:    a.bucket.SecondIndex,
			Label:     a.policy.Resolve(a.bucket, a.names),
		}
		ok = true
	}

	a.current = second
	a.bucket = newBucket(second)
	a.policy.Accumulate(a.bucket, sample)
	a.lastTimestamp = timestamp
	return record, ok
}

// Flush closes the stream. The open bucket is emitted only when it accumulated
// something; its record carries the timestamp of the last ingested frame.
// Flushing twice or flushing an aggregator that never saw a frame yields nothing.
func (a *Aggregator) Flush() (SecondRecord, bool) {
	bucket := a.bucket
	a.bucket = nil
	if bucket.Empty() {
		return SecondRecord{}, false
	}
	return SecondRecord{
		Timestamp: a.lastTimestamp,
		Second:    bucket.SecondIndex,
		Label:     a.policy.Resolve(bucket, a.names),
	}, true
}

// Run feeds every sample through a fresh aggregator and returns all records,
// the final flush included.
func Run(start time.Time, policy Policy, names marker.NameTable, samples []marker.FrameSample) []SecondRecord {
	agg := New(start, policy, names)
	records := make([]SecondRecord, 0, len(samples)/10+1)
	for _, sample := range samples {
		if record, ok := agg.Ingest(sample); ok {
			records = append(records, record)
		}
	}
	if record, ok := agg.Flush(); ok {
		records = append(records, record)
	}
	return records
}
