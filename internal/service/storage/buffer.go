package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"arucolog/internal/aggregator"
	"arucolog/internal/logger"
	"arucolog/internal/model"
	"arucolog/internal/repository"
	"arucolog/internal/service/pipeline"
)

// RecordBufferLimit is how many records are buffered before they are written
// to the database.
const RecordBufferLimit = 60

// RecordBuffer buffers emitted records in memory, per stream, and flushes them
// to the database in batches and at the end of every stream. A batch that
// cannot be written is dropped and its stream ends as failed.
type RecordBuffer struct {
	streamRepo repository.StreamRepository
	recordRepo repository.RecordRepository
	logger     *logger.Logger
	limit      int

	pending   map[int][]model.SecondRecord
	lost      map[int]int
	streamIDs map[int]int64
	mu        sync.Mutex
}

// NewRecordBuffer creates a new RecordBuffer backed by the given repositories.
func NewRecordBuffer(streamRepo repository.StreamRepository, recordRepo repository.RecordRepository, logger *logger.Logger) *RecordBuffer {
	return &RecordBuffer{
		streamRepo: streamRepo,
		recordRepo: recordRepo,
		logger:     logger,
		limit:      RecordBufferLimit,
		pending:    make(map[int][]model.SecondRecord),
		lost:       make(map[int]int),
		streamIDs:  make(map[int]int64),
	}
}

// StreamID returns the database id of a stream opened by this buffer.
func (b *RecordBuffer) StreamID(index int) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.streamIDs[index]
	return id, ok
}

// Open implements pipeline.Sink by registering the stream.
func (b *RecordBuffer) Open(stream pipeline.Stream) error {
	id, err := b.streamRepo.Insert(&model.Stream{
		RunID:      stream.RunID,
		SourcePath: stream.Path,
		StartTime:  stream.Start,
		Policy:     stream.Policy,
		Status:     model.StatusRunning,
	})
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.streamIDs[stream.Index] = id
	b.pending[stream.Index] = make([]model.SecondRecord, 0, b.limit)
	b.mu.Unlock()
	return nil
}

// Write implements pipeline.Sink.
func (b *RecordBuffer) Write(stream pipeline.Stream, record aggregator.SecondRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	id, ok := b.streamIDs[stream.Index]
	if !ok {
		return fmt.Errorf("stream %s was not opened", stream.Path)
	}
	b.pending[stream.Index] = append(b.pending[stream.Index], model.SecondRecord{
		StreamID:  id,
		Timestamp: record.Timestamp,
		Kind:      record.Label.Kind.String(),
		Label:     record.Label.String(),
		MarkerIDs: joinIDs(record.Label.IDs()),
	})

	if len(b.pending[stream.Index]) >= b.limit {
		return b.flushLocked(stream.Index)
	}
	return nil
}

// Close implements pipeline.Sink: pending records are written and the stream
// row receives its final status. Nothing of the stream is kept afterwards.
func (b *RecordBuffer) Close(stream pipeline.Stream, outcome pipeline.Outcome) error {
	b.mu.Lock()
	flushErr := b.flushLocked(stream.Index)
	id, ok := b.streamIDs[stream.Index]
	lost := b.lost[stream.Index]
	delete(b.streamIDs, stream.Index)
	delete(b.pending, stream.Index)
	delete(b.lost, stream.Index)
	b.mu.Unlock()
	if !ok {
		return flushErr
	}

	status, count := outcome.Status, outcome.Records
	if lost > 0 {
		status, count = model.StatusFailed, max(count-lost, 0)
	}
	if err := b.streamRepo.UpdateStatus(id, status, count); err != nil {
		return err
	}
	return flushErr
}

// FlushRecords writes the buffered records of every open stream.
func (b *RecordBuffer) FlushRecords() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for index := range b.pending {
		if err := b.flushLocked(index); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// flushLocked writes and clears the batch of one stream. A failed batch is
// counted as lost rather than retried. b.mu must be held.
func (b *RecordBuffer) flushLocked(index int) error {
	batch := b.pending[index]
	if len(batch) == 0 {
		return nil
	}
	b.pending[index] = batch[:0]

	if err := b.recordRepo.InsertBatch(batch); err != nil {
		b.lost[index] += len(batch)
		b.logger.Error("Error saving %d records to database, dropping them: %v", len(batch), err)
		return err
	}

	b.logger.Info("Flushed %d records to database", len(batch))
	return nil
}

func joinIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ",")
}
