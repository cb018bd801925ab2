package storage

import (
	"fmt"
	"strings"

	"arucolog/internal/marker"
	"arucolog/internal/model"
	"arucolog/internal/repository"
)

// ImportedPolicy is stored as the policy of streams imported from CSV logs,
// since the log does not record which policy produced it.
const ImportedPolicy = "imported"

// Importer loads detection logs into the database.
type Importer struct {
	streamRepo repository.StreamRepository
	recordRepo repository.RecordRepository
}

func NewImporter(streamRepo repository.StreamRepository, recordRepo repository.RecordRepository) *Importer {
	return &Importer{streamRepo: streamRepo, recordRepo: recordRepo}
}

// Import stores the log at path as one completed stream and returns its id and
// record count. The anchor is taken from the file name.
func (im *Importer) Import(runID, path string) (int64, int, error) {
	start, err := ParseFileName(path)
	if err != nil {
		return 0, 0, err
	}

	rows, err := ReadCSV(path)
	if err != nil {
		return 0, 0, err
	}

	id, err := im.streamRepo.Insert(&model.Stream{
		RunID:      runID,
		SourcePath: path,
		StartTime:  start,
		Policy:     ImportedPolicy,
		Status:     model.StatusRunning,
	})
	if err != nil {
		return 0, 0, err
	}

	records := make([]model.SecondRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.SecondRecord{
			StreamID:  id,
			Timestamp: row.Timestamp,
			Kind:      InferKind(row.Label).String(),
			Label:     row.Label,
		})
	}

	if err := im.recordRepo.InsertBatch(records); err != nil {
		if updateErr := im.streamRepo.UpdateStatus(id, model.StatusFailed, 0); updateErr != nil {
			return id, 0, fmt.Errorf("%w (and failed to mark stream: %v)", err, updateErr)
		}
		return id, 0, err
	}

	if err := im.streamRepo.UpdateStatus(id, model.StatusCompleted, len(records)); err != nil {
		return id, len(records), err
	}
	return id, len(records), nil
}

// InferKind recovers the label kind from a CSV cell.
func InferKind(cell string) marker.LabelKind {
	cell = strings.TrimSpace(cell)
	switch {
	case cell == "":
		return marker.LabelAbsent
	case strings.HasPrefix(cell, "{") && strings.HasSuffix(cell, "}"):
		return marker.LabelSet
	default:
		return marker.LabelPresent
	}
}
