package repository

import (
	"arucolog/internal/dto"
	"arucolog/internal/model"
)

// StreamRepository defines the interface for processed stream operations.
type StreamRepository interface {
	// Create operations
	Insert(stream *model.Stream) (int64, error)

	// Update operations
	UpdateStatus(id int64, status string, recordCount int) error

	// Read operations
	GetByID(id int64) (*model.Stream, error)
	GetAll(filter *dto.StreamFilters) ([]model.Stream, error)

	// Delete operations
	Delete(id int64) error
}

// RecordRepository defines the interface for per-second record operations.
type RecordRepository interface {
	// Create operations
	InsertBatch(records []model.SecondRecord) error

	// Read operations
	GetByStreamID(streamID int64) ([]model.SecondRecord, error)
	CountByLabel(streamID int64) ([]dto.LabelCount, error)
}
