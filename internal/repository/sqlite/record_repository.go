package sqlite

import (
	"fmt"

	"arucolog/internal/dto"
	"arucolog/internal/model"
)

// noLabel is reported by CountByLabel for seconds without a marker.
const noLabel = "(none)"

// RecordRepository implements repository.RecordRepository for SQLite.
type RecordRepository struct {
	db *DB
}

// NewRecordRepository creates a new SQLite record repository.
func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// InsertBatch adds multiple records in a single transaction.
func (r *RecordRepository) InsertBatch(records []model.SecondRecord) error {
	if len(records) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO second_records (stream_id, timestamp, kind, label, marker_ids)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(rec.StreamID, rec.Timestamp, rec.Kind, rec.Label, rec.MarkerIDs); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	return tx.Commit()
}

// GetByStreamID retrieves all records of a stream in emission order.
func (r *RecordRepository) GetByStreamID(streamID int64) ([]model.SecondRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, stream_id, timestamp, kind, label, marker_ids
		FROM second_records WHERE stream_id = ? ORDER BY id
	`, streamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []model.SecondRecord
	for rows.Next() {
		var rec model.SecondRecord
		if err := rows.Scan(&rec.ID, &rec.StreamID, &rec.Timestamp, &rec.Kind, &rec.Label, &rec.MarkerIDs); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// CountByLabel returns how many seconds each label was reported in a stream,
// most frequent first.
func (r *RecordRepository) CountByLabel(streamID int64) ([]dto.LabelCount, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT CASE WHEN label = '' THEN ? ELSE label END AS name, COUNT(*) AS seconds
		FROM second_records WHERE stream_id = ?
		GROUP BY name ORDER BY seconds DESC, name
	`, noLabel, streamID)
	if err != nil {
		return nil, fmt.Errorf("failed to count labels: %w", err)
	}
	defer rows.Close()

	var counts []dto.LabelCount
	for rows.Next() {
		var c dto.LabelCount
		if err := rows.Scan(&c.Label, &c.Seconds); err != nil {
			return nil, fmt.Errorf("failed to scan label count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}
