package sqlite

import (
	"database/sql"
	"fmt"

	"arucolog/internal/dto"
	"arucolog/internal/model"
)

// StreamRepository implements repository.StreamRepository for SQLite.
type StreamRepository struct {
	db *DB
}

// NewStreamRepository creates a new SQLite stream repository.
func NewStreamRepository(db *DB) *StreamRepository {
	return &StreamRepository{db: db}
}

// Insert adds a new stream record to the database.
func (r *StreamRepository) Insert(stream *model.Stream) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO streams (run_id, source_path, start_time, policy, status, record_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, stream.RunID, stream.SourcePath, stream.StartTime, stream.Policy, stream.Status, stream.RecordCount)
	if err != nil {
		return 0, fmt.Errorf("failed to insert stream: %w", err)
	}

	return result.LastInsertId()
}

// UpdateStatus sets the final status and record count of a stream.
func (r *StreamRepository) UpdateStatus(id int64, status string, recordCount int) error {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`UPDATE streams SET status = ?, record_count = ? WHERE id = ?`, status, recordCount, id)
	if err != nil {
		return fmt.Errorf("failed to update stream: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("stream %d not found", id)
	}
	return nil
}

// GetByID retrieves a stream by its ID. A missing stream yields nil, nil.
func (r *StreamRepository) GetByID(id int64) (*model.Stream, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var s model.Stream
	err := r.db.Conn().QueryRow(`
		SELECT id, run_id, source_path, start_time, policy, status, record_count, created_at
		FROM streams WHERE id = ?
	`, id).Scan(&s.ID, &s.RunID, &s.SourcePath, &s.StartTime, &s.Policy, &s.Status, &s.RecordCount, &s.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}
	return &s, nil
}

// GetAll retrieves streams based on filter criteria, newest recording first.
func (r *StreamRepository) GetAll(filter *dto.StreamFilters) ([]model.Stream, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	if filter == nil {
		filter = &dto.StreamFilters{}
	}

	query := `
		SELECT id, run_id, source_path, start_time, policy, status, record_count, created_at
		FROM streams
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.RunID != "" {
		query += " AND run_id = ?"
		args = append(args, filter.RunID)
	}

	if filter.Source != "" {
		query += " AND source_path LIKE ?"
		args = append(args, "%"+filter.Source+"%")
	}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	if !filter.StartAfter.IsZero() {
		query += " AND start_time >= ?"
		args = append(args, filter.StartAfter)
	}

	query += " ORDER BY start_time DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query streams: %w", err)
	}
	defer rows.Close()

	var streams []model.Stream
	for rows.Next() {
		var s model.Stream
		if err := rows.Scan(&s.ID, &s.RunID, &s.SourcePath, &s.StartTime, &s.Policy, &s.Status, &s.RecordCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stream: %w", err)
		}
		streams = append(streams, s)
	}

	return streams, rows.Err()
}

// Delete removes a stream; its records are removed by cascade.
func (r *StreamRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM streams WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete stream: %w", err)
	}
	return nil
}
