package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New creates and initializes a new SQLite database connection.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate creates the necessary tables if they don't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS streams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		source_path TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		policy TEXT NOT NULL,
		status TEXT NOT NULL,
		record_count INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS second_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		stream_id INTEGER NOT NULL,
		timestamp DATETIME NOT NULL,
		kind TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		marker_ids TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (stream_id) REFERENCES streams(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_streams_run_id ON streams(run_id);
	CREATE INDEX IF NOT EXISTS idx_streams_start_time ON streams(start_time);
	CREATE INDEX IF NOT EXISTS idx_second_records_stream_id ON second_records(stream_id);
	CREATE INDEX IF NOT EXISTS idx_second_records_label ON second_records(label);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}
