package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"arucolog/internal/config"
	"arucolog/internal/logger"
	"arucolog/internal/model"
	"arucolog/internal/repository/sqlite"
)

// ========================================
// Test Setup Helpers
// ========================================

type testEnv struct {
	streams *sqlite.StreamRepository
	records *sqlite.RecordRepository
	logger  *logger.Logger
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := sqlite.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := logger.NewLogger(&config.Config{LogDirectory: filepath.Join(dir, "logs")})
	t.Cleanup(func() { log.Close() })

	return &testEnv{
		streams: sqlite.NewStreamRepository(db),
		records: sqlite.NewRecordRepository(db),
		logger:  log,
	}
}

func (e *testEnv) insertStream(t *testing.T, source string, start time.Time, labels ...string) int64 {
	t.Helper()

	id, err := e.streams.Insert(&model.Stream{
		RunID:      "run-1",
		SourcePath: source,
		StartTime:  start,
		Policy:     "majority",
		Status:     model.StatusCompleted,
	})
	if err != nil {
		t.Fatalf("Failed to insert stream: %v", err)
	}

	records := make([]model.SecondRecord, 0, len(labels))
	for i, label := range labels {
		kind := "present"
		if label == "" {
			kind = "absent"
		}
		records = append(records, model.SecondRecord{
			StreamID:  id,
			Timestamp: start.Add(time.Duration(i+1) * time.Second),
			Kind:      kind,
			Label:     label,
		})
	}
	if len(records) > 0 {
		if err := e.records.InsertBatch(records); err != nil {
			t.Fatalf("Failed to insert records: %v", err)
		}
	}
	return id
}

func get(t *testing.T, h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// ========================================
// Stream Handler Tests
// ========================================

func TestGetStreamsHandler(t *testing.T) {
	env := setupTestEnv(t)
	base := time.Date(2024, 3, 14, 12, 0, 0, 0, time.Local)
	env.insertStream(t, "/videos/20240314120000_a.mp4", base)
	env.insertStream(t, "/videos/20240315120000_b.mp4", base.Add(24*time.Hour))

	rec := get(t, GetStreamsHandler(env.streams, env.logger), "/api/streams")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var streams []model.Stream
	if err := json.NewDecoder(rec.Body).Decode(&streams); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(streams) != 2 {
		t.Fatalf("Expected 2 streams, got %d", len(streams))
	}
	if !strings.HasSuffix(streams[0].SourcePath, "_b.mp4") {
		t.Errorf("Expected newest stream first, got %s", streams[0].SourcePath)
	}
}

func TestGetStreamsHandler_Filters(t *testing.T) {
	env := setupTestEnv(t)
	base := time.Date(2024, 3, 14, 12, 0, 0, 0, time.Local)
	env.insertStream(t, "/videos/a.mp4", base)
	env.insertStream(t, "/videos/b.mp4", base.Add(time.Hour))

	rec := get(t, GetStreamsHandler(env.streams, env.logger), "/api/streams?after=2024-03-14+12:30:00")
	var streams []model.Stream
	if err := json.NewDecoder(rec.Body).Decode(&streams); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(streams) != 1 || streams[0].SourcePath != "/videos/b.mp4" {
		t.Errorf("Expected only b.mp4, got %+v", streams)
	}

	rec = get(t, GetStreamsHandler(env.streams, env.logger), "/api/streams?after=yesterday")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed after, got %d", rec.Code)
	}
}

func TestGetStreamsHandler_EmptyIsArray(t *testing.T) {
	env := setupTestEnv(t)

	rec := get(t, GetStreamsHandler(env.streams, env.logger), "/api/streams")
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("Expected empty JSON array, got %q", body)
	}
}

func TestDeleteStreamHandler(t *testing.T) {
	env := setupTestEnv(t)
	id := env.insertStream(t, "/videos/a.mp4", time.Now(), "dresser", "")

	rec := httptest.NewRecorder()
	DeleteStreamHandler(env.streams, env.logger)(rec, httptest.NewRequest(http.MethodDelete, "/api/streams?stream=1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}

	stream, err := env.streams.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stream != nil {
		t.Error("Expected stream to be deleted")
	}
	records, err := env.records.GetByStreamID(id)
	if err != nil {
		t.Fatalf("GetByStreamID failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected records to be deleted, got %d", len(records))
	}

	rec = httptest.NewRecorder()
	DeleteStreamHandler(env.streams, env.logger)(rec, httptest.NewRequest(http.MethodDelete, "/api/streams?stream=1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", rec.Code)
	}
}

// ========================================
// Record Handler Tests
// ========================================

func TestGetRecordsHandler(t *testing.T) {
	env := setupTestEnv(t)
	start := time.Date(2024, 3, 14, 12, 0, 0, 0, time.Local)
	env.insertStream(t, "/videos/a.mp4", start, "dresser", "", "table")

	rec := get(t, GetRecordsHandler(env.streams, env.records, env.logger), "/api/records?stream=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var records []model.SecondRecord
	if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[0].Label != "dresser" || records[1].Kind != "absent" || records[2].Label != "table" {
		t.Errorf("Unexpected records: %+v", records)
	}
}

func TestGetRecordsHandler_BadRequests(t *testing.T) {
	env := setupTestEnv(t)
	h := GetRecordsHandler(env.streams, env.records, env.logger)

	tests := []struct {
		target string
		want   int
	}{
		{"/api/records", http.StatusBadRequest},
		{"/api/records?stream=abc", http.StatusBadRequest},
		{"/api/records?stream=-3", http.StatusBadRequest},
		{"/api/records?stream=42", http.StatusNotFound},
	}

	for _, tt := range tests {
		if rec := get(t, h, tt.target); rec.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.target, tt.want, rec.Code)
		}
	}
}

// ========================================
// Chart Handler Tests
// ========================================

func TestStreamChartHandler(t *testing.T) {
	env := setupTestEnv(t)
	env.insertStream(t, "/videos/20240314120000_a.mp4", time.Now(), "dresser", "dresser", "table")

	rec := get(t, StreamChartHandler(env.streams, env.records, env.logger), "/api/streams/chart?stream=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected HTML content type, got %s", ct)
	}

	body := rec.Body.String()
	for _, want := range []string{"dresser", "table", "20240314120000_a.mp4"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected chart to mention %q", want)
		}
	}
}

func TestStreamChartHandler_UnknownStream(t *testing.T) {
	env := setupTestEnv(t)

	rec := get(t, StreamChartHandler(env.streams, env.records, env.logger), "/api/streams/chart?stream=7")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

// ========================================
// Log Handler Tests
// ========================================

func TestShowAndClearLogsHandlers(t *testing.T) {
	env := setupTestEnv(t)
	env.logger.Warning("marker %d has no name", 9)

	rec := get(t, ShowLogsHandler(env.logger, logger.WarningFile), "/logs/warning")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "marker 9 has no name") {
		t.Errorf("Expected warning in log output, got %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	ClearLogsHandler(env.logger, logger.WarningFile)(rec, httptest.NewRequest(http.MethodPost, "/logs/warning/clear", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}

	data, err := os.ReadFile(filepath.Join(env.logger.Dir(), logger.WarningFile))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected cleared log, got %q", data)
	}
}

func TestShowLogsHandler_MissingFile(t *testing.T) {
	env := setupTestEnv(t)

	rec := get(t, ShowLogsHandler(env.logger, "missing.log"), "/logs/missing")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}
