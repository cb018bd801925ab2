package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"arucolog/internal/repository/sqlite"
	"arucolog/internal/service/storage"
)

func main() {
	logsDir := flag.String("logs", "arucoDetectCSV", "Directory containing detection CSV logs")
	dbPath := flag.String("db", "data/aruco.db", "Database path")
	flag.Parse()

	fmt.Printf("Importing detection logs from %s to database %s\n", *logsDir, *dbPath)

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	files, err := os.ReadDir(*logsDir)
	if err != nil {
		log.Fatalf("Failed to read logs directory: %v", err)
	}

	importer := storage.NewImporter(sqlite.NewStreamRepository(db), sqlite.NewRecordRepository(db))
	runID := uuid.NewString()

	imported, records, skipped := 0, 0, 0
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".csv" {
			continue
		}

		path := filepath.Join(*logsDir, file.Name())
		_, n, err := importer.Import(runID, path)
		if err != nil {
			log.Printf("⚠️  Skipping %s: %v", file.Name(), err)
			skipped++
			continue
		}
		imported++
		records += n
	}

	if imported == 0 && skipped == 0 {
		fmt.Println("No detection logs found to import")
		return
	}

	fmt.Printf("✅ Imported %d logs (%d records) as run %s\n", imported, records, runID)
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d files (invalid name or contents)\n", skipped)
	}
}
