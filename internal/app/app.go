package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"arucolog/internal/aggregator"
	"arucolog/internal/anchor"
	"arucolog/internal/config"
	"arucolog/internal/logger"
	"arucolog/internal/repository"
	"arucolog/internal/repository/sqlite"
	"arucolog/internal/routes"
	"arucolog/internal/service/pipeline"
	"arucolog/internal/service/storage"
	"arucolog/internal/service/vision"
	"arucolog/internal/service/websocket"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config  *config.Config
	logger  *logger.Logger
	db      *sqlite.DB
	streams repository.StreamRepository
	records repository.RecordRepository
}

// NewApp opens the database when DB_PATH is set.
func NewApp(cfg *config.Config, logger *logger.Logger) (*App, error) {
	a := &App{config: cfg, logger: logger}

	if cfg.DatabasePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.streams = sqlite.NewStreamRepository(db)
		a.records = sqlite.NewRecordRepository(db)
		logger.Info("Database opened at %s", cfg.DatabasePath)
	}

	return a, nil
}

// Detect processes every video in order and writes their records to the CSV
// output, the database and the live feed, whichever are enabled.
func (a *App) Detect(ctx context.Context, paths []string) (pipeline.Summary, error) {
	names, err := a.config.NameTable()
	if err != nil {
		return pipeline.Summary{}, err
	}
	policy, err := aggregator.ParsePolicy(a.config.Policy)
	if err != nil {
		return pipeline.Summary{}, err
	}
	source, err := anchor.ParseSource(a.config.AnchorSource)
	if err != nil {
		return pipeline.Summary{}, err
	}

	detector, err := vision.NewArucoDetector(a.config.MarkerDictionary, a.logger)
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer detector.Close()

	csvWriter := storage.NewCSVWriter(a.config, a.logger)
	defer func() {
		if err := csvWriter.Finish(); err != nil {
			a.logger.Error("Failed to close CSV output: %v", err)
		}
	}()
	sinks := []pipeline.Sink{csvWriter}

	if a.db != nil {
		sinks = append(sinks, storage.NewRecordBuffer(a.streams, a.records, a.logger))
	}

	if a.config.LiveAddress != "" {
		hub := websocket.NewHubService(a.logger)
		stop := a.serveLive(hub)
		defer stop()
		sinks = append(sinks, hub)
	}

	runID := uuid.NewString()
	opts := pipeline.Options{
		RunID:    runID,
		Open:     vision.OpenVideo,
		Detector: detector,
		Resolver: anchor.NewResolver(source, anchor.FFProbe{Binary: a.config.FFProbePath}),
		Policy:   policy,
		Names:    names,
		Sinks:    sinks,
		Logger:   a.logger,
	}
	if a.config.ShowPreview {
		preview := vision.NewPreview(names)
		defer preview.Close()
		opts.Preview = preview
	}

	a.logger.Info("Run %s: %d video(s), policy %s, anchor %s, %d marker names",
		runID, len(paths), policy.Name(), source, names.Len())

	return pipeline.NewProcessor(opts).ProcessAll(ctx, paths), nil
}

// serveLive starts the hub and its websocket endpoint. The returned function
// shuts both down.
func (a *App) serveLive(hub *websocket.HubService) func() {
	go hub.Run()

	server := &http.Server{
		Addr: a.config.LiveAddress,
		Handler: routes.SetupRoutes(routes.Dependencies{
			Config: a.config,
			Logger: a.logger,
			Hub:    hub,
		}),
	}

	go func() {
		a.logger.Info("Live feed at ws://%s/api/live", a.config.LiveAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Live feed server failed: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			a.logger.Warning("Live feed shutdown: %v", err)
		}
		hub.Stop()
	}
}

// Run serves the HTTP API over the database until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a.db == nil {
		return errors.New("DB_PATH must be set to serve the API")
	}

	router := routes.SetupRoutes(routes.Dependencies{
		Config:  a.config,
		Logger:  a.logger,
		Streams: a.streams,
		Records: a.records,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
	}

	fmt.Printf("🚀 ArUco log server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🗄️  Database: %s\n", a.config.DatabasePath)
	fmt.Printf("📁 Logs: %s\n", a.config.LogDirectory)

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
