package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"arucolog/internal/aggregator"
	"arucolog/internal/app"
	"arucolog/internal/config"
	"arucolog/internal/logger"
)

func main() {
	cfg := config.Load()

	flag.StringVar(&cfg.Policy, "policy", cfg.Policy, fmt.Sprintf("resolution policy %v", aggregator.PolicyNames()))
	flag.StringVar(&cfg.AnchorSource, "anchor", cfg.AnchorSource, "start time source: filename, metadata or auto")
	flag.StringVar(&cfg.OutputDirectory, "out", cfg.OutputDirectory, "directory for CSV output")
	flag.StringVar(&cfg.OutputMode, "mode", cfg.OutputMode, "CSV files: invocation (one per run) or stream (one per video)")
	flag.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "SQLite database to also store records in")
	flag.StringVar(&cfg.LiveAddress, "live", cfg.LiveAddress, "address to serve the live websocket feed on, e.g. :8081")
	flag.BoolVar(&cfg.ShowPreview, "preview", cfg.ShowPreview, "show frames with detected markers (press q to skip a video)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] video...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	lg := logger.NewLogger(cfg)
	defer lg.Close()

	application, err := app.NewApp(cfg, lg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := application.Detect(ctx, flag.Args())
	if err != nil {
		lg.Error("Detection failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("✅ %d completed, %d stopped, %d skipped, %d failed, %d records\n",
		summary.Completed, summary.Stopped, summary.Skipped, summary.Failed, summary.Records)
	if summary.Failed > 0 || summary.Completed+summary.Stopped == 0 {
		os.Exit(1)
	}
}
