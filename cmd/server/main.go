// Package main implements the entry point for the extraction API
// server, which accepts document-extraction submissions, processes
// them asynchronously against a vision-language model, and serves the
// results.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"github.com/tessellate-ai/extract-api/internal/config"
	"github.com/tessellate-ai/extract-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Setup(cfg.Server.LogLevel)

	slog.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Int("max_concurrent", cfg.Worker.MaxConcurrent),
		slog.String("queue_backend", cfg.Worker.QueueBackend))

	if *migrateCmd != "" {
		if err := runMigrationCommand(cfg, *migrateCmd); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		return
	}

	ctx := context.Background()

	app, err := newApplication(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
