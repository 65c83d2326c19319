package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/tessellate-ai/extract-api/internal/config"
)

const migrationsDir = "migrations"

// runMigrationCommand opens a database connection and executes the
// given goose command against the migrations directory.
func runMigrationCommand(cfg *config.Config, command string) error {
	log := slog.Default().With(slog.String("component", "migrations"))

	db, err := setupDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Warn("failed to close migration database connection", slog.String("error", closeErr.Error()))
		}
	}()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	log.Info("executing migration command", slog.String("command", command))

	switch command {
	case "up":
		err = goose.Up(db, migrationsDir)
	case "down":
		err = goose.Down(db, migrationsDir)
	case "status":
		err = goose.Status(db, migrationsDir)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	if err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	log.Info("migration command completed", slog.String("command", command))
	return nil
}

// migrateUp applies pending migrations on an existing connection. Used
// at startup so a fresh deployment is ready without a separate step.
func migrateUp(db *sql.DB, log *slog.Logger) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	log.Info("database migrations applied")
	return nil
}
