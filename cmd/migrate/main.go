package main

// Run database migrations:
//   go run ./cmd/migrate            # apply all pending
//   go run ./cmd/migrate -cmd down  # roll back the latest
//   go run ./cmd/migrate -cmd status

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"resume-feedback/internal/shared/config"
	"resume-feedback/internal/shared/storage/db"
	"resume-feedback/internal/shared/telemetry"
)

func main() {
	command := flag.String("cmd", "up", "migration command: up, down or status")
	flag.Parse()

	if err := validCommand(*command); err != nil {
		telemetry.Error("migrate.bad_command", map[string]any{"cmd": *command, "error": err.Error()})
		os.Exit(2)
	}

	cfg := config.Load()
	ctx := context.Background()

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultOptions(db.ProfileMigrate)))
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := run(ctx, *command, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"cmd": *command, "error": err.Error()})
		sqlDB.Close()
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"cmd": *command})
}

func validCommand(command string) error {
	switch command {
	case "up", "down", "status":
		return nil
	}
	return fmt.Errorf("unknown migration command %q (want up, down or status)", command)
}

func run(ctx context.Context, command string, sqlDB *sql.DB) error {
	switch command {
	case "up":
		return db.RunMigrations(ctx, sqlDB)
	case "down":
		return db.RollbackMigration(ctx, sqlDB)
	case "status":
		return db.MigrationStatus(ctx, sqlDB)
	}
	return validCommand(command)
}
