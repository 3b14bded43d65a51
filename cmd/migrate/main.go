package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"ats-expert/internal/shared/config"
	"ats-expert/internal/shared/storage/db"
	"ats-expert/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect", map[string]any{"error": err})
		os.Exit(1)
	}
	defer sqlDB.Close()

	version, err := db.Migrate(ctx, sqlDB)
	if err != nil {
		telemetry.Error("migrate.run", map[string]any{"error": err})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"schema_version": version})
}
