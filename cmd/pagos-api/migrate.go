package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tanmoy095/pagos-api/internal/config"
	"github.com/Tanmoy095/pagos-api/internal/logging"
	"github.com/Tanmoy095/pagos-api/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Apply the embedded PostgreSQL schema. The migration is idempotent.

Examples:
  pagos-api migrate
  pagos-api migrate --env-file /etc/pagos/.env`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.Logging)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.Database.URL(), cfg.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	logger.Info("schema applied", "database", cfg.Database.Name, "host", cfg.Database.Host)
	return nil
}
