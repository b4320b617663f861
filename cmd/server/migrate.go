package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"auth_backend/internal/app/di"
	"auth_backend/internal/platform/clock"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes",
		Long:  `Create the users and sessions tables (SQL stores) or indexes (MongoDB).`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	cmd.Println("Connecting to database...")
	store, err := di.OpenStore(ctx, cfg, clock.Real())
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer func() { _ = store.Close(ctx) }()

	cmd.Println("Running migrations...")
	if err := store.Migrate(ctx); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
