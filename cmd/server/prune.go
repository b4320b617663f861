package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"auth_backend/internal/app/di"
	"auth_backend/internal/platform/clock"
)

// NewPruneSessionsCmd creates the prune-sessions subcommand.
func NewPruneSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune-sessions",
		Short: "Delete expired sessions from the primary store",
		RunE:  runPruneSessions,
	}
}

func runPruneSessions(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	store, err := di.OpenStore(ctx, cfg, clock.Real())
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer func() { _ = store.Close(ctx) }()

	n, err := store.Sessions.DeleteExpired(ctx)
	if err != nil {
		return oops.Code("PRUNE_FAILED").With("operation", "delete expired sessions").Wrap(err)
	}
	cmd.Printf("Deleted %d expired sessions\n", n)
	return nil
}
