package main

import (
	"context"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"auth_backend/internal/app/config"
	"auth_backend/internal/platform/logging"
)

// NewRootCmd creates the root command for the auth server CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authd",
		Short: "Username/password authentication service",
		Long: `authd serves the registration, login, session and password reset API
together with the single-page client.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewPruneSessionsCmd())

	return cmd
}

// loadConfig reads the configuration and installs the default logger.
func loadConfig(ctx context.Context) (config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return config.Config{}, oops.Code("CONFIG_INVALID").With("operation", "load config").Wrap(err)
	}
	if _, err := logging.Setup(os.Stdout, cfg.LogFormat, cfg.LogLevel); err != nil {
		return config.Config{}, oops.Code("CONFIG_INVALID").With("operation", "setup logging").Wrap(err)
	}
	return cfg, nil
}
