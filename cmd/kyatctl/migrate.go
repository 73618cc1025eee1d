package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/kyat/internal/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			slog.Info("running migrations", "host", cfg.DB.Host, "database", cfg.DB.Name)

			if err := database.Migrate(cfg.ConnectionString()); err != nil {
				return fmt.Errorf("migrating: %w", err)
			}

			slog.Info("database is up to date")

			return nil
		},
	}
}
