package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/kyat/internal/category"
	categoryStore "github.com/MrJamesThe3rd/kyat/internal/category/store"
	"github.com/MrJamesThe3rd/kyat/internal/database"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the predefined categories that are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := database.New(cfg.ConnectionString())
			if err != nil {
				return err
			}
			defer db.Close()

			inserted, err := category.NewService(categoryStore.New(db)).Seed(cmd.Context())
			if err != nil {
				return err
			}

			slog.Info("categories seeded", "inserted", inserted, "predefined", len(category.Predefined))

			return nil
		},
	}
}
