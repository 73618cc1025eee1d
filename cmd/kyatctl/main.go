package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/kyat/internal/config"
	"github.com/MrJamesThe3rd/kyat/internal/logging"
)

var cfg *config.Config

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kyatctl",
		Short:         "Operate a kyat ledger database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("loading %s: %w", envFile, err)
			}

			c, err := config.Load()
			if err != nil {
				return err
			}

			cfg = c
			logging.New(os.Stderr, cfg.App.LogLevel, cfg.App.LogFormat)

			return nil
		},
	}

	cmd.PersistentFlags().String("env-file", ".env", "dotenv file to load before reading the environment")

	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(seedCmd())
	cmd.AddCommand(tokenCmd())

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd().ExecuteContext(ctx)

	stop()

	if err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
