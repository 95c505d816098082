package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-portal/internal/config"
	"github.com/mind-engage/mindengage-portal/internal/db"
)

var rootCmd = &cobra.Command{
	Use:           "portald",
	Short:         "MindEngage academic portal server",
	Long:          "portald serves the adaptive test and progress API for students, faculty and admins.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("db-driver", "", "sqlite|postgres (overrides DB_DRIVER)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database DSN (overrides DB_DSN)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

// loadConfig applies --env-file and the database flag overrides.
func loadConfig(cmd *cobra.Command) config.Config {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg := config.Load(envFile)
	if v, _ := cmd.Flags().GetString("db-driver"); v != "" {
		cfg.DBDriver = v
	}
	if v, _ := cmd.Flags().GetString("db-dsn"); v != "" {
		cfg.DBDSN = v
	}
	return cfg
}

// openDB opens the configured database; the schema is ensured on open.
func openDB(cfg config.Config) (*sql.DB, error) {
	drv, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return db.Open(ctx, drv, cfg.DBDSN)
}
