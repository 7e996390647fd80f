package main

import (
	"context"
	"fmt"

	"github.com/jonathan/profiler/internal/db"
	"github.com/spf13/cobra"
)

var migrateStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long:  "Creates or upgrades the profiler schema. Each migration runs in its own transaction and is recorded in schema_version.",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "List applied migrations without applying new ones")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set (set DATABASE_URL environment variable or database_url in the config file)")
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	out := cmd.OutOrStdout()
	if migrateStatus {
		versions, err := database.AppliedMigrations(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Applied migrations: %v\n", versions)
		return nil
	}

	applied, err := database.Migrate(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		_, _ = fmt.Fprintln(out, "Schema is up to date")
		return nil
	}
	_, _ = fmt.Fprintf(out, "Applied migrations: %v\n", applied)
	return nil
}
