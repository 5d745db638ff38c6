package main

import (
	"log/slog"

	"github.com/alecgard/mentorsync/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE:  runMigrate,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	RunE:  runMigrateDown,
}

func init() {
	migrateCmd.AddCommand(migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}

func withMigrator(fn func(*database.Migrator) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m, err := database.NewMigrator(cfg.DatabaseURLForMigrate())
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			slog.Warn("closing migrator", "error", err)
		}
	}()

	return fn(m)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	return withMigrator(func(m *database.Migrator) error {
		if err := m.Up(); err != nil {
			return err
		}
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		slog.Info("migrations applied", "version", v, "dirty", dirty)
		return nil
	})
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	return withMigrator(func(m *database.Migrator) error {
		if err := m.Down(); err != nil {
			return err
		}
		slog.Info("migrations rolled back")
		return nil
	})
}
