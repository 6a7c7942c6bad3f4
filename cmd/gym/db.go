package main

import (
	"github.com/spf13/cobra"
	"github.com/zulandar/gymyard/internal/db"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBMigrateCmd())
	return cmd
}

func newDBMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the gym tables",
		Long:  "Connects to the configured database and auto-migrates users, routines, exercises, sessions and sets.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBMigrate(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to gym config file")
	return cmd
}

func runDBMigrate(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer closeDB(out, gormDB)
	faint.Fprintf(out, "Connected to %s\n", describeDatabase(cfg.Database))

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	okColor.Fprintf(out, "✓ Migrated %d tables\n", len(db.AllModels()))
	return nil
}
