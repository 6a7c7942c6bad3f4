package main

import (
	"github.com/spf13/cobra"
	"github.com/zulandar/gymyard/internal/dashboard"
)

func newDashboardCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Start the read-only web dashboard",
		Long:  "Serves users, routines and sessions as HTML pages. The port defaults to dashboard.port from the config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to gym config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runDashboard(cmd *cobra.Command, configPath string, port int) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer closeDB(out, gormDB)

	ctx, cancel := signalContext(out)
	defer cancel()

	return dashboard.Start(ctx, dashboard.StartOpts{
		DB:   gormDB,
		Port: dashboardPort(port, cfg.Dashboard.Port),
		Out:  out,
	})
}

// dashboardPort prefers an explicit flag over the configured port.
func dashboardPort(flag, configured int) int {
	if flag > 0 {
		return flag
	}
	return configured
}
