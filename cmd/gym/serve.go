package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/zulandar/gymyard/internal/dashboard"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat bot and the dashboard together",
		Long:  "Runs the chat daemon and the web dashboard in one process over a shared database pool. If either stops with an error, both shut down.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to gym config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "dashboard port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer closeDB(out, gormDB)

	ctx, cancel := signalContext(out)
	defer cancel()

	return serveAll(ctx,
		func(ctx context.Context) error {
			return runDaemon(ctx, cfg, gormDB, out)
		},
		func(ctx context.Context) error {
			return dashboard.Start(ctx, dashboard.StartOpts{
				DB:   gormDB,
				Port: dashboardPort(port, cfg.Dashboard.Port),
				Out:  out,
			})
		},
	)
}

// errBotStopped is returned by serve when the bot exits on its own, for
// example after the platform closed the connection.
var errBotStopped = errors.New("serve: chat bot stopped")

// serveAll runs bot and dash until one of them fails or ctx is cancelled.
// A bot that returns nil while ctx is still live counts as a failure so the
// dashboard is shut down with it.
func serveAll(ctx context.Context, bot, dash func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := bot(gctx); err != nil {
			return err
		}
		if gctx.Err() == nil {
			return errBotStopped
		}
		return nil
	})
	g.Go(func() error {
		return dash(gctx)
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
