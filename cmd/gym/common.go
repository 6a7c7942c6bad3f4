package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/zulandar/gymyard/internal/config"
	"github.com/zulandar/gymyard/internal/db"
	"gorm.io/gorm"
)

const defaultConfigPath = "gym.yaml"

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	faint     = color.New(color.Faint)
)

// connectFromConfig loads the config file and opens the shared pool.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s database: %w", cfg.Database.Driver, err)
	}
	return cfg, gormDB, nil
}

// describeDatabase renders the target database for status lines.
func describeDatabase(c config.DatabaseConfig) string {
	if c.Driver == "sqlite" {
		return fmt.Sprintf("sqlite %s", c.Path)
	}
	return fmt.Sprintf("%s %s@%s:%d/%s", c.Driver, c.User, c.Host, c.Port, c.Name)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(out io.Writer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			warnColor.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// closeDB closes the pool, reporting failures without masking the
// command's own error.
func closeDB(out io.Writer, gormDB *gorm.DB) {
	if err := db.Close(gormDB); err != nil {
		warnColor.Fprintf(out, "⚠ close database: %v\n", err)
	}
}
