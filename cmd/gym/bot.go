package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zulandar/gymyard/internal/chat"
	discordadapter "github.com/zulandar/gymyard/internal/chat/discord"
	slackadapter "github.com/zulandar/gymyard/internal/chat/slack"
	telegramadapter "github.com/zulandar/gymyard/internal/chat/telegram"
	"github.com/zulandar/gymyard/internal/config"
	"gorm.io/gorm"
)

func newBotCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the chat bot",
		Long:  "Connects to the configured chat platform and answers workout commands until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to gym config file")
	return cmd
}

func runBot(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer closeDB(out, gormDB)

	ctx, cancel := signalContext(out)
	defer cancel()

	return runDaemon(ctx, cfg, gormDB, out)
}

// runDaemon builds the configured adapter and runs the chat daemon until
// ctx is cancelled.
func runDaemon(ctx context.Context, cfg *config.Config, gormDB *gorm.DB, out io.Writer) error {
	adapter, err := createAdapter(cfg.Chat)
	if err != nil {
		return err
	}

	daemon, err := chat.NewDaemon(chat.DaemonOpts{
		DB:      gormDB,
		Config:  cfg.Chat,
		Adapter: adapter,
		Out:     out,
	})
	if err != nil {
		return err
	}
	return daemon.Run(ctx)
}

// createAdapter builds a platform adapter from the chat config.
func createAdapter(cfg config.ChatConfig) (chat.Adapter, error) {
	switch cfg.Platform {
	case "telegram":
		return telegramadapter.New(telegramadapter.AdapterOpts{
			Token:     cfg.Telegram.Token,
			ChannelID: cfg.Channel,
		})
	case "slack":
		return slackadapter.New(slackadapter.AdapterOpts{
			AppToken:  cfg.Slack.AppToken,
			BotToken:  cfg.Slack.BotToken,
			ChannelID: cfg.Channel,
		})
	case "discord":
		return discordadapter.New(discordadapter.AdapterOpts{
			BotToken:  cfg.Discord.BotToken,
			ChannelID: cfg.Channel,
		})
	case "":
		return nil, fmt.Errorf("chat: no platform configured (set chat.platform or BOT_TOKEN)")
	default:
		return nil, fmt.Errorf("chat: unsupported platform %q", cfg.Platform)
	}
}
