package main

import (
	"strings"
	"testing"

	discordadapter "github.com/zulandar/gymyard/internal/chat/discord"
	slackadapter "github.com/zulandar/gymyard/internal/chat/slack"
	telegramadapter "github.com/zulandar/gymyard/internal/chat/telegram"
	"github.com/zulandar/gymyard/internal/config"
)

func TestCreateAdapter(t *testing.T) {
	var cfg config.ChatConfig
	cfg.Channel = "C1"
	cfg.Telegram.Token = "123:abc"
	cfg.Slack.AppToken = "xapp-1"
	cfg.Slack.BotToken = "xoxb-1"
	cfg.Discord.BotToken = "discord-token"

	cfg.Platform = "telegram"
	a, err := createAdapter(cfg)
	if err != nil {
		t.Fatalf("telegram: %v", err)
	}
	if _, ok := a.(*telegramadapter.Adapter); !ok {
		t.Errorf("telegram adapter type = %T", a)
	}

	cfg.Platform = "slack"
	a, err = createAdapter(cfg)
	if err != nil {
		t.Fatalf("slack: %v", err)
	}
	if _, ok := a.(*slackadapter.Adapter); !ok {
		t.Errorf("slack adapter type = %T", a)
	}

	cfg.Platform = "discord"
	a, err = createAdapter(cfg)
	if err != nil {
		t.Fatalf("discord: %v", err)
	}
	if _, ok := a.(*discordadapter.Adapter); !ok {
		t.Errorf("discord adapter type = %T", a)
	}
}

func TestCreateAdapter_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ChatConfig
		want string
	}{
		{"no platform", config.ChatConfig{}, "no platform configured"},
		{"unknown", config.ChatConfig{Platform: "irc"}, `unsupported platform "irc"`},
		{"telegram without token", config.ChatConfig{Platform: "telegram"}, "bot token is required"},
		{"slack without tokens", config.ChatConfig{Platform: "slack"}, "bot token is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := createAdapter(tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestBotCmd_NoPlatform(t *testing.T) {
	path := writeSQLiteConfig(t, "")

	_, err := runCmd(t, "bot", "-c", path)
	if err == nil || !strings.Contains(err.Error(), "no platform configured") {
		t.Fatalf("err = %v, want no platform error", err)
	}
}

func TestBotCmd_MissingToken(t *testing.T) {
	path := writeSQLiteConfig(t, "chat:\n  platform: discord\n")

	_, err := runCmd(t, "bot", "-c", path)
	if err == nil || !strings.Contains(err.Error(), "chat.discord.bot_token is required") {
		t.Fatalf("err = %v, want config validation error", err)
	}
}
