// Package config provides YAML-based configuration loading for gymyard, with
// environment overrides for secrets and connection parameters.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config is the top-level gymyard configuration, loaded from gym.yaml.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Chat      ChatConfig      `yaml:"chat"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// DatabaseConfig holds connection settings for the relational store.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // mysql, postgres, sqlite
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	Path         string `yaml:"path"` // sqlite file path
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// ChatConfig selects and configures the chat platform adapter.
type ChatConfig struct {
	Platform string         `yaml:"platform"` // telegram, slack, discord
	Channel  string         `yaml:"channel"`  // channel for notices and digests
	Telegram TelegramConfig `yaml:"telegram"`
	Slack    SlackConfig    `yaml:"slack"`
	Discord  DiscordConfig  `yaml:"discord"`
	Digest   DigestConfig   `yaml:"digest"`
}

// TelegramConfig holds the Telegram Bot API token.
type TelegramConfig struct {
	Token string `yaml:"token"`
}

// SlackConfig holds Slack Socket Mode credentials.
type SlackConfig struct {
	AppToken string `yaml:"app_token"`
	BotToken string `yaml:"bot_token"`
}

// DiscordConfig holds the Discord bot token.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
}

// DigestConfig controls the periodic activity digest posted to Chat.Channel.
type DigestConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

// DashboardConfig holds web dashboard settings.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// Load reads a YAML config file from path, overlays environment variables,
// and returns a validated Config. A missing file is not an error: every
// setting can come from the environment instead.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return parse(data, os.Getenv)
}

// Parse unmarshals YAML bytes into a validated Config without consulting
// the environment.
func Parse(data []byte) (*Config, error) {
	return parse(data, func(string) string { return "" })
}

func parse(data []byte, getenv func(string) string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides file values with the environment variables the bot has
// always been deployed with.
func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: DB_PORT %q is not a number", v)
		}
		c.Database.Port = port
	}
	if v := getenv("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := getenv("DB_PASS"); v != "" {
		c.Database.Password = v
	}
	if v := getenv("DB_NAME"); v != "" {
		c.Database.Name = v
	}
	if v := getenv("BOT_TOKEN"); v != "" {
		switch c.Chat.Platform {
		case "", "telegram":
			c.Chat.Platform = "telegram"
			c.Chat.Telegram.Token = v
		case "discord":
			c.Chat.Discord.BotToken = v
		case "slack":
			c.Chat.Slack.BotToken = v
		}
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: PORT %q is not a number", v)
		}
		c.Dashboard.Port = port
	}
	return nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			c.Database.Path = "gym.db"
		}
	case "postgres":
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.User == "" {
			c.Database.User = "postgres"
		}
	default:
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Name == "" {
		c.Database.Name = "gymdb"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 7
	}
	if c.Chat.Digest.Cron == "" {
		c.Chat.Digest.Cron = "0 21 * * *"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not one of mysql, postgres, sqlite", c.Database.Driver))
	}
	if c.Database.MaxOpenConns < 0 {
		errs = append(errs, "database.max_open_conns must not be negative")
	}

	switch c.Chat.Platform {
	case "":
	case "telegram":
		if c.Chat.Telegram.Token == "" {
			errs = append(errs, "chat.telegram.token is required")
		}
	case "slack":
		if c.Chat.Slack.AppToken == "" {
			errs = append(errs, "chat.slack.app_token is required")
		}
		if c.Chat.Slack.BotToken == "" {
			errs = append(errs, "chat.slack.bot_token is required")
		}
	case "discord":
		if c.Chat.Discord.BotToken == "" {
			errs = append(errs, "chat.discord.bot_token is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("chat.platform %q is not one of telegram, slack, discord", c.Chat.Platform))
	}
	if c.Chat.Digest.Enabled {
		if _, err := cron.ParseStandard(c.Chat.Digest.Cron); err != nil {
			errs = append(errs, fmt.Sprintf("chat.digest.cron %q: %v", c.Chat.Digest.Cron, err))
		}
		if c.Chat.Channel == "" {
			errs = append(errs, "chat.channel is required when the digest is enabled")
		}
	}

	if c.Dashboard.Port < 0 || c.Dashboard.Port > 65535 {
		errs = append(errs, fmt.Sprintf("dashboard.port %d is out of range", c.Dashboard.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
