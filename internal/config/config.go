// Package config loads and exposes application configuration (TOML).
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath    = "config.toml"
	DefaultStoragePath   = "storage.json"
	DefaultSaveInterval  = 50
	DefaultTripLength    = 6
	DefaultKnownChance   = 0.4
	DefaultUnknownChance = 0.2
	DefaultSendPerSecond = 2.0
	DefaultSendBurst     = 5
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log        LogConfig        `toml:"log"`
	Bot        BotConfig        `toml:"bot"`
	Disclosure DisclosureConfig `toml:"disclosure"`
	Storage    StorageConfig    `toml:"storage"`
	Server     ServerConfig     `toml:"server"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// BotConfig holds the chat identity and channel connection parameters.
type BotConfig struct {
	Trigger      string `toml:"trigger"`
	Channel      string `toml:"channel"`
	Nick         string `toml:"nick"`
	Password     string `toml:"password"`
	OwnerTrip    string `toml:"owner_trip"`
	TripLength   int    `toml:"trip_length"`
	WebsocketURL string `toml:"websocket_url"`
}

// DisclosureConfig holds the passive-scan disclosure probabilities.
type DisclosureConfig struct {
	KnownChance   float64 `toml:"known_chance"`
	UnknownChance float64 `toml:"unknown_chance"`
}

// StorageConfig holds the storage file path and flush interval.
type StorageConfig struct {
	Path                string `toml:"path"`
	SaveIntervalSeconds int    `toml:"save_interval_seconds"`
}

// ServerConfig holds the ops HTTP listen address. Empty disables the server.
type ServerConfig struct {
	Addr          string  `toml:"addr"`
	SendPerSecond float64 `toml:"send_per_second"`
	SendBurst     int     `toml:"send_burst"`
}

// Load reads and parses the TOML config file at path and applies default
// values for missing fields. A missing or unreadable file is an error: the
// bot must not connect without its owner trip and channel identity.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Bot: BotConfig{
			TripLength: DefaultTripLength,
		},
		Disclosure: DisclosureConfig{
			KnownChance:   DefaultKnownChance,
			UnknownChance: DefaultUnknownChance,
		},
		Storage: StorageConfig{
			Path:                DefaultStoragePath,
			SaveIntervalSeconds: DefaultSaveInterval,
		},
		Server: ServerConfig{
			SendPerSecond: DefaultSendPerSecond,
			SendBurst:     DefaultSendBurst,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the fields the bot cannot run without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Bot.Trigger) == "" {
		return fmt.Errorf("bot.trigger is required")
	}
	if strings.TrimSpace(c.Bot.Channel) == "" {
		return fmt.Errorf("bot.channel is required")
	}
	if strings.TrimSpace(c.Bot.Nick) == "" {
		return fmt.Errorf("bot.nick is required")
	}
	if strings.TrimSpace(c.Bot.OwnerTrip) == "" {
		return fmt.Errorf("bot.owner_trip is required")
	}
	if strings.TrimSpace(c.Bot.WebsocketURL) == "" {
		return fmt.Errorf("bot.websocket_url is required")
	}
	if c.Bot.TripLength <= 0 {
		return fmt.Errorf("bot.trip_length must be positive, got %d", c.Bot.TripLength)
	}
	if c.Disclosure.KnownChance < 0 || c.Disclosure.KnownChance > 1 {
		return fmt.Errorf("disclosure.known_chance must be in [0,1], got %v", c.Disclosure.KnownChance)
	}
	if c.Disclosure.UnknownChance < 0 || c.Disclosure.UnknownChance > 1 {
		return fmt.Errorf("disclosure.unknown_chance must be in [0,1], got %v", c.Disclosure.UnknownChance)
	}
	if c.Storage.SaveIntervalSeconds <= 0 {
		return fmt.Errorf("storage.save_interval_seconds must be positive, got %d", c.Storage.SaveIntervalSeconds)
	}
	return nil
}
