package config

import (
	"fmt"
	"time"
)

// Config represents the persistent folio configuration stored as config.toml
// in the .folio/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Client  ClientConfig  `toml:"client"`
	Chat    ChatConfig    `toml:"chat"`
	Storage StorageConfig `toml:"storage"`
	Preview PreviewConfig `toml:"preview"`
	MCP     MCPConfig     `toml:"mcp"`
	Events  EventsConfig  `toml:"events"`
}

// ClientConfig holds settings for commands that talk to the portfolio
// backend (e.g. folio chat, folio profile, folio session).
// APITarget is a full URL (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
	APIPrefix string `toml:"api_prefix,omitempty"`

	// Timeout is a Go duration string bounding a whole request, streamed
	// replies included.
	Timeout string `toml:"timeout,omitempty"`
}

// ChatConfig holds chat presentation settings.
type ChatConfig struct {
	// Subject is the name the greeting introduces the assistant on behalf of.
	Subject string `toml:"subject,omitempty"`
}

// StorageConfig holds transcript storage settings.
// When both are empty transcripts are kept in memory.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// PreviewConfig holds the local preview server settings.
type PreviewConfig struct {
	Listen      string `toml:"listen,omitempty"`
	ProfilePath string `toml:"profile_path,omitempty"`
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EventsConfig holds exchange event publishing settings.
// Publishing is disabled while KafkaBrokers is empty.
type EventsConfig struct {
	// KafkaBrokers is a comma-separated list of host:port seed brokers.
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string `toml:"kafka_topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"client.api_prefix": {
		get: func(c *Config) string { return c.Client.APIPrefix },
		set: func(c *Config, v string) error { c.Client.APIPrefix = v; return nil },
	},
	"client.timeout": {
		get: func(c *Config) string { return c.Client.Timeout },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid value for client.timeout: %w", err)
			}
			if d < 0 {
				return fmt.Errorf("invalid value for client.timeout: %s is negative", v)
			}
			c.Client.Timeout = v
			return nil
		},
	},
	"chat.subject": {
		get: func(c *Config) string { return c.Chat.Subject },
		set: func(c *Config, v string) error { c.Chat.Subject = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"preview.listen": {
		get: func(c *Config) string { return c.Preview.Listen },
		set: func(c *Config, v string) error { c.Preview.Listen = v; return nil },
	},
	"preview.profile_path": {
		get: func(c *Config) string { return c.Preview.ProfilePath },
		set: func(c *Config, v string) error { c.Preview.ProfilePath = v; return nil },
	},
	"mcp.listen": {
		get: func(c *Config) string { return c.MCP.Listen },
		set: func(c *Config, v string) error { c.MCP.Listen = v; return nil },
	},
	"events.kafka_brokers": {
		get: func(c *Config) string { return c.Events.KafkaBrokers },
		set: func(c *Config, v string) error { c.Events.KafkaBrokers = v; return nil },
	},
	"events.kafka_topic": {
		get: func(c *Config) string { return c.Events.KafkaTopic },
		set: func(c *Config, v string) error { c.Events.KafkaTopic = v; return nil },
	},
}
