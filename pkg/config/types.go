package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent heirloom configuration stored as
// config.toml in the .heirloom/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Storage StorageConfig `toml:"storage"`
	Vault   VaultConfig   `toml:"vault"`
	Extract ExtractConfig `toml:"extract"`
	API     APIConfig     `toml:"api"`
	Client  ClientConfig  `toml:"client"`
	Events  EventsConfig  `toml:"events"`
}

// StorageConfig selects the local vault driver used when no remote vault
// target is configured.
type StorageConfig struct {
	Driver     string `toml:"driver,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// VaultConfig holds settings for the remote vault service.
type VaultConfig struct {
	Target string `toml:"target,omitempty"`
}

// ExtractConfig holds model provider settings for signal extraction.
// API keys are never persisted here; they come from the environment.
type ExtractConfig struct {
	Provider  string `toml:"provider,omitempty"`
	Model     string `toml:"model,omitempty"`
	Target    string `toml:"target,omitempty"`
	BatchSize uint   `toml:"batch_size,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to the running
// API server. Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// EventsConfig holds event stream settings for memory-persisted events.
type EventsConfig struct {
	Enabled bool   `toml:"enabled,omitempty"`
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.driver": {
		get: func(c *Config) string { return c.Storage.Driver },
		set: func(c *Config, v string) error { c.Storage.Driver = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"vault.target": {
		get: func(c *Config) string { return c.Vault.Target },
		set: func(c *Config, v string) error { c.Vault.Target = v; return nil },
	},
	"extract.provider": {
		get: func(c *Config) string { return c.Extract.Provider },
		set: func(c *Config, v string) error { c.Extract.Provider = v; return nil },
	},
	"extract.model": {
		get: func(c *Config) string { return c.Extract.Model },
		set: func(c *Config, v string) error { c.Extract.Model = v; return nil },
	},
	"extract.target": {
		get: func(c *Config) string { return c.Extract.Target },
		set: func(c *Config, v string) error { c.Extract.Target = v; return nil },
	},
	"extract.batch_size": {
		get: func(c *Config) string {
			if c.Extract.BatchSize == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Extract.BatchSize), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for extract.batch_size: %w", err)
			}
			c.Extract.BatchSize = uint(n)
			return nil
		},
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"events.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Events.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for events.enabled: %w", err)
			}
			c.Events.Enabled = b
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
