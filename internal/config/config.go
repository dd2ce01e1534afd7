// Package config loads the engine's TOML configuration.
//
// Every field has a usable default; a missing config file yields a working
// single-node setup with the in-memory cache, no ledger, and no uploads.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Server configures the HTTP surface.
type Server struct {
	Bind string `toml:"bind"`
}

// SkribbleAPI configures specification fetches and postback notifications.
type SkribbleAPI struct {
	User           string `toml:"user"`
	Password       string `toml:"password"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// MediaAPI configures metadata and media retrieval.
type MediaAPI struct {
	BaseURL        string `toml:"base_url"`
	User           string `toml:"user"`
	Password       string `toml:"password"`
	VerifyHash     bool   `toml:"verify_hash"`
	VerifyMime     bool   `toml:"verify_mime"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Storage configures composite publishing. An empty bucket disables uploads.
type Storage struct {
	Bucket string `toml:"bucket"`
	Region string `toml:"region"`
}

// Cache configures the shared metadata store. An empty redis_addr keeps the
// store in process memory.
type Cache struct {
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisPrefix   string `toml:"redis_prefix"`
}

// Ledger configures run-history persistence. An empty mongo_uri disables it.
type Ledger struct {
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// Config encapsulates all configuration values for the engine.
type Config struct {
	Server      Server      `toml:"server"`
	SkribbleAPI SkribbleAPI `toml:"skribble_api"`
	MediaAPI    MediaAPI    `toml:"media_api"`
	Storage     Storage     `toml:"storage"`
	Cache       Cache       `toml:"cache"`
	Ledger      Ledger      `toml:"ledger"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Bind: ":8080",
		},
		SkribbleAPI: SkribbleAPI{
			TimeoutSeconds: 30,
		},
		MediaAPI: MediaAPI{
			VerifyHash:     true,
			TimeoutSeconds: 30,
		},
		Cache: Cache{
			RedisPrefix: "skramble",
		},
		Ledger: Ledger{
			MongoDatabase: "skramble",
		},
	}
}

// Load parses the configuration at path over the defaults. An empty path or
// a missing file returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Server.Bind == "" {
		return fmt.Errorf("server.bind must not be empty")
	}
	if c.SkribbleAPI.TimeoutSeconds < 0 || c.MediaAPI.TimeoutSeconds < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.Ledger.MongoURI != "" && c.Ledger.MongoDatabase == "" {
		return fmt.Errorf("ledger.mongo_database is required when mongo_uri is set")
	}
	return nil
}
