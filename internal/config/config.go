package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for optional configuration fields.
const (
	DefaultPort             = 4000
	DefaultEvictionInterval = time.Minute
	DefaultEvictionGrace    = 5 * time.Minute
)

// Config is the root server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Rooms  RoomsConfig  `yaml:"rooms"`
}

// ServerConfig holds the listen port and the origins allowed through
// the CORS middleware and the websocket handshake.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RoomsConfig tunes the empty-room eviction sweep.
type RoomsConfig struct {
	EvictionInterval Duration `yaml:"eviction_interval"`
	EvictionGrace    Duration `yaml:"eviction_grace"`
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "90s" or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"5m\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns a fully defaulted configuration, used when no config
// file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Rooms.EvictionInterval == 0 {
		c.Rooms.EvictionInterval = Duration(DefaultEvictionInterval)
	}
	if c.Rooms.EvictionGrace == 0 {
		c.Rooms.EvictionGrace = Duration(DefaultEvictionGrace)
	}
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	for _, origin := range c.Server.AllowedOrigins {
		if origin == "" {
			return fmt.Errorf("server.allowed_origins must not contain empty entries")
		}
	}
	if c.Rooms.EvictionInterval <= 0 {
		return fmt.Errorf("rooms.eviction_interval must be positive")
	}
	if c.Rooms.EvictionGrace < 0 {
		return fmt.Errorf("rooms.eviction_grace must not be negative")
	}
	return nil
}
