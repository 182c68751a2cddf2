package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, DefaultEvictionInterval, time.Duration(cfg.Rooms.EvictionInterval))
	assert.Equal(t, DefaultEvictionGrace, time.Duration(cfg.Rooms.EvictionGrace))
	assert.NoError(t, cfg.Validate())
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  allowed_origins:
    - http://app.example
    - http://staging.example
rooms:
  eviction_interval: 30s
  eviction_grace: 2m
`)

	cfg, err := LoadAndValidate(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"http://app.example", "http://staging.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 30*time.Second, time.Duration(cfg.Rooms.EvictionInterval))
	assert.Equal(t, 2*time.Minute, time.Duration(cfg.Rooms.EvictionGrace))
}

func TestLoadAppliesDefaultsForMissingFields(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
`)

	cfg, err := LoadAndValidate(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, DefaultEvictionInterval, time.Duration(cfg.Rooms.EvictionInterval))
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_ORIGIN", "http://env.example")

	path := writeConfig(t, `
server:
  allowed_origins:
    - ${TEST_ORIGIN}
`)

	cfg, err := LoadAndValidate(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://env.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfig(t, `
rooms:
  eviction_grace: soon
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults valid",
			mutate: func(*Config) {},
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "negative port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "server.port",
		},
		{
			name:    "empty origin entry",
			mutate:  func(c *Config) { c.Server.AllowedOrigins = []string{""} },
			wantErr: "allowed_origins",
		},
		{
			name:    "zero interval",
			mutate:  func(c *Config) { c.Rooms.EvictionInterval = 0 },
			wantErr: "eviction_interval",
		},
		{
			name:    "negative grace",
			mutate:  func(c *Config) { c.Rooms.EvictionGrace = Duration(-time.Minute) },
			wantErr: "eviction_grace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
