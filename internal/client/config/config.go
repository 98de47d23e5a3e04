// Package config holds the settings of the bucket store command-line client.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/bucketstore/internal/timex"
)

const (
	EnvServerURL = "BUCKETSTORE_URL"
	EnvKeyID     = "BUCKETSTORE_KEY_ID"
	EnvSecret    = "BUCKETSTORE_SECRET"
)

// Config holds runtime settings for the client.
//
// Fields:
//   - ServerURL: base URL of the bucket store.
//   - KeyID / Secret: bucket credentials; the secret may be prompted for.
//   - Timeout: per request limit.
type Config struct {
	ServerURL string
	KeyID     string
	Secret    string
	Timeout   time.Duration
}

// JsonConfig is the on-disk shape of the client configuration file.
type JsonConfig struct {
	ServerURL string         `json:"server_url"`
	KeyID     string         `json:"key_id"`
	Secret    string         `json:"secret"`
	Timeout   timex.Duration `json:"timeout"`
}

// LoadDefaults points the client at a local development server.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:3001"
	c.Timeout = 30 * time.Second
}

// LoadConfig applies defaults, then the JSON file at path (if any), then
// environment variables. Command-line flags are bound on top by the caller.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, path); err != nil {
		return nil, err
	}
	parseEnv(cfg)
	return cfg, nil
}

func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	c := &JsonConfig{}
	if err := json.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if c.ServerURL != "" {
		cfg.ServerURL = c.ServerURL
	}
	if c.KeyID != "" {
		cfg.KeyID = c.KeyID
	}
	if c.Secret != "" {
		cfg.Secret = c.Secret
	}
	if c.Timeout.Duration != 0 {
		cfg.Timeout = c.Timeout.Duration
	}
	return nil
}

func parseEnv(cfg *Config) {
	if v := os.Getenv(EnvServerURL); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv(EnvKeyID); v != "" {
		cfg.KeyID = v
	}
	if v := os.Getenv(EnvSecret); v != "" {
		cfg.Secret = v
	}
}
