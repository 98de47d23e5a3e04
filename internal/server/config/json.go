package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/bucketstore/internal/flagx"
	"github.com/dmitrijs2005/bucketstore/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept both "10s" strings and integer nanoseconds.
type JsonConfig struct {
	Environment      string         `json:"environment"`
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	DatabaseDSN      string         `json:"database_dsn"`
	StorageRoot      string         `json:"storage_root"`
	AllowedOrigins   []string       `json:"allowed_origins"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout"`
	MaxUploadBytes   int64          `json:"max_upload_bytes"`
}

// parseJson loads the file named by -c/-config (or $BUCKETSTORE_CONFIG) and
// copies every field it sets into config. No file means no changes.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if c.Environment != "" {
		env, err := ParseEnvironment(c.Environment)
		if err != nil {
			return err
		}
		config.Environment = env
	}
	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.StorageRoot != "" {
		config.StorageRoot = c.StorageRoot
	}
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.MaxUploadBytes != 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
	return nil
}
