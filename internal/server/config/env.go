package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	envDatabaseURL    = "DATABASE_URL"
	envEnvironment    = "APP_ENVIRONMENT"
	envPort           = "PORT"
	envStoreRoot      = "STORE_ROOT"
	envAllowedOrigins = "ALLOWED_ORIGINS"
)

// loadDotEnv copies variables from path into the process environment.
// Variables already set win. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// parseEnv overlays the environment variables onto config.
//
// In production the bind address is 0.0.0.0:$PORT and PORT is required.
func parseEnv(config *Config) error {
	if v, ok := os.LookupEnv(envEnvironment); ok {
		env, err := ParseEnvironment(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envEnvironment, err)
		}
		config.Environment = env
	}

	if config.Production() {
		port, ok := os.LookupEnv(envPort)
		if !ok {
			return fmt.Errorf("%s must be set in production", envPort)
		}
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return fmt.Errorf("%s: invalid port %q", envPort, port)
		}
		config.EndpointAddrHTTP = net.JoinHostPort("0.0.0.0", port)
	}

	if v, ok := os.LookupEnv(envDatabaseURL); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv(envStoreRoot); ok && v != "" {
		config.StorageRoot = v
	}
	if v, ok := os.LookupEnv(envAllowedOrigins); ok {
		config.AllowedOrigins = splitList(v)
	}
	return nil
}
