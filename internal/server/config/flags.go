package config

import (
	"flag"
	"io"
	"strings"

	"github.com/dmitrijs2005/bucketstore/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g., "127.0.0.1:3001")
//	-d string     PostgreSQL DSN
//	-s string     storage root directory
//	-e string     environment: development or production
//	-o string     comma separated CORS origins
//	-t duration   shutdown timeout (e.g., "15s")
//	-m int        upload body limit in bytes, 0 for none
//
// Unknown flags are filtered out first so other components can share args.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-e", "-o", "-t", "-m"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	env := string(config.Environment)
	origins := strings.Join(config.AllowedOrigins, ",")

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.StorageRoot, "s", config.StorageRoot, "storage root directory")
	fs.StringVar(&env, "e", env, "environment (development|production)")
	fs.StringVar(&origins, "o", origins, "allowed CORS origins, comma separated")
	fs.DurationVar(&config.ShutdownTimeout, "t", config.ShutdownTimeout, "shutdown timeout")
	fs.Int64Var(&config.MaxUploadBytes, "m", config.MaxUploadBytes, "upload body limit in bytes")

	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := ParseEnvironment(env)
	if err != nil {
		return err
	}
	config.Environment = e
	config.AllowedOrigins = splitList(origins)
	return nil
}
