// Package cli implements the bucketstore command-line client.
package cli

import (
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/bucketstore/internal/client/client"
	"github.com/dmitrijs2005/bucketstore/internal/client/config"
	"github.com/spf13/cobra"
)

// EnvConfigPath names the client config file when --config is not given.
const EnvConfigPath = "BUCKETSTORE_CLIENT_CONFIG"

type App struct {
	cfg    *config.Config
	client *client.Client
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	server     string
	keyID      string
	secret     string
	timeout    time.Duration
}

// NewRootCmd builds the command tree. in is used for secret prompts.
func NewRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &App{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "bucketstore",
		Short: "Client for the bucketstore file server",
		Long: `Client for the bucketstore file server.

Every key owns one bucket. Files uploaded with a key are visible only
through that key; identical content is stored once on the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", os.Getenv(EnvConfigPath), "path to JSON config file")
	pf.StringVarP(&a.server, "server", "s", "", "server base URL")
	pf.StringVar(&a.keyID, "key-id", "", "bucket key id")
	pf.StringVar(&a.secret, "secret", "", "bucket key secret (prompted for when empty)")
	pf.DurationVar(&a.timeout, "timeout", 0, "request timeout")

	root.AddCommand(a.keyCmd(), a.uploadKeyCmd(), a.uploadCmd(), a.downloadCmd(), a.deleteCmd())
	return root
}

// setup loads the config file and environment, then applies explicit flags.
func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL = a.server
	}
	if flags.Changed("key-id") {
		cfg.KeyID = a.keyID
	}
	if flags.Changed("secret") {
		cfg.Secret = a.secret
	}
	if flags.Changed("timeout") {
		cfg.Timeout = a.timeout
	}

	c, err := client.New(cfg.ServerURL, cfg.Timeout)
	if err != nil {
		return err
	}
	a.cfg, a.client = cfg, c
	return nil
}
