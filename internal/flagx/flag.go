// Package flagx holds helpers for reading a handful of command-line flags
// before the main flag set is parsed.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// ConfigEnvVar names the environment variable consulted when no config flag is given.
const ConfigEnvVar = "BUCKETSTORE_CONFIG"

// FilterArgs keeps only the flags listed in allowedFlags together with their values.
//
// Both "-c conf.json" and "--config=conf.json" forms are understood. A token
// starting with "-" is never taken as the value of the preceding flag.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	kept := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, ok := allowed[name]; ok {
				kept = append(kept, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		kept = append(kept, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			kept = append(kept, args[i+1])
			i++
		}
	}

	return kept
}

// ConfigPath extracts the JSON config path given via -c or -config in args.
// When neither flag is present it falls back to $BUCKETSTORE_CONFIG, and
// returns "" if that is unset too. The last occurrence of the flag wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(nopWriter{})
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--c", "--config"}))

	if path == "" {
		path = os.Getenv(ConfigEnvVar)
	}
	return path
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
