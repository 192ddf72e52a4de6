package config

import (
	"flag"
	"io"
	"time"
)

// parseFlags reads the global flags and returns the remaining arguments,
// starting with the subcommand.
func parseFlags(cfg *Config, args []string) ([]string, error) {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configFile string
	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	timeout := fs.Int("T", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&configFile, "c", "", "path to JSON config file (short)")
	fs.StringVar(&configFile, "config", "", "path to JSON config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "T" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})

	return fs.Args(), nil
}
