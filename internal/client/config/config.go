// Package config loads runtime configuration for the authorization CLI.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment variables AUTH_SERVER_ADDR and AUTH_REQUEST_TIMEOUT.
//  4. Global command-line flags, which must precede the subcommand.
//
// Supported flags
//
//	-a string   address:port of the server gRPC endpoint
//	-T int      per-request timeout, seconds
//
// JSON schema:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "5s"
//	}
package config

import "time"

// Config holds runtime settings for the CLI.
type Config struct {
	ServerEndpointAddr string        `env:"AUTH_SERVER_ADDR"`
	RequestTimeout     time.Duration `env:"AUTH_REQUEST_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 5 * time.Second
}

// LoadConfig builds a Config from args (without the program name) and
// returns it along with the arguments left after the global flags.
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, nil, err
	}
	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, err
	}
	return cfg, rest, nil
}
