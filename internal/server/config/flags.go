package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/kontur-authorization/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g. ":50051")
//	-l string   HTTP bind address (e.g. ":8080")
//	-b string   storage backend: postgres, redis or memory
//	-d string   PostgreSQL DSN
//	-R string   redis address
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      standard refresh token validity, minutes
//	-y int      Telegram refresh token validity, hours
//
// Flags the server does not own are filtered out first, so -c/-config and
// anything else on the command line do not cause a parse error.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-l", "-b", "-d", "-R", "-s", "-t", "-r", "-y"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "l", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.StorageBackend, "b", config.StorageBackend, "storage backend (postgres|redis|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "R", config.RedisAddr, "redis address")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	access := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refresh := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")
	telegram := fs.Int("y", int(config.TelegramRefreshTokenValidityDuration.Hours()), "telegram refresh token validity (in hours)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// durations are only touched when given, so finer values from JSON or env survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*access) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refresh) * time.Minute
		case "y":
			config.TelegramRefreshTokenValidityDuration = time.Duration(*telegram) * time.Hour
		}
	})
}
