package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/kontur-authorization/internal/flagx"
	"github.com/dmitrijs2005/kontur-authorization/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations are
// timex.Duration so both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	ServiceName                          string         `json:"service_name"`
	Environment                          string         `json:"environment"`
	LogLevel                             string         `json:"log_level"`
	EndpointAddrHTTP                     string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC                     string         `json:"endpoint_addr_grpc"`
	Prefix                               string         `json:"prefix"`
	Domain                               string         `json:"domain"`
	StorageBackend                       string         `json:"storage_backend"`
	DatabaseDSN                          string         `json:"database_dsn"`
	RedisAddr                            string         `json:"redis_addr"`
	RedisPassword                        string         `json:"redis_password"`
	RedisDB                              *int           `json:"redis_db"`
	RedisKeyPrefix                       string         `json:"redis_key_prefix"`
	SecretKey                            string         `json:"secret_key"`
	AccessTokenValidityDuration          timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration         timex.Duration `json:"refresh_token_validity_duration"`
	TelegramRefreshTokenValidityDuration timex.Duration `json:"telegram_refresh_token_validity_duration"`
	OTLPEndpoint                         string         `json:"otlp_endpoint"`
}

// parseJson loads the file named by -c/-config, if any, and copies every
// field present in it onto config. Unreadable or invalid files panic.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.ServiceName, c.ServiceName)
	setString(&config.Environment, c.Environment)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.Prefix, c.Prefix)
	setString(&config.Domain, c.Domain)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setString(&config.RedisKeyPrefix, c.RedisKeyPrefix)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.OTLPEndpoint, c.OTLPEndpoint)

	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.TelegramRefreshTokenValidityDuration.Duration != 0 {
		config.TelegramRefreshTokenValidityDuration = c.TelegramRefreshTokenValidityDuration.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
