package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	tests := []struct {
		name        string
		args        []string
		expected    func() *Config
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-l", "127.0.0.1:8081", "-b", "redis", "-d", "db",
				"-R", "redis:6380", "-s", "secret", "-t", "1", "-r", "3", "-y", "48",
			},
			expected: func() *Config {
				c := base()
				c.EndpointAddrGRPC = "127.0.0.1:9090"
				c.EndpointAddrHTTP = "127.0.0.1:8081"
				c.StorageBackend = StorageRedis
				c.DatabaseDSN = "db"
				c.RedisAddr = "redis:6380"
				c.SecretKey = "secret"
				c.AccessTokenValidityDuration = 1 * time.Minute
				c.RefreshTokenValidityDuration = 3 * time.Minute
				c.TelegramRefreshTokenValidityDuration = 48 * time.Hour
				return c
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"-c", "cfg.json", "-x", "1", "-s", "k"},
			expected: func() *Config { c := base(); c.SecretKey = "k"; return c },
		},
		{
			name:        "bad integer panics",
			args:        []string{"-t", "fifteen"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := base()

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config, tt.args) })
				return
			}

			require.NotPanics(t, func() { parseFlags(config, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected(), config))
		})
	}
}

func TestParseFlags_KeepsSubMinuteDurationsWhenNotGiven(t *testing.T) {
	c := &Config{AccessTokenValidityDuration: 90 * time.Second}

	parseFlags(c, []string{"-s", "k"})

	assert.Equal(t, 90*time.Second, c.AccessTokenValidityDuration)
}
