package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays values from the environment. Unset variables leave the
// current values alone.
func parseEnv(cfg *Config) error {
	return cleanenv.ReadEnv(cfg)
}
