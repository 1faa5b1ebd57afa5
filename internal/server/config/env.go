package config

import "github.com/caarlos0/env/v11"

// EnvPrefix is prepended to every variable name in the Config env tags,
// e.g. OTPAUTH_DATABASE_DSN.
const EnvPrefix = "OTPAUTH_"

// parseEnv overlays Config with values from OTPAUTH_* environment variables.
// Unset variables leave the current value untouched; malformed values panic,
// like malformed JSON or flags do.
func parseEnv(config *Config) {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
