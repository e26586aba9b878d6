package config

import (
	"fmt"
	"strconv"
)

// Environment variables that override file settings.
const (
	EnvHost  = "CHATNOVA_HOST"
	EnvPort  = "CHATNOVA_PORT"
	EnvDebug = "CHATNOVA_DEBUG"
)

// ApplyEnv overrides host, port and debug from the environment and resolves every
// provider's API key from its APIKeyEnv variable.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvHost); v != "" {
		cfg.Server.Host = v
	}
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		cfg.Server.Port = port
	}
	if v := getenv(EnvDebug); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDebug, v, err)
		}
		cfg.Debug = debug
	}
	for id, p := range cfg.Providers {
		if p.APIKeyEnv != "" {
			p.APIKey = getenv(p.APIKeyEnv)
			cfg.Providers[id] = p
		}
	}
	return nil
}
