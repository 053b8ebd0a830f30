package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvSSID     = "STATUSLCD_SSID"
	EnvPSK      = "STATUSLCD_PSK"
	EnvListen   = "STATUSLCD_LISTEN"
	EnvDevMode  = "STATUSLCD_DEV"
	EnvStdioLog = "STATUSLCD_STDIO_LOG"
)

// ApplyEnv overrides file settings from the environment.
func ApplyEnv(cfg *Config) error {
	return applyEnv(cfg, os.Getenv)
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvSSID); v != "" {
		cfg.Network.Name = v
	}
	if v := getenv(EnvPSK); v != "" {
		cfg.Network.Credential = v
	}
	if v := getenv(EnvListen); v != "" {
		cfg.Web.Listen = v
	}
	if raw := getenv(EnvDevMode); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s must be a boolean (got %q): %w", EnvDevMode, raw, err)
		}
		cfg.Web.DevMode = parsed
	}
	return nil
}
