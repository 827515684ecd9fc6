package config

import (
	"fmt"

	"github.com/vyrodovalexey/minapi/internal/util"
)

// validLogLevels are the accepted log level values.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats are the accepted log format values.
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks a loaded configuration. Violations are startup-fatal
// ConfigErrors; a validated configuration never produces
// configuration errors at request time.
func Validate(cfg *Config) error {
	if cfg == nil {
		return util.NewConfigError("", "configuration is nil")
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return util.NewConfigError("server.port",
			fmt.Sprintf("must be between 0 and 65535, got %d", cfg.Server.Port))
	}

	if cfg.Server.Workers < 1 {
		return util.NewConfigError("server.workers",
			fmt.Sprintf("must be at least 1, got %d", cfg.Server.Workers))
	}

	if t := cfg.Server.Timeouts; t != nil {
		if t.Read < 0 {
			return util.NewConfigError("server.timeouts.read", "must not be negative")
		}
		if t.Write < 0 {
			return util.NewConfigError("server.timeouts.write", "must not be negative")
		}
	}

	if cfg.Log.Level != "" && !validLogLevels[cfg.Log.Level] {
		return util.NewConfigError("log.level",
			fmt.Sprintf("unknown level %q", cfg.Log.Level))
	}

	if cfg.Log.Format != "" && !validLogFormats[cfg.Log.Format] {
		return util.NewConfigError("log.format",
			fmt.Sprintf("unknown format %q", cfg.Log.Format))
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return util.NewConfigError("metrics.port",
				fmt.Sprintf("must be between 1 and 65535, got %d", cfg.Metrics.Port))
		}
		if cfg.Metrics.Port == cfg.Server.Port {
			return util.NewConfigError("metrics.port",
				"must differ from server.port")
		}
	}

	return nil
}
