package config

import (
	"fmt"
	"time"
)

// Default values applied by Load when the file leaves them unset.
const (
	DefaultBind    = "0.0.0.0"
	DefaultPort    = 8080
	DefaultWorkers = 4

	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

// Config is the root configuration for the server.
type Config struct {
	Server  Server        `yaml:"server" json:"server"`
	Log     Log           `yaml:"log,omitempty" json:"log,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// Server configures the TCP listener and the worker pool.
type Server struct {
	Bind     string    `yaml:"bind,omitempty" json:"bind,omitempty"`
	Port     int       `yaml:"port" json:"port"`
	Workers  int       `yaml:"workers,omitempty" json:"workers,omitempty"`
	Timeouts *Timeouts `yaml:"timeouts,omitempty" json:"timeouts,omitempty"`
}

// Timeouts contains per-socket deadline configuration. A stalled read
// blocks only the worker servicing that connection; deadlines bound
// how long.
type Timeouts struct {
	// Read is the maximum duration for reading one request, including
	// the body.
	Read Duration `yaml:"read,omitempty" json:"read,omitempty"`

	// Write is the maximum duration for writing the response.
	Write Duration `yaml:"write,omitempty" json:"write,omitempty"`
}

// GetEffectiveReadTimeout returns the effective read deadline.
func (t *Timeouts) GetEffectiveReadTimeout() time.Duration {
	if t == nil || t.Read == 0 {
		return DefaultReadTimeout
	}
	return t.Read.Duration()
}

// GetEffectiveWriteTimeout returns the effective write deadline.
func (t *Timeouts) GetEffectiveWriteTimeout() time.Duration {
	if t == nil || t.Write == 0 {
		return DefaultWriteTimeout
	}
	return t.Write.Duration()
}

// Address returns the listen address in host:port form.
func (s Server) Address() string {
	bind := s.Bind
	if bind == "" {
		bind = DefaultBind
	}
	return fmt.Sprintf("%s:%d", bind, s.Port)
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// MetricsConfig configures the optional Prometheus admin listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Bind    string `yaml:"bind,omitempty" json:"bind,omitempty"`
	Port    int    `yaml:"port,omitempty" json:"port,omitempty"`
}

// Address returns the admin listen address in host:port form.
func (m MetricsConfig) Address() string {
	bind := m.Bind
	if bind == "" {
		bind = DefaultBind
	}
	return fmt.Sprintf("%s:%d", bind, m.Port)
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Server: Server{
			Bind:    DefaultBind,
			Port:    DefaultPort,
			Workers: DefaultWorkers,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
	}
}

// applyDefaults fills unset fields with defaults. Port is left as-is:
// port 0 means an ephemeral port and is allowed.
func (c *Config) applyDefaults() {
	if c.Server.Bind == "" {
		c.Server.Bind = DefaultBind
	}
	if c.Server.Workers == 0 {
		c.Server.Workers = DefaultWorkers
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}
