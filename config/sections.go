package config

import (
	"fmt"
	"time"
)

// ServerConfig holds the API listener settings.
type ServerConfig struct {
	// Addr is the host:port the API binds to.
	Addr string `json:"addr"`
	// CORSOrigins lists allowed browser origins.
	CORSOrigins []string `json:"cors_origins"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"https://*", "http://*"}
	}
}

func (c ServerConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	return nil
}

// StoreConfig selects and locates the snapshot store.
type StoreConfig struct {
	// Driver is "sqlite" or "memory".
	Driver string `json:"driver"`
	// Path is the sqlite database file. Ignored by the memory driver.
	Path string `json:"path"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.Path == "" {
		c.Path = "workforce.db"
	}
}

func (c StoreConfig) Validate() error {
	switch c.Driver {
	case "sqlite", "memory":
		return nil
	default:
		return fmt.Errorf("unknown store driver %q", c.Driver)
	}
}

// RefreshConfig controls the background snapshot refresher.
type RefreshConfig struct {
	// IntervalSeconds between reloads. Zero disables the refresher.
	IntervalSeconds int `json:"interval_seconds"`
}

func (c *RefreshConfig) SetDefaults() {
	if c.IntervalSeconds == 0 {
		c.IntervalSeconds = 300
	}
}

func (c RefreshConfig) Validate() error {
	if c.IntervalSeconds < 0 {
		return fmt.Errorf("refresh interval must not be negative")
	}
	return nil
}

// Interval returns the refresh period as a duration.
func (c RefreshConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `json:"level"`
	// Pretty switches to human-readable console output.
	Pretty bool `json:"pretty"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "trace", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("unknown log level %q", c.Level)
	}
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

func (c *MetricsConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":9090"
	}
}

func (c MetricsConfig) Validate() error {
	if c.Enabled && c.Addr == "" {
		return fmt.Errorf("metrics addr is required when metrics are enabled")
	}
	return nil
}

// AssignConfig tunes the assignment facade.
type AssignConfig struct {
	// MessageTTLSeconds bounds how long assignment status messages live.
	MessageTTLSeconds int `json:"message_ttl_seconds"`
}

func (c *AssignConfig) SetDefaults() {
	if c.MessageTTLSeconds == 0 {
		c.MessageTTLSeconds = 5
	}
}

func (c AssignConfig) Validate() error {
	if c.MessageTTLSeconds < 0 {
		return fmt.Errorf("assign message ttl must not be negative")
	}
	return nil
}

// TTL returns the status-message lifetime as a duration.
func (c AssignConfig) TTL() time.Duration {
	return time.Duration(c.MessageTTLSeconds) * time.Second
}
