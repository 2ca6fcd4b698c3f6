package cliconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/pkgwatch/pkg/dispatch"
	"github.com/bft-labs/pkgwatch/plugins/natssink"
)

// Log formats accepted by --log-format.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Config holds CLI configuration for pkgwatch.
type Config struct {
	// Dir is the manifest directory watched for package changes.
	Dir           string
	ReplaceWindow time.Duration

	ShutdownPolicy  string
	ShutdownTimeout time.Duration

	// NATSURL enables the NATS sink when non-empty.
	NATSURL     string
	NATSSubject string

	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr string

	LogLevel  string
	LogFormat string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ReplaceWindow:   2 * time.Second,
		ShutdownPolicy:  dispatch.Drain.String(),
		ShutdownTimeout: 5 * time.Second,
		NATSSubject:     natssink.DefaultPrefix,
		LogLevel:        "info",
		LogFormat:       LogFormatConsole,
	}
}

// Validate checks the configuration for errors and normalizes values.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("dir is required")
	}

	if c.ReplaceWindow <= 0 {
		return fmt.Errorf("replace window must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}

	c.ShutdownPolicy = strings.ToLower(strings.TrimSpace(c.ShutdownPolicy))
	if _, err := dispatch.ParsePolicy(c.ShutdownPolicy); err != nil {
		return err
	}

	c.NATSSubject = strings.Trim(c.NATSSubject, ".")
	if c.NATSSubject == "" {
		c.NATSSubject = natssink.DefaultPrefix
	}

	c.LogFormat = strings.ToLower(c.LogFormat)
	if c.LogFormat != LogFormatConsole && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("log format must be %q or %q, got %q", LogFormatConsole, LogFormatJSON, c.LogFormat)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// Policy returns the parsed shutdown policy. Call after Validate.
func (c Config) Policy() dispatch.Policy {
	p, err := dispatch.ParsePolicy(c.ShutdownPolicy)
	if err != nil {
		return dispatch.Drain
	}
	return p
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}
