package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Dir             string `toml:"dir"`
	ReplaceWindow   string `toml:"replace_window"`
	ShutdownPolicy  string `toml:"shutdown_policy"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	NATSURL         string `toml:"nats_url"`
	NATSSubject     string `toml:"nats_subject"`
	MetricsAddr     string `toml:"metrics_addr"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.pkgwatch/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".pkgwatch", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("dir", fc.Dir, &cfg.Dir)
	s.setString("shutdown-policy", fc.ShutdownPolicy, &cfg.ShutdownPolicy)
	s.setString("nats-url", fc.NATSURL, &cfg.NATSURL)
	s.setString("nats-subject", fc.NATSSubject, &cfg.NATSSubject)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)

	if err := s.setDuration("replace-window", fc.ReplaceWindow, &cfg.ReplaceWindow); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
