package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (PKGWATCH_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("dir", os.Getenv("PKGWATCH_DIR"), &cfg.Dir)
	s.setString("shutdown-policy", os.Getenv("PKGWATCH_SHUTDOWN_POLICY"), &cfg.ShutdownPolicy)
	s.setString("nats-url", os.Getenv("PKGWATCH_NATS_URL"), &cfg.NATSURL)
	s.setString("nats-subject", os.Getenv("PKGWATCH_NATS_SUBJECT"), &cfg.NATSSubject)
	s.setString("metrics-addr", os.Getenv("PKGWATCH_METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", os.Getenv("PKGWATCH_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", os.Getenv("PKGWATCH_LOG_FORMAT"), &cfg.LogFormat)

	if err := s.setDuration("replace-window", os.Getenv("PKGWATCH_REPLACE_WINDOW"), &cfg.ReplaceWindow); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", os.Getenv("PKGWATCH_SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}

	return nil
}
