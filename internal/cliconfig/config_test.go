package cliconfig

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bft-labs/pkgwatch/pkg/dispatch"
	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ReplaceWindow != 2*time.Second {
		t.Errorf("ReplaceWindow = %v, want 2s", cfg.ReplaceWindow)
	}
	if cfg.ShutdownPolicy != "drain" {
		t.Errorf("ShutdownPolicy = %v, want drain", cfg.ShutdownPolicy)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeout)
	}
	if cfg.NATSSubject != "pkgwatch" {
		t.Errorf("NATSSubject = %v, want pkgwatch", cfg.NATSSubject)
	}
	if cfg.NATSURL != "" || cfg.MetricsAddr != "" {
		t.Errorf("optional outputs enabled by default: nats=%q metrics=%q", cfg.NATSURL, cfg.MetricsAddr)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func(mod func(*Config)) Config {
		c := DefaultConfig()
		c.Dir = "/var/lib/pkgwatch/packages"
		if mod != nil {
			mod(&c)
		}
		return c
	}

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid minimal config", valid(nil), false},
		{"missing dir", valid(func(c *Config) { c.Dir = "" }), true},
		{"zero replace window", valid(func(c *Config) { c.ReplaceWindow = 0 }), true},
		{"negative shutdown timeout", valid(func(c *Config) { c.ShutdownTimeout = -time.Second }), true},
		{"discard policy", valid(func(c *Config) { c.ShutdownPolicy = "discard" }), false},
		{"mixed case policy", valid(func(c *Config) { c.ShutdownPolicy = " Drain " }), false},
		{"unknown policy", valid(func(c *Config) { c.ShutdownPolicy = "flush" }), true},
		{"json format", valid(func(c *Config) { c.LogFormat = "JSON" }), false},
		{"unknown format", valid(func(c *Config) { c.LogFormat = "xml" }), true},
		{"unknown level", valid(func(c *Config) { c.LogLevel = "loud" }), true},
		{"empty level", valid(func(c *Config) { c.LogLevel = "" }), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_Normalizes(t *testing.T) {
	c := DefaultConfig()
	c.Dir = "/packages"
	c.ShutdownPolicy = " Discard"
	c.NATSSubject = "fleet.device7."
	c.LogFormat = "JSON"

	if err := c.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c.ShutdownPolicy != "discard" {
		t.Errorf("ShutdownPolicy = %q, want discard", c.ShutdownPolicy)
	}
	if c.Policy() != dispatch.Discard {
		t.Errorf("Policy() = %v, want discard", c.Policy())
	}
	if c.NATSSubject != "fleet.device7" {
		t.Errorf("NATSSubject = %q, want fleet.device7", c.NATSSubject)
	}
	if c.LogFormat != LogFormatJSON {
		t.Errorf("LogFormat = %q, want json", c.LogFormat)
	}

	// An empty subject falls back to the default prefix
	c.NATSSubject = "."
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c.NATSSubject != "pkgwatch" {
		t.Errorf("NATSSubject = %q, want pkgwatch", c.NATSSubject)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"WARN", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"shout", zerolog.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.LogFormat = LogFormatJSON
	cfg.LogLevel = "warn"

	logger, err := NewLogger(cfg, &buf)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Info().Msg("hidden")
	logger.Warn().Str("package", "com.x").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"package":"com.x"`) {
		t.Errorf("json output missing field: %s", out)
	}

	cfg.LogLevel = "chatty"
	if _, err := NewLogger(cfg, &buf); err == nil {
		t.Error("NewLogger() expected error for unknown level")
	}
}
