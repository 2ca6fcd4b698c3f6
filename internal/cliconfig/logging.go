package cliconfig

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bft-labs/pkgwatch/pkg/log"
)

// ParseLevel maps a level name to a zerolog level. An empty name is info.
func ParseLevel(name string) (zerolog.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("parse log level: %w", err)
	}
	if lvl == zerolog.NoLevel {
		return zerolog.InfoLevel, fmt.Errorf("parse log level: %q is not a level", name)
	}
	return lvl, nil
}

// NewLogger builds the process logger writing to w. Console output is human
// readable; json emits one object per line.
func NewLogger(cfg Config, w io.Writer) (zerolog.Logger, error) {
	lvl, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Nop(), err
	}

	if cfg.LogFormat == LogFormatJSON {
		return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
	}
	return log.NewConsoleLogger(w).Level(lvl), nil
}
