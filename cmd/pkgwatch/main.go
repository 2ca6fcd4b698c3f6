package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/pkgwatch/internal/app"
	"github.com/bft-labs/pkgwatch/internal/cliconfig"
	"github.com/bft-labs/pkgwatch/pkg/log"
	"github.com/bft-labs/pkgwatch/pkg/observer"
)

const helpDescription = `
Watch a directory of package manifests and report every install, update,
removal and enable/disable as a package lifecycle state.

Each <package-id>.toml file in the directory is one installed package:

  version = "1.4.2"
  enabled = true

States are logged, and optionally published to NATS on <subject>.<state>
and counted on a Prometheus endpoint. Configure via file, env (PKGWATCH_*),
or flags.
`

var exampleUsage = strings.TrimSpace(`
  pkgwatch --dir /var/lib/pkgwatch/packages
  pkgwatch --dir ./packages --nats-url nats://localhost:4222 --metrics-addr :9464
  pkgwatch --config $HOME/.pkgwatch/config.toml --log-format json
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	fallback := log.NewConsoleLogger(os.Stderr)

	root := &cobra.Command{
		Use:           "pkgwatch",
		Short:         "Report package lifecycle changes from a manifest directory",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s (observer %s) %s/%s", getVersion(), observer.Version, runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.pkgwatch/config.toml), then env, then flags
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			} else if cfgPath != "" {
				return fmt.Errorf("config file %s not found", cfgPath)
			}

			// Environment overrides file config; flags override both
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			zl, err := cliconfig.NewLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}
			zl.Info().Interface("config", cfg).Msg("configuration")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d := app.NewDaemon(cfg, log.NewZerologAdapterWithLogger(zl))
			if err := d.Run(ctx); err != nil {
				return err
			}

			stats := d.Stats()
			zl.Info().
				Uint64("signals", stats.Signals).
				Uint64("delivered", stats.Delivered).
				Uint64("discarded", stats.Discarded).
				Msg("stopped")
			return nil
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.pkgwatch/config.toml)")
	root.Flags().StringVar(&cfg.Dir, "dir", cfg.Dir, "manifest directory to watch")
	root.Flags().DurationVar(&cfg.ReplaceWindow, "replace-window", cfg.ReplaceWindow, "how long a deleted manifest may take to reappear and count as an update")

	root.Flags().StringVar(&cfg.ShutdownPolicy, "shutdown-policy", cfg.ShutdownPolicy, "queued states on shutdown: drain or discard")
	root.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "maximum time to wait for pending deliveries on shutdown")

	root.Flags().StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "NATS server URL; publishing is disabled when empty")
	root.Flags().StringVar(&cfg.NATSSubject, "nats-subject", cfg.NATSSubject, "NATS subject prefix")
	root.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "listen address for Prometheus metrics (e.g. :9464); disabled when empty")

	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	root.Flags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: console or json")

	if err := root.Execute(); err != nil {
		fallback.Error().Err(err).Msg("pkgwatch")
		os.Exit(1)
	}
}
