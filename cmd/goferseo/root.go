package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/eringen/goferseo"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goferseo",
		Short: "Sitemaps, robots.txt and crawler blocking for a SQLite-backed site",
		Long: `goferseo serves paginated XML sitemaps, merges its own rules into the
site's robots.txt, blocks bad crawlers and pings search engines when
content is published.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", goferseo.DefaultConfigPath(), "Configuration file")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewRobotsCmd())
	cmd.AddCommand(NewPingCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the --config file, normalizes it and writes corrected
// values back. A missing file yields the defaults.
func loadConfig(cmd *cobra.Command) (goferseo.SiteConfig, *slog.Logger, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return goferseo.SiteConfig{}, nil, err
	}
	cfg, err := goferseo.LoadConfigFile(path)
	missing := errors.Is(err, goferseo.ErrConfigNotFound)
	if err != nil && !missing {
		return cfg, nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	logger, _ := goferseo.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if missing {
		logger.Warn("configuration file not found, using defaults", "path", path)
	}

	if cfg.Normalize() && !missing {
		if err := goferseo.SaveConfigFile(path, cfg); err != nil {
			logger.Warn("persist normalized configuration", "path", path, "error", err)
		} else {
			logger.Info("out of range configuration values were reset", "path", path)
		}
	}
	return cfg, logger, nil
}
