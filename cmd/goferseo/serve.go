package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/goferseo"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Serve sitemaps, robots.txt and the admin API.

The admin password and session secret are read from
GOFERSEO_ADMIN_PASSWORD and GOFERSEO_SESSION_SECRET.`,
		RunE: runServeCmd,
	}
	cmd.Flags().String("addr", "", "Listen address; overrides the config")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}
	cfg.AdminPassword = goferseo.EnvOr("GOFERSEO_ADMIN_PASSWORD", "")
	cfg.SessionSecret = goferseo.EnvOr("GOFERSEO_SESSION_SECRET", "")

	app := goferseo.New(cfg, goferseo.WithLogger(logger))
	defer app.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Echo.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-errc
}
