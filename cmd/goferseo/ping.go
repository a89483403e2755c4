package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/goferseo/ping"
	"github.com/eringen/goferseo/sitemap"
)

// NewPingCmd creates the ping command.
func NewPingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Tell the configured search engines that the sitemap changed",
		RunE:  runPingCmd,
	}
	cmd.Flags().String("sitemap", "", "Sitemap URL to announce (default: the site's sitemap index)")
	return cmd
}

func runPingCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Ping.Enabled {
		return fmt.Errorf("ping is disabled in the configuration")
	}
	target, _ := cmd.Flags().GetString("sitemap")
	if target == "" {
		target = cfg.SitemapURL(sitemap.FamilyStandard)
	}

	n := ping.NewNotifier(cfg.Ping, target, ping.WithLogger(logger))
	n.Notify(target)
	n.Wait()
	fmt.Fprintf(cmd.OutOrStdout(), "pinged %d engines with %s\n", len(cfg.Ping.Targets), target)
	return nil
}
