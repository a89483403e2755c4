package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/goferseo/cache"
	"github.com/eringen/goferseo/robots"
)

// NewRobotsCmd creates the robots command.
func NewRobotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "robots",
		Short: "Print the robots.txt served to crawlers",
		RunE:  runRobotsCmd,
	}
	cmd.Flags().Bool("raw", false, "Print the host robots.txt without the configured rules")
	return cmd
}

func runRobotsCmd(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	raw, _ := cmd.Flags().GetBool("raw")

	b := robots.NewBuilder(cfg.Robots, robots.HostFile(cfg.Robots.HostFile), cache.NewMemory[string](), cfg.SitemapURLs()...)
	text, err := b.Build(cmd.Context(), !raw)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}
