package main

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/eringen/goferseo"
	"github.com/eringen/goferseo/scaffold"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file and host robots.txt",
		Long: `Init writes config.yaml and robots.txt into the directory of --config.

Examples:
  # Create the files under $XDG_CONFIG_HOME/goferseo
  goferseo init --name "My Blog" --url https://blog.example

  # Force overwrite existing files
  goferseo init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().String("name", "Site", "Site name")
	cmd.Flags().String("url", "http://localhost:3000", "Canonical site URL")
	cmd.Flags().BoolP("force", "f", false, "Overwrite existing files")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("name")
	siteURL, _ := cmd.Flags().GetString("url")
	force, _ := cmd.Flags().GetBool("force")

	created, err := scaffold.Write(scaffold.Data{
		SiteName: name,
		SiteURL:  siteURL,
		Dir:      filepath.Dir(path),
		DataDir:  filepath.Join(xdg.DataHome, goferseo.AppName),
	}, force)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range created {
		fmt.Fprintf(out, "  created %s\n", p)
	}
	fmt.Fprintln(out, "\nSet GOFERSEO_ADMIN_PASSWORD and GOFERSEO_SESSION_SECRET, then run 'goferseo serve'.")
	return nil
}
