package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spotmeta/internal/config"
)

func newInitConfigCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Create a config file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				path = config.GetDefaultConfigPath()
			}

			out := stdout(cmd)
			if _, err := os.Stat(path); err == nil && !force {
				fmt.Fprintf(out, "Config file already exists at: %s\n", path)
				fmt.Fprintln(out, "Use --force to overwrite it.")
				return nil
			}

			if err := config.SaveConfigFile(config.DefaultConfig(), path); err != nil {
				return fmt.Errorf("failed to create config file: %w", err)
			}

			fmt.Fprintf(out, "Created default config file at: %s\n", path)
			fmt.Fprintln(out, "\nAvailable options:")
			fmt.Fprintln(out, "  secret_provider: dotenv, colab, google_cloud")
			fmt.Fprintln(out, "  env_file: dotenv file path (dotenv provider)")
			fmt.Fprintln(out, "  gcp_project: project holding the secrets (google_cloud provider)")
			fmt.Fprintln(out, "  client_id_name / client_secret_name: secret names of the credentials")
			fmt.Fprintln(out, "  market: ISO 3166-1 country code for catalog lookups")
			fmt.Fprintln(out, "  confidence_threshold: 0.0-1.0, minimum match score for tagging")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
