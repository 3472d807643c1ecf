package main

import (
	"github.com/spf13/cobra"

	"github.com/sablepay/coffee-pos/pkg/app"
	"github.com/sablepay/coffee-pos/pkg/web"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the storefront API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return app.Run(web.NewApp(), app.WithConfigPath(configPath))
		},
	}

	cmd.Flags().StringP("config", "c", "config.yaml", "Path to the YAML config file")

	return cmd
}
