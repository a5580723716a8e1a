package main

import (
	"github.com/spf13/cobra"

	"github.com/feescope/feescope/internal/config"
	"github.com/feescope/feescope/internal/logging"
	"github.com/feescope/feescope/internal/server"
)

var serveHost string

func init() {
	serveCmd.Flags().StringVar(
		&serveHost,
		"host",
		"",
		"Listen address (default: config http_host, 127.0.0.1:8000)",
	)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve exported datasets and metadata over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveHost != "" {
			config.HTTPHost = serveHost
		}

		api, err := server.NewApiHandler(config.DatasetsPath)
		if err != nil {
			return err
		}
		logging.L.Info().Str("host", config.HTTPHost).Msg("serving datasets")
		server.RunServer(api)
		return nil
	},
}
