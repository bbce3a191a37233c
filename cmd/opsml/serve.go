package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsml/opsml/bootstrap"
	"github.com/opsml/opsml/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the registry server",
	Long: `Start the opsml registry server.

Configuration comes from opsml.yaml (or --config), with OPSML_*
environment variables taking precedence. With no config file at all,
the server runs from environment variables alone.

Environment variables:
  OPSML_STORAGE_URI      - Storage location (directory, s3://..., gs://...)
  OPSML_STORAGE_BACKEND  - Backend: local, s3, gcs or api
  OPSML_DATABASE_DSN     - Registry database path (default: opsml.db)
  OPSML_SERVER_PORT      - Listen port (default: 8080)
  OPSML_LOG_LEVEL        - Log level: debug, info, warn, error

Examples:
  opsml serve
  opsml serve --config /etc/opsml/config.yaml
  OPSML_STORAGE_URI=s3://artifacts/opsml opsml serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) && !config.HasEnvConfig() {
		return fmt.Errorf("no configuration found: create %s with 'opsml init' or set OPSML_* environment variables", cfgFile)
	}

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	app, err := bootstrap.New(*cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	return app.Run()
}
