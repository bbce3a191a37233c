package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsml/opsml/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithFallback(cfgFile)
		if err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}
		fmt.Println("Configuration valid")
		fmt.Printf("  Storage:  %s (%s)\n", cfg.Storage.URI, cfg.Storage.Backend)
		fmt.Printf("  Database: %s\n", cfg.Database.DSN)
		fmt.Printf("  Registry: %s mode\n", cfg.Registry.Mode)
		fmt.Printf("  Listen:   %s\n", cfg.Server.Addr())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
