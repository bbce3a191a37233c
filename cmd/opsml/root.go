package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "opsml",
	Short: "Registry and artifact store for versioned ML cards",
	Long: `opsml is a registry server for versioned ML artifacts.

It records data, model, run, pipeline, audit and project cards in a
relational registry, assigns semantic versions per (name, team) pair,
and moves artifact bytes through pluggable storage backends (local
filesystem, S3, GCS, or another opsml server in proxy mode).

Quick start:
  opsml init      # Write a starter configuration file
  opsml serve     # Start the registry server`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "opsml.yaml", "config file path")
}
