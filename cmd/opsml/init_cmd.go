package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsml/opsml/adapters/hasher"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Initialize opsml with a starter configuration file.

Examples:
  opsml init
  opsml init --storage /var/lib/opsml/artifacts
  opsml init --token my-secret-token`,
	RunE: runInit,
}

var (
	initStorage  string
	initDatabase string
	initToken    string
	initForce    bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initStorage, "storage", "./opsml-artifacts", "artifact storage directory")
	initCmd.Flags().StringVar(&initDatabase, "database", "opsml.db", "registry database path")
	initCmd.Flags().StringVar(&initToken, "token", "", "enable auth with this bearer token")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgFile); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgFile)
	}

	authBlock := "auth:\n  enabled: false\n"
	if initToken != "" {
		hash, err := hasher.NewBcrypt(0).Hash(initToken)
		if err != nil {
			return fmt.Errorf("hash token: %w", err)
		}
		authBlock = fmt.Sprintf("auth:\n  enabled: true\n  token_hash: %q\n", hash)
	}

	content := fmt.Sprintf(`server:
  host: 0.0.0.0
  port: 8080

database:
  dsn: %s

storage:
  backend: local
  uri: %s

registry:
  mode: local

%s
logging:
  level: info
  format: json

metrics:
  enabled: true
`, initDatabase, initStorage, authBlock)

	if err := os.WriteFile(cfgFile, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", cfgFile)
	fmt.Println("Start the server with: opsml serve")
	return nil
}
