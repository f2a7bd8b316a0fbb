package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskwire/taskwire/internal/api"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a bearer token for a user",
	Long: `Sign a bearer token for the given user with the server's JWT secret.

The secret must match the one the server was started with, so this is
normally run on the server host:

  TASKWIRE_JWT_SECRET=... tw token alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return fmt.Errorf("no JWT secret configured (set TASKWIRE_JWT_SECRET or jwt_secret in the config file)")
		}

		token, err := api.SignToken(cfg.JWTSecret, args[0])
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
