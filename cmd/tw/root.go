package main

import (
	"github.com/spf13/cobra"

	"github.com/taskwire/taskwire/internal/config"
)

var (
	configFile string
	serverURL  string
	authToken  string
)

var rootCmd = &cobra.Command{
	Use:   "tw",
	Short: "Taskwire - shared task and event tracking with live updates",
	Long: `Taskwire keeps tasks and events for multiple users and broadcasts
every change to connected watchers over a websocket channel.

Run the server with 'tw serve', follow changes live with 'tw watch',
and manage records with 'tw task' and 'tw event'.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default .taskwire.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server base URL (default http://localhost:5000)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "bearer token for API requests")
}

// loadConfig reads configuration and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if authToken != "" {
		cfg.Token = authToken
	}
	return cfg, nil
}
