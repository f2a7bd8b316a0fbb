package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/taskwire/taskwire/internal/api"
	"github.com/taskwire/taskwire/internal/hub"
	"github.com/taskwire/taskwire/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the taskwire API and broadcast server",
	Long: `Start the HTTP API server with the websocket broadcast channel.

The server persists tasks and events to a local SQLite database and
broadcasts every create, update, and delete to connected watchers.

Endpoints:
  /api/tasks, /api/events    authenticated REST API
  /ws                        websocket broadcast channel
  /healthz                   health check
  /metrics                   Prometheus metrics

Example usage:
  tw serve                       # Listen on default :5000
  tw serve --addr :9000          # Listen on a custom address
  TASKWIRE_JWT_SECRET=... tw serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.ListenAddr = addr
		}
		if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
			cfg.DBPath = dbPath
		}
		if cfg.JWTSecret == "" {
			return fmt.Errorf("no JWT secret configured (set TASKWIRE_JWT_SECRET or jwt_secret in the config file)")
		}

		var logOut io.Writer = os.Stderr
		if cfg.LogFile != "" {
			logOut = io.MultiWriter(os.Stderr, &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
			})
		}
		logger := log.New(logOut, "[taskwire] ", log.LstdFlags)

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer st.Close()

		if err := st.InitSchema(cmd.Context()); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}

		h := hub.New(&hub.Config{
			AllowedOrigins: cfg.CORSOrigins,
			Logger:         logger,
		})
		h.Start()
		defer h.Stop()

		server := api.New(&api.Config{
			ListenAddr:  cfg.ListenAddr,
			JWTSecret:   cfg.JWTSecret,
			CORSOrigins: cfg.CORSOrigins,
			RateLimit:   cfg.RateLimit,
			RateBurst:   cfg.RateBurst,
			Logger:      logger,
		}, st, h)

		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}

		fmt.Printf("Taskwire server listening on http://%s\n", server.Addr())
		fmt.Printf("WebSocket endpoint: ws://%s/ws\n", server.Addr())
		fmt.Println("\nPress Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		<-ctx.Done()

		fmt.Println("\nShutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("error during shutdown: %w", err)
		}

		fmt.Println("Server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :5000)")
	serveCmd.Flags().String("db", "", "path to the SQLite database")

	rootCmd.AddCommand(serveCmd)
}
