package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/runebook/runebook/internal/config"
	"github.com/runebook/runebook/internal/lessons"
	"github.com/runebook/runebook/internal/sandbox"
	"github.com/runebook/runebook/internal/server"
	"github.com/runebook/runebook/internal/storage/sqlite"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Runebook web server",
	Long: `Start the Runebook HTTP server with REST API and WebSocket support.

The web UI is available at the root URL. API endpoints are under /api.

Examples:
  runebook serve
  runebook serve --port 9090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Load the lesson catalog
	catalog, err := lessons.Load(cfg.Lessons.Dir)
	if err != nil {
		return fmt.Errorf("loading lessons: %w", err)
	}
	log.Printf("Lessons: %d loaded from %s", catalog.Len(), cfg.Lessons.Dir)

	// Open storage
	store, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	// Build the bounded execution sandbox
	sb, err := sandbox.New(cfg.SandboxConfig())
	if err != nil {
		return fmt.Errorf("configuring sandbox: %w", err)
	}
	pool := sandbox.NewPool(sb, cfg.Sandbox.MaxConcurrent)
	log.Printf("Sandbox: %s runtime, %d concurrent executions max", cfg.Sandbox.Runtime, pool.Cap())

	// Determine port
	port := cfg.Server.Port
	if portFlag > 0 {
		port = portFlag
	}

	// Create and start server
	srv := server.New(cfg, catalog, store, pool)

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		srv.Shutdown(context.Background())
	}()

	return srv.Start(port)
}
