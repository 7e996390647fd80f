package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/profiler/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for profiles, documents, answers, recommendations and notifications.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config and PORT)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "Apply pending database migrations on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if servePort != 0 {
		a.cfg.Port = servePort
	}

	if err := a.connect(ctx, serveMigrate); err != nil {
		return err
	}
	if a.watcher != nil {
		if err := a.watcher.Watch(ctx); err != nil {
			return fmt.Errorf("failed to watch profile template: %w", err)
		}
	}

	srv := server.New(server.Config{
		Addr:             a.cfg.Addr(),
		BatchConcurrency: a.cfg.Recommendations.Concurrency,
	}, a.services(), a.logger)

	return srv.Start(ctx)
}
