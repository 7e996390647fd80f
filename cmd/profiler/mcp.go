package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/jonathan/profiler/internal/mcpserver"
	"github.com/jonathan/profiler/internal/scoring"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve profiler tools over MCP (stdio transport)",
	Long:  "Starts a Model Context Protocol server on stdin/stdout. Scoring tools always work; profile and recommendation tools need DATABASE_URL.",
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	deps := mcpserver.Deps{
		Scorer:     a.scorer,
		Confidence: scoring.NewConfidenceCalculator(),
	}
	if a.cfg.DatabaseURL != "" {
		if err := a.connect(ctx, false); err != nil {
			return err
		}
		deps.Profiles = a.profiles
		deps.Recommendations = a.recommendations
	} else {
		a.logger.Info("DATABASE_URL not set, profile and recommendation tools disabled")
	}

	a.logger.Info("MCP server started (stdio transport)")
	stdioSrv := server.NewStdioServer(mcpserver.NewMCPServer(deps))
	if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
