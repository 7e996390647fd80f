// Package main provides the profiler CLI: the REST API server, the MCP tool
// server, database migrations and offline scoring commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "profiler",
	Short: "Profile Quality & Recommendation Engine",
	Long:  "profiler scores user profiles and uploaded documents, tracks profile completion and generates improvement recommendations via REST API, MCP or the command line.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (.json, .toml, .yaml)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
