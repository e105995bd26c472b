// Package main provides the careerpath command line: ingestion, résumé parsing,
// career questions, roadmaps, an interactive chat and the HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "careerpath",
	Short:         "Career guidance from your résumé",
	Long:          "careerpath extracts a structured profile from a résumé PDF, answers career questions grounded in a knowledge base of career descriptions, and writes personalized learning roadmaps.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file (environment variables take precedence)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print formatted summaries to stderr")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
