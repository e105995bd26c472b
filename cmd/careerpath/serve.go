package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-path/internal/rag"
	"github.com/jonathan/career-path/internal/server"
	"github.com/jonathan/career-path/internal/session"
)

var (
	servePort int
	serveK    int
	serveSeed bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start an HTTP server that exposes career guidance sessions as JSON endpoints.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().IntVarP(&serveK, "top-k", "k", rag.DefaultK, "Number of career descriptions to retrieve per question")
	serveCmd.Flags().BoolVar(&serveSeed, "seed", true, "Ingest the seed catalog when the index is empty")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		if serveSeed {
			if err := a.seedIfEmpty(ctx); err != nil {
				return fmt.Errorf("failed to seed index: %w", err)
			}
		}
		deps, err := a.sessionDeps(ctx, serveK)
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}
		pipeline, err := a.pipeline(ctx)
		if err != nil {
			return err
		}

		srv, err := server.New(server.Config{
			Port:           servePort,
			Sessions:       session.NewManager(deps, a.cfg.SessionTTL),
			Retriever:      pipeline,
			RateLimitRPS:   a.cfg.RateLimitRPS,
			RateLimitBurst: a.cfg.RateLimitBurst,
		})
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		return srv.Start(ctx)
	})
}
