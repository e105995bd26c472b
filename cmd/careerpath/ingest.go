package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-path/internal/catalog"
	"github.com/jonathan/career-path/internal/ingest"
	"github.com/jonathan/career-path/internal/observability"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed the career catalog into the vector index",
	Long: `Embed every career in the seed catalog (YAML or JSON) and upsert it into the configured vector index. Re-running replaces documents with the same id.

With --url, a single career is built from a web page instead: the page's main
text becomes the description and --role defaults to the page heading.`,
	Args:  cobra.NoArgs,
	RunE:  runIngest,
}

var (
	ingestCatalog  string
	ingestURL      string
	ingestRole     string
	ingestCategory string
)

func init() {
	ingestCmd.Flags().StringVarP(&ingestCatalog, "catalog", "c", "", "Seed catalog file (defaults to SEED_CATALOG_PATH, then the built-in catalog)")
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "Ingest one career from a web page")
	ingestCmd.Flags().StringVar(&ingestRole, "role", "", "Role name for --url (defaults to the page heading)")
	ingestCmd.Flags().StringVar(&ingestCategory, "category", "", "Category for --url")
	ingestCmd.MarkFlagsMutuallyExclusive("catalog", "url")
	ingestCmd.MarkFlagsRequiredTogether("url", "category")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		var entries []catalog.Entry
		if ingestURL != "" {
			entry, err := catalog.FromPage(ctx, ingestURL, ingestRole, ingestCategory, nil)
			if err != nil {
				return fmt.Errorf("failed to read career page: %w", err)
			}
			entries = []catalog.Entry{entry}
		} else {
			var err error
			entries, err = a.loadCatalog(ingestCatalog)
			if err != nil {
				return fmt.Errorf("failed to load catalog: %w", err)
			}
		}
		store, err := a.openIndex(ctx)
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}

		report, err := ingest.New(a.engine, store).Run(ctx, entries)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}

		if verbose {
			observability.NewPrinter(os.Stderr).PrintIngestReport(report)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	})
}
