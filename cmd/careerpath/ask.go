package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-path/internal/observability"
	"github.com/jonathan/career-path/internal/rag"
	"github.com/jonathan/career-path/internal/types"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a career question from the knowledge base",
	Long:  "Retrieve the career descriptions closest to the question and answer it using only that context.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var (
	askK            int
	askRetrieveOnly bool
)

func init() {
	askCmd.Flags().IntVarP(&askK, "top-k", "k", rag.DefaultK, "Number of career descriptions to retrieve")
	askCmd.Flags().BoolVar(&askRetrieveOnly, "retrieve-only", false, "Print the retrieved documents as JSON without generating an answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")

	return withApp(ctx, func(a *app) error {
		pipeline, err := a.pipeline(ctx)
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}

		if askRetrieveOnly || verbose {
			result, err := pipeline.Retrieve(ctx, question, askK)
			if err != nil {
				return err
			}
			if verbose {
				observability.NewPrinter(os.Stderr).PrintQueryResult(question, result)
			}
			if askRetrieveOnly {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
		}

		answer, err := pipeline.Answer(ctx, question, askK)
		fmt.Fprintln(cmd.OutOrStdout(), types.RenderReply(answer, err))
		return err
	})
}
