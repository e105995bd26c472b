package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-path/internal/observability"
)

var parseResumeCmd = &cobra.Command{
	Use:   "parse-resume <path|url|s3://bucket/key>",
	Short: "Extract a structured profile from a résumé PDF",
	Long:  "Extract the text of a résumé PDF and turn it into a structured profile JSON. When the model output cannot be used, the profile is still printed with empty fields and an error message.",
	Args:  cobra.ExactArgs(1),
	RunE:  runParseResume,
}

var parseResumeOut string

func init() {
	parseResumeCmd.Flags().StringVarP(&parseResumeOut, "out", "o", "", "Write the profile JSON to this file instead of stdout")
	rootCmd.AddCommand(parseResumeCmd)
}

func runParseResume(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		profile, err := a.parser().ParseFile(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to read résumé: %w", err)
		}
		if profile.Degraded() {
			fmt.Fprintf(os.Stderr, "Warning: profile extraction degraded: %s\n", profile.Error)
		}
		if verbose {
			observability.NewPrinter(os.Stderr).PrintProfile(&profile)
		}

		data, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		if parseResumeOut == "" {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}
		if err := os.WriteFile(parseResumeOut, data, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Output: %s\n", parseResumeOut)
		return nil
	})
}
