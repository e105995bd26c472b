package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/resume"
	"github.com/jonathan/career-path/internal/types"
)

var roadmapCmd = &cobra.Command{
	Use:   "roadmap",
	Short: "Write a Markdown learning roadmap toward a target role",
	Long:  "Write a step-by-step Markdown learning roadmap toward --role, starting from the skills given with --skills or extracted from --resume.",
	Args:  cobra.NoArgs,
	RunE:  runRoadmap,
}

var (
	roadmapRole   string
	roadmapSkills string
	roadmapResume string
	roadmapOut    string
)

func init() {
	roadmapCmd.Flags().StringVarP(&roadmapRole, "role", "r", "", "Target role (required)")
	roadmapCmd.Flags().StringVarP(&roadmapSkills, "skills", "s", "", "Comma-separated current skills")
	roadmapCmd.Flags().StringVar(&roadmapResume, "resume", "", "Résumé PDF (path, URL or s3:// URI) to take skills from")
	roadmapCmd.Flags().StringVarP(&roadmapOut, "out", "o", "", "Write the roadmap to this Markdown file")
	_ = roadmapCmd.MarkFlagRequired("role")
	roadmapCmd.MarkFlagsMutuallyExclusive("skills", "resume")
	rootCmd.AddCommand(roadmapCmd)
}

// splitSkills turns a comma-separated list into normalized skills.
func splitSkills(list string) []string {
	if strings.TrimSpace(list) == "" {
		return []string{}
	}
	return resume.NormalizeSkills(strings.Split(list, ","))
}

func runRoadmap(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		skills := splitSkills(roadmapSkills)
		if roadmapResume != "" {
			profile, err := a.parser().ParseFile(ctx, roadmapResume)
			if err != nil {
				return fmt.Errorf("failed to read résumé: %w", err)
			}
			skills = profile.Skills
		}
		if len(skills) == 0 {
			return &errs.PreconditionError{Message: "no skills given; use --skills or --resume"}
		}

		markdown, err := a.roadmaps().Generate(ctx, skills, roadmapRole)
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), types.RenderReply("", err))
			return err
		}

		if roadmapOut != "" {
			if err := os.WriteFile(roadmapOut, []byte(markdown), 0644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Output: %s\n", roadmapOut)
			return nil
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), markdown)
		return err
	})
}
