package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-path/internal/config"
	"github.com/jonathan/career-path/internal/llm"
	"github.com/jonathan/career-path/internal/llm/llmtest"
	"github.com/jonathan/career-path/internal/pdftext/pdftest"
)

const johnDoeJSON = `{"name": "John Doe", "email": "john.doe@example.com", "phone": "(555) 123-4567",
 "skills": ["Python", "SQL", "Machine Learning"], "education": [], "experience": []}`

// scripted answers each prompt type with a canned response.
func scripted(prompt string, _ llm.Options) (string, error) {
	switch {
	case strings.Contains(prompt, "résumé parser"):
		return johnDoeJSON, nil
	case strings.Contains(prompt, "career counselor"):
		return "A DevOps engineer automates delivery pipelines.", nil
	default:
		return "# Roadmap\n\n**Recommended Courses**\n\n**Mini-Quiz**", nil
	}
}

// testEnv points the CLI at a private index and the given fake gateway.
func testEnv(t *testing.T, fake *llmtest.Fake) {
	t.Helper()
	t.Setenv(config.EnvIndexPath, filepath.Join(t.TempDir(), "index"))
	for _, key := range []string{config.EnvRedisURL, config.EnvSeedCatalog, config.EnvCollection, config.EnvS3Endpoint} {
		t.Setenv(key, "")
	}

	orig := newGateway
	newGateway = func(context.Context, config.Config) (llm.Gateway, error) {
		return fake, nil
	}
	t.Cleanup(func() { newGateway = orig })
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command in-process and returns what it wrote to stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// writeResume writes a one-page résumé PDF and returns its path.
func writeResume(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.pdf")
	pdf := pdftest.Build("John Doe\njohn.doe@example.com\n(555) 123-4567\nSkills: Python, SQL, Machine Learning")
	require.NoError(t, os.WriteFile(path, pdf, 0644))
	return path
}
