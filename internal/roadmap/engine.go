// Package roadmap generates personalized Markdown learning roadmaps.
package roadmap

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/llm"
	"github.com/jonathan/career-path/internal/prompts"
)

const promptFile = "roadmap.json"

// Engine asks the model for a roadmap from a skill set to a target role.
type Engine struct {
	gateway llm.Gateway
	timeout time.Duration
}

// NewEngine creates an Engine. timeout bounds the generation call (0 for none).
func NewEngine(gateway llm.Gateway, timeout time.Duration) *Engine {
	return &Engine{gateway: gateway, timeout: timeout}
}

// Generate returns the model's Markdown roadmap unchanged.
func (e *Engine) Generate(ctx context.Context, skills []string, targetRole string) (string, error) {
	targetRole = strings.TrimSpace(targetRole)
	if targetRole == "" {
		return "", &errs.InputError{Message: "target role is empty"}
	}

	log.Printf("[ROADMAP] Generating roadmap to %q from %d skills", targetRole, len(skills))
	markdown, err := e.gateway.Complete(ctx, BuildPrompt(skills, targetRole), llm.Options{
		Tier:    llm.TierAdvanced,
		Timeout: e.timeout,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate roadmap: %w", err)
	}
	return markdown, nil
}

// BuildPrompt renders the roadmap prompt for skills and targetRole.
func BuildPrompt(skills []string, targetRole string) string {
	listed := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			listed = append(listed, s)
		}
	}
	skillText := strings.Join(listed, ", ")
	if skillText == "" {
		skillText = prompts.MustGet(promptFile, "no-skills")
	}

	return prompts.Format(prompts.MustGet(promptFile, "generate"), map[string]string{
		"TargetRole": targetRole,
		"Skills":     skillText,
	})
}
