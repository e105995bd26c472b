package roadmap

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/llm"
	"github.com/jonathan/career-path/internal/llm/llmtest"
	"github.com/jonathan/career-path/internal/types"
)

const sampleRoadmap = `# Roadmap: Machine Learning Engineer

## Step 1: Core Concepts (4 weeks)
- Linear algebra, probability
- **Recommended Courses**: Coursera Machine Learning Specialization

### Mini-Quiz
1. Which loss suits binary classification? a) MSE b) Log loss c) Hinge

## Step 2: Tools (3 weeks)
- scikit-learn, PyTorch

## Project Ideas
- Build a churn prediction model
`

func TestGenerate_RequiredSections(t *testing.T) {
	fake := &llmtest.Fake{Responses: []string{sampleRoadmap}}
	engine := NewEngine(fake, 0)

	markdown, err := engine.Generate(context.Background(), []string{"Python", "Basic SQL"}, "Machine Learning Engineer")
	require.NoError(t, err)
	assert.Equal(t, sampleRoadmap, markdown, "output is returned unchanged")

	lower := strings.ToLower(markdown)
	for _, section := range []string{"concepts", "project", "course", "quiz"} {
		assert.Contains(t, lower, section)
	}

	prompt := fake.LastPrompt()
	assert.Contains(t, prompt, "become a Machine Learning Engineer")
	assert.Contains(t, prompt, "Current Skills: Python, Basic SQL")
	assert.Equal(t, llm.TierAdvanced, fake.CompleteOptions()[0].Tier)
}

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name     string
		skills   []string
		expected string
	}{
		{name: "listed", skills: []string{"Go", " Docker "}, expected: "Current Skills: Go, Docker"},
		{name: "none", skills: nil, expected: "Current Skills: none listed"},
		{name: "blank only", skills: []string{" ", ""}, expected: "Current Skills: none listed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := BuildPrompt(tt.skills, "SRE")
			assert.Contains(t, prompt, tt.expected)
			for _, required := range []string{"Key concepts", "Estimated time", "Project ideas", "Recommended Courses", "Mini-Quiz"} {
				assert.Contains(t, prompt, required)
			}
		})
	}
}

func TestGenerate_EmptyRole(t *testing.T) {
	fake := &llmtest.Fake{Responses: []string{sampleRoadmap}}

	_, err := NewEngine(fake, 0).Generate(context.Background(), []string{"Go"}, "  ")
	assert.Equal(t, errs.KindInput, errs.KindOf(err))
	assert.Empty(t, fake.Prompts())
}

func TestGenerate_FailureRendersErrorPrefix(t *testing.T) {
	fake := &llmtest.Fake{CompleteErr: &errs.UpstreamError{Message: "quota exhausted"}}

	markdown, err := NewEngine(fake, 0).Generate(context.Background(), []string{"Go"}, "SRE")
	require.Error(t, err)
	reply := types.RenderReply(markdown, err)
	assert.True(t, strings.HasPrefix(reply, "Error:"))
	assert.Contains(t, reply, "quota exhausted")
}
