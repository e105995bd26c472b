// Package llmtest provides a recording, scripted llm.Gateway for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"

	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/llm"
)

// Vocabulary is the fixed keyword basis of KeywordEmbedding.
var Vocabulary = []string{
	"python", "data", "analyze", "sql", "machine learning", "statistics", "scientist",
	"html", "css", "javascript", "react", "frontend", "backend", "developer", "server",
	"api", "node", "docker", "kubernetes", "cloud", "devops", "product", "strategy",
	"communication", "manager", "engineer",
}

// Dimension is the length of every KeywordEmbedding vector.
var Dimension = len(Vocabulary) + 1

// KeywordEmbedding maps text to one dimension per vocabulary keyword it contains
// (case-insensitive substring match) plus a constant bias dimension, so no vector is zero.
func KeywordEmbedding(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, Dimension)
	for i, kw := range Vocabulary {
		if strings.Contains(lower, kw) {
			vec[i] = 1
		}
	}
	vec[len(Vocabulary)] = 1
	return vec
}

// EmbedCall records one Embed invocation.
type EmbedCall struct {
	Text string
	Task llm.Task
}

// Fake is a deterministic Gateway. Zero value: completions fail, embeddings use KeywordEmbedding.
type Fake struct {
	mu sync.Mutex

	// Responses are returned by Complete in order; the last one repeats.
	Responses []string
	// CompleteFunc, when set, overrides Responses.
	CompleteFunc func(prompt string, opts llm.Options) (string, error)
	// CompleteErr is returned by every Complete call when set.
	CompleteErr error

	// Embedder overrides KeywordEmbedding.
	Embedder func(text string) []float32
	// EmbedErr is returned by every Embed call when set.
	EmbedErr error
	// EmbedErrFor fails Embed for specific inputs.
	EmbedErrFor func(text string) error
	// TransientEmbedFailures fails that many Embed calls with an UpstreamError before succeeding.
	TransientEmbedFailures int

	Model string

	prompts    []string
	options    []llm.Options
	embedCalls []EmbedCall
	next       int
}

var _ llm.Gateway = (*Fake)(nil)

// Complete implements llm.Gateway.
func (f *Fake) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.options = append(f.options, opts)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", &errs.UpstreamError{Message: "failed to generate content: cancelled", Cause: err}
	}
	if f.CompleteFunc != nil {
		return f.CompleteFunc(prompt, opts)
	}
	if f.CompleteErr != nil {
		return "", f.CompleteErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Responses) == 0 {
		return "", &errs.UpstreamError{Message: "no scripted response"}
	}
	idx := f.next
	if idx >= len(f.Responses) {
		idx = len(f.Responses) - 1
	}
	f.next++
	return f.Responses[idx], nil
}

// Embed implements llm.Gateway.
func (f *Fake) Embed(ctx context.Context, text string, task llm.Task) ([]float32, error) {
	f.mu.Lock()
	f.embedCalls = append(f.embedCalls, EmbedCall{Text: text, Task: task})
	transient := f.TransientEmbedFailures > 0
	if transient {
		f.TransientEmbedFailures--
	}
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &errs.UpstreamError{Message: "failed to embed content: cancelled", Cause: err}
	}
	if transient {
		return nil, &errs.UpstreamError{Message: "transient embedding failure"}
	}
	if f.EmbedErr != nil {
		return nil, f.EmbedErr
	}
	if f.EmbedErrFor != nil {
		if err := f.EmbedErrFor(text); err != nil {
			return nil, err
		}
	}
	if f.Embedder != nil {
		return f.Embedder(text), nil
	}
	return KeywordEmbedding(text), nil
}

// EmbeddingModel implements llm.Gateway.
func (f *Fake) EmbeddingModel() string {
	if f.Model == "" {
		return "fake-embedding"
	}
	return f.Model
}

// Close implements llm.Gateway.
func (f *Fake) Close() error {
	return nil
}

// Prompts returns every prompt passed to Complete, in order.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// LastPrompt returns the most recent prompt, or "".
func (f *Fake) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// CompleteOptions returns the options of every Complete call, in order.
func (f *Fake) CompleteOptions() []llm.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Options(nil), f.options...)
}

// EmbedCalls returns every Embed invocation, in order.
func (f *Fake) EmbedCalls() []EmbedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]EmbedCall(nil), f.embedCalls...)
}
