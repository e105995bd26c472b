// Package rag answers career questions grounded in the career index.
package rag

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/career-path/internal/embedding"
	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/index"
	"github.com/jonathan/career-path/internal/llm"
	"github.com/jonathan/career-path/internal/prompts"
	"github.com/jonathan/career-path/internal/types"
)

// DefaultK is the number of documents retrieved when k is not positive.
const DefaultK = 3

const promptFile = "rag.json"

// Pipeline couples retrieval with grounded generation.
type Pipeline struct {
	engine  *embedding.Engine
	store   index.Store
	gateway llm.Gateway
	timeout time.Duration
}

// NewPipeline creates a Pipeline. timeout bounds the generation call (0 for none).
func NewPipeline(engine *embedding.Engine, store index.Store, gateway llm.Gateway, timeout time.Duration) *Pipeline {
	return &Pipeline{engine: engine, store: store, gateway: gateway, timeout: timeout}
}

// Retrieve embeds query as a retrieval query and returns its k nearest careers.
func (p *Pipeline) Retrieve(ctx context.Context, query string, k int) (types.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return types.QueryResult{}, &errs.InputError{Message: "question is empty"}
	}
	if k <= 0 {
		k = DefaultK
	}

	vec, err := p.engine.EmbedOne(ctx, query, llm.TaskRetrievalQuery)
	if err != nil {
		return types.QueryResult{}, fmt.Errorf("failed to embed question: %w", err)
	}
	result, err := p.store.QueryByEmbedding(ctx, vec, k)
	if err != nil {
		return types.QueryResult{}, fmt.Errorf("failed to query career index: %w", err)
	}
	return result, nil
}

// Answer retrieves context for query and asks the model to answer from it.
// An empty retrieval still produces an answer, with the prompt saying so.
func (p *Pipeline) Answer(ctx context.Context, query string, k int) (string, error) {
	result, err := p.Retrieve(ctx, query, k)
	if err != nil {
		return "", err
	}

	log.Printf("[RAG] Answering with %d context documents", result.Len())
	answer, err := p.gateway.Complete(ctx, BuildPrompt(query, result), llm.Options{
		Tier:    llm.TierStandard,
		Timeout: p.timeout,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}

// BuildPrompt renders the grounded prompt: role framing, then context, then the question.
func BuildPrompt(query string, result types.QueryResult) string {
	return prompts.Format(prompts.MustGet(promptFile, "answer"), map[string]string{
		"Context":  SerializeContext(result),
		"Question": strings.TrimSpace(query),
	})
}

// SerializeContext renders retrieved careers one per line, closest first.
func SerializeContext(result types.QueryResult) string {
	if result.Len() == 0 {
		return prompts.MustGet(promptFile, "empty-context")
	}

	entry := prompts.MustGet(promptFile, "context-entry")
	lines := make([]string, 0, result.Len())
	for i, hit := range result.Results {
		role := hit.Metadata[types.MetaRole]
		if role == "" {
			role = hit.ID
		}
		category := ""
		if c := hit.Metadata[types.MetaCategory]; c != "" {
			category = " (" + c + ")"
		}
		lines = append(lines, prompts.Format(entry, map[string]string{
			"Rank":     strconv.Itoa(i + 1),
			"Role":     role,
			"Category": category,
			"Text":     hit.Text,
		}))
	}
	return strings.Join(lines, "\n")
}
