// Package embedding maps text to vectors through the LLM gateway.
package embedding

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/llm"
)

const (
	defaultConcurrency = 4
	defaultRetryDelay  = 250 * time.Millisecond
)

// Engine embeds single texts and batches. It is safe for concurrent use.
type Engine struct {
	gateway     llm.Gateway
	cache       Cache
	concurrency int
	retryDelay  time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache stores every vector in c and serves repeats from it.
func WithCache(c Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithConcurrency bounds the number of in-flight Embed calls of a batch.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithRetryDelay sets the pause before the single retry of a failed call.
func WithRetryDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.retryDelay = d
		}
	}
}

// NewEngine creates an Engine over gateway.
func NewEngine(gateway llm.Gateway, opts ...Option) *Engine {
	e := &Engine{
		gateway:     gateway,
		concurrency: defaultConcurrency,
		retryDelay:  defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EmbedOne returns the vector for text. Empty or whitespace-only text is rejected.
func (e *Engine) EmbedOne(ctx context.Context, text string, task llm.Task) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &errs.InputError{Message: "cannot embed empty text"}
	}
	if !task.Valid() {
		return nil, &errs.InputError{Message: fmt.Sprintf("unknown embedding task %q", task)}
	}

	key := CacheKey(e.gateway.EmbeddingModel(), task, text)
	if e.cache != nil {
		vec, ok, err := e.cache.Get(ctx, key)
		if err != nil {
			log.Printf("[EMBED] cache lookup failed: %v", err)
		} else if ok {
			return vec, nil
		}
	}

	vec, err := e.embedWithRetry(ctx, text, task)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, &errs.UpstreamError{Message: "provider returned an empty embedding"}
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, vec); err != nil {
			log.Printf("[EMBED] cache store failed: %v", err)
		}
	}
	return vec, nil
}

// EmbedBatch embeds every text and returns the vectors in input order.
// The first failure cancels the rest of the batch.
func (e *Engine) EmbedBatch(ctx context.Context, texts []string, task llm.Task) ([][]float32, error) {
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, &errs.InputError{Message: fmt.Sprintf("cannot embed empty text at position %d", i)}
		}
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := e.EmbedOne(gctx, text, task)
			if err != nil {
				return fmt.Errorf("embedding text %d: %w", i, err)
			}
			out[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// embedWithRetry retries exactly once on an upstream failure.
func (e *Engine) embedWithRetry(ctx context.Context, text string, task llm.Task) ([]float32, error) {
	vec, err := e.gateway.Embed(ctx, text, task)
	if err == nil || !errs.IsUpstream(err) || ctx.Err() != nil {
		return vec, err
	}

	log.Printf("[EMBED] retrying after upstream failure: %v", err)
	if e.retryDelay > 0 {
		timer := time.NewTimer(e.retryDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, &errs.UpstreamError{Message: "embedding cancelled", Cause: ctx.Err()}
		case <-timer.C:
		}
	}
	return e.gateway.Embed(ctx, text, task)
}
