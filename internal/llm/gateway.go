package llm

import (
	"context"
	"time"
)

// Task tells an asymmetric embedding model whether the text is corpus or query.
type Task string

// Embedding tasks
const (
	TaskRetrievalDocument Task = "retrieval_document"
	TaskRetrievalQuery    Task = "retrieval_query"
)

// Valid reports whether t is a known task.
func (t Task) Valid() bool {
	return t == TaskRetrievalDocument || t == TaskRetrievalQuery
}

// Options tune a single completion call. The zero value uses the standard tier,
// the provider's default temperature and no explicit timeout.
type Options struct {
	Tier        ModelTier
	Model       string // overrides Tier when set
	Temperature *float32
	MaxTokens   int32
	Timeout     time.Duration
	JSON        bool // request an application/json response
}

// Temperature is a helper for filling Options.Temperature.
func Temperature(t float32) *float32 {
	return &t
}

// Gateway is the uniform request/response surface of the hosted model.
// Implementations must be safe for concurrent use.
type Gateway interface {
	// Complete generates text for prompt.
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
	// Embed maps text to a fixed-dimension vector.
	Embed(ctx context.Context, text string, task Task) ([]float32, error)
	// EmbeddingModel names the model behind Embed; cache keys depend on it.
	EmbeddingModel() string
	// Close releases any resources held by the gateway
	Close() error
}
