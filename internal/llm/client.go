package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/jonathan/career-path/internal/errs"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// NewClient creates the gateway for the configured provider.
// A missing API key fails fast with a ConfigError.
func NewClient(ctx context.Context, config *Config, apiKey string) (Gateway, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, &errs.ConfigError{Message: fmt.Sprintf("unsupported LLM provider %q", config.Provider)}
	}
}

// GeminiClient implements Gateway for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if config == nil {
		config = DefaultConfig()
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, &errs.ConfigError{Message: "LLM_API_KEY is not set"}
	}
	if config.EmbeddingModel == "" {
		config = config.WithEmbeddingModel(DefaultEmbeddingModel)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &errs.ConfigError{Message: "failed to create Gemini client", Cause: err}
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Complete generates text content. Generation is never retried here.
func (c *GeminiClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	modelName := opts.Model
	if modelName == "" {
		modelName = c.config.GetModel(opts.Tier)
	}
	if modelName == "" {
		return "", &errs.ConfigError{Message: fmt.Sprintf("no model configured for tier %s", opts.Tier)}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	model := c.client.GenerativeModel(modelName)
	if opts.Temperature != nil {
		model.SetTemperature(*opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(opts.MaxTokens)
	}
	if opts.JSON {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", upstreamError(ctx, "failed to generate content", err)
	}

	return extractTextFromResponse(resp)
}

// Embed generates an embedding with the task type matching corpus or query text.
func (c *GeminiClient) Embed(ctx context.Context, text string, task Task) ([]float32, error) {
	if !task.Valid() {
		return nil, &errs.InputError{Message: fmt.Sprintf("unknown embedding task %q", task)}
	}

	em := c.client.EmbeddingModel(c.config.EmbeddingModel)
	em.TaskType = taskType(task)

	resp, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, upstreamError(ctx, "failed to embed content", err)
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, &errs.UpstreamError{Message: "empty embedding in response"}
	}

	return resp.Embedding.Values, nil
}

// EmbeddingModel returns the configured embedding model name
func (c *GeminiClient) EmbeddingModel() string {
	return c.config.EmbeddingModel
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func taskType(task Task) genai.TaskType {
	if task == TaskRetrievalQuery {
		return genai.TaskTypeRetrievalQuery
	}
	return genai.TaskTypeRetrievalDocument
}

// upstreamError wraps a provider failure, preferring the provider's own message.
func upstreamError(ctx context.Context, message string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return &errs.UpstreamError{Message: message + ": timed out", Cause: ctxErr}
		}
		return &errs.UpstreamError{Message: message + ": cancelled", Cause: ctxErr}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return &errs.UpstreamError{
			Message: fmt.Sprintf("%s (HTTP %d): %s", message, apiErr.Code, apiErr.Message),
			Cause:   err,
		}
	}
	return &errs.UpstreamError{Message: message, Cause: err}
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &errs.UpstreamError{Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &errs.UpstreamError{Message: "no content in response"}
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", &errs.UpstreamError{Message: "no text parts in response"}
	}

	return strings.Join(parts, ""), nil
}
