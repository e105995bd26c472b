// Package llm provides the gateway to the hosted text-generation and text-embedding models.
// Components receive a Gateway value at construction; nothing here is process-global.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: JSON repair, short rewrites
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: résumé extraction, grounded answers
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long structured output: learning roadmaps
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// DefaultEmbeddingModel is used when no embedding model is configured
const DefaultEmbeddingModel = "text-embedding-004"

// Config holds the model configuration for the gateway
type Config struct {
	Provider       Provider
	Models         map[ModelTier]string
	EmbeddingModel string
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.0-flash-lite",
			TierStandard: "gemini-2.0-flash",
			TierAdvanced: "gemini-2.5-flash",
		},
		EmbeddingModel: DefaultEmbeddingModel,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := c.clone()
	newConfig.Models[tier] = model
	return newConfig
}

// WithTextModel returns a new Config that uses one generation model for every tier.
// An empty model leaves the tier defaults in place.
func (c *Config) WithTextModel(model string) *Config {
	newConfig := c.clone()
	if model == "" {
		return newConfig
	}
	for _, tier := range []ModelTier{TierLite, TierStandard, TierAdvanced} {
		newConfig.Models[tier] = model
	}
	return newConfig
}

// WithEmbeddingModel returns a new Config with the given embedding model.
// An empty model keeps the current one.
func (c *Config) WithEmbeddingModel(model string) *Config {
	newConfig := c.clone()
	if model != "" {
		newConfig.EmbeddingModel = model
	}
	return newConfig
}

func (c *Config) clone() *Config {
	newConfig := &Config{
		Provider:       c.Provider,
		Models:         make(map[ModelTier]string, len(c.Models)),
		EmbeddingModel: c.EmbeddingModel,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	return newConfig
}
