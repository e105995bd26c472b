package llm

import (
	"context"

	"github.com/jonathan/career-path/internal/errs"
)

// Unavailable returns a gateway whose every call fails with cause.
// The CLI installs it when the client cannot be built so that sessions stay usable
// and every LLM-backed operation reports the configuration problem instead of crashing.
func Unavailable(cause error) Gateway {
	if cause == nil {
		cause = &errs.ConfigError{Message: "LLM gateway is not configured"}
	}
	return unavailableGateway{cause: cause}
}

type unavailableGateway struct {
	cause error
}

func (g unavailableGateway) Complete(context.Context, string, Options) (string, error) {
	return "", g.cause
}

func (g unavailableGateway) Embed(context.Context, string, Task) ([]float32, error) {
	return nil, g.cause
}

func (g unavailableGateway) EmbeddingModel() string {
	return ""
}

func (g unavailableGateway) Close() error {
	return nil
}
