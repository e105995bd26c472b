package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/career-path/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestNewClient_MissingKeyFailsFast(t *testing.T) {
	for _, key := range []string{"", "   ", "\n\t"} {
		client, err := NewClient(context.Background(), DefaultConfig(), key)
		assert.Nil(t, client)
		require.Error(t, err)
		assert.True(t, errs.IsConfig(err), "expected ConfigError, got %v", err)
	}
}

func TestNewClient_UnknownProvider(t *testing.T) {
	cfg := &Config{Provider: "carrier-pigeon"}
	_, err := NewClient(context.Background(), cfg, "key")
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
}

func TestUnavailable_EveryCallFails(t *testing.T) {
	cause := &errs.ConfigError{Message: "LLM_API_KEY is not set"}
	gw := Unavailable(cause)

	_, err := gw.Complete(context.Background(), "hi", Options{})
	assert.Same(t, cause, err)

	_, err = gw.Embed(context.Background(), "hi", TaskRetrievalQuery)
	assert.Same(t, cause, err)

	assert.NoError(t, gw.Close())

	_, err = Unavailable(nil).Complete(context.Background(), "hi", Options{})
	assert.True(t, errs.IsConfig(err))
}

func TestUpstreamError_ProviderMessage(t *testing.T) {
	err := upstreamError(context.Background(), "failed to generate content",
		&googleapi.Error{Code: 429, Message: "Resource has been exhausted"})

	require.True(t, errs.IsUpstream(err))
	assert.Contains(t, err.Error(), "Resource has been exhausted")
	assert.Contains(t, err.Error(), "429")
}

func TestUpstreamError_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := upstreamError(ctx, "failed to embed content", errors.New("rpc error"))
	require.True(t, errs.IsUpstream(err))
	assert.True(t, strings.Contains(err.Error(), "timed out"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBuildExtractionPrompt_ResumeSchema(t *testing.T) {
	prompt := BuildExtractionPrompt(ResumeProfileSchema(), "John Doe\nPython, SQL")

	for _, field := range []string{`"name"`, `"email"`, `"phone"`, `"skills"`, `"education"`, `"experience"`} {
		assert.Contains(t, prompt, field)
	}
	assert.Contains(t, prompt, "no code fences")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(prompt), `"""`))
	assert.Contains(t, prompt, "John Doe\nPython, SQL")
}
