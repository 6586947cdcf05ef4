package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(domain.OpenAIConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNew_UsesConfiguredModels(t *testing.T) {
	cfg := domain.DefaultConfig().OpenAI
	cfg.APIKey = "sk-test"
	cfg.EmbedModel = "text-embedding-3-large"
	cfg.ChatModel = "gpt-4o"

	svc, err := New(cfg)
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, "text-embedding-3-large", svc.Embedding.ModelName())
	assert.Equal(t, 3072, svc.Embedding.Dimensions())
	assert.Equal(t, "gpt-4o", svc.LLM.ModelName())
}

func TestValidate(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	cfg := domain.DefaultConfig().OpenAI
	cfg.APIKey = "sk-test"
	cfg.BaseURL = server.URL

	svc, err := New(cfg)
	require.NoError(t, err)

	assert.NoError(t, svc.Validate(context.Background()))

	status.Store(http.StatusUnauthorized)
	err = svc.Validate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "embedding service")
}

func TestServices_CloseNil(t *testing.T) {
	assert.NoError(t, (&Services{}).Close())
}
