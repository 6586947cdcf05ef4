// Package ai builds the embedding and chat-completion adapters from config.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openaiembed "github.com/custodia-labs/evidence-rag/internal/adapters/driven/embedding/openai"
	openaillm "github.com/custodia-labs/evidence-rag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Services holds the upstream AI adapters.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Close releases all resources held by Services.
func (s *Services) Close() error {
	var errs []error
	if s.Embedding != nil {
		errs = append(errs, s.Embedding.Close())
	}
	if s.LLM != nil {
		errs = append(errs, s.LLM.Close())
	}
	return errors.Join(errs...)
}

// New creates both adapters. It fails when no API key is configured.
func New(cfg domain.OpenAIConfig) (*Services, error) {
	embedding, err := CreateEmbeddingService(cfg)
	if err != nil {
		return nil, err
	}

	llm, err := CreateLLMService(cfg)
	if err != nil {
		embedding.Close()
		return nil, err
	}

	return &Services{Embedding: embedding, LLM: llm}, nil
}

// CreateEmbeddingService creates the OpenAI-compatible embedding adapter.
func CreateEmbeddingService(cfg domain.OpenAIConfig) (driven.EmbeddingService, error) {
	svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		Model:             cfg.EmbedModel,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding service: %w", err)
	}
	return svc, nil
}

// CreateLLMService creates the OpenAI-compatible chat adapter.
func CreateLLMService(cfg domain.OpenAIConfig) (driven.LLMService, error) {
	svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.ChatModel,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create llm service: %w", err)
	}
	return svc, nil
}

// Validate pings both services with a short timeout. It is used by the
// status command to report connectivity without running inference.
func (s *Services) Validate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.Embedding.Ping(ctx); err != nil {
		return fmt.Errorf("embedding service %s unreachable: %w", s.Embedding.ModelName(), err)
	}
	if err := s.LLM.Ping(ctx); err != nil {
		return fmt.Errorf("llm service %s unreachable: %w", s.LLM.ModelName(), err)
	}
	return nil
}
