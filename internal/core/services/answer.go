package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
	"github.com/custodia-labs/evidence-rag/internal/logger"
)

// DefaultAnswerSystemPrompt is used when no prompt store is configured or
// the store cannot produce the answer prompt.
const DefaultAnswerSystemPrompt = "You are a helpful assistant answering questions using retrieved context. " +
	"Answer strictly from the context. " +
	"Cite each fact by referencing its source type and ID. " +
	"If the context is insufficient, say so and explain what is missing."

// AnswerComposer asks the chat model for an answer grounded on a context.
type AnswerComposer struct {
	llm         driven.LLMService
	prompts     driven.PromptStore
	temperature float64
}

// NewAnswerComposer creates an answer composer. prompts may be nil.
func NewAnswerComposer(llm driven.LLMService, prompts driven.PromptStore, config domain.AnswerConfig) *AnswerComposer {
	return &AnswerComposer{
		llm:         llm,
		prompts:     prompts,
		temperature: config.Temperature,
	}
}

// Compose returns the model's trimmed answer. A model that produces no
// choice yields "" and no error.
func (c *AnswerComposer) Compose(ctx context.Context, query, contextText string) (string, error) {
	logger.Section("Answer")

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: c.systemPrompt()},
		{Role: driven.RoleUser, Content: UserTurn(query, contextText)},
	}

	answer, err := c.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: c.temperature})
	if err != nil {
		return "", fmt.Errorf("composing answer: %w", err)
	}

	answer = strings.TrimSpace(answer)
	logger.Debug("Answer: %d characters from %s", len(answer), c.llm.ModelName())
	return answer, nil
}

func (c *AnswerComposer) systemPrompt() string {
	if c.prompts == nil {
		return DefaultAnswerSystemPrompt
	}
	prompt, err := c.prompts.Load(driven.PromptAnswerSystem)
	if err != nil || strings.TrimSpace(prompt) == "" {
		logger.Debug("Using built-in answer prompt: %v", err)
		return DefaultAnswerSystemPrompt
	}
	return prompt
}

// UserTurn builds the user message sent with the context.
func UserTurn(query, contextText string) string {
	return "Question:\n" + query + "\n\nContext:\n" + contextText
}
