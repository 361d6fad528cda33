package vision

import (
	"context"
	"fmt"

	"github.com/mj1618/desktop-extract/internal/llm"
)

// OpenAILocator locates targets with an OpenAI-compatible multimodal model.
type OpenAILocator struct {
	client llm.Client
	model  string
}

// NewOpenAILocator returns a locator using model through client.
func NewOpenAILocator(client llm.Client, model string) *OpenAILocator {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAILocator{client: client, model: model}
}

func (l *OpenAILocator) Locate(ctx context.Context, screenshot []byte, query string) ([]Candidate, error) {
	resp, err := l.client.CreateChatCompletion(ctx, llm.ImageRequest(l.model, systemPrompt, userPrompt(query), screenshot))
	if err != nil {
		return nil, fmt.Errorf("openai locate: %w", err)
	}
	content, err := llm.FirstContent(resp)
	if err != nil {
		return nil, fmt.Errorf("openai locate: %w", err)
	}
	return ParseCandidates(content)
}
