package vision

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiModels is the subset of the genai client used here.
type GeminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiLocator locates targets with a Gemini model.
type GeminiLocator struct {
	models GeminiModels
	model  string
}

// NewGeminiLocator returns a locator over client.Models.
func NewGeminiLocator(client *genai.Client, model string) *GeminiLocator {
	return NewGeminiLocatorWith(client.Models, model)
}

// NewGeminiLocatorWith returns a locator over any GenerateContent
// implementation.
func NewGeminiLocatorWith(models GeminiModels, model string) *GeminiLocator {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiLocator{models: models, model: model}
}

// NewGeminiClient connects to the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}
	return client, nil
}

func buildGeminiConfig() *genai.GenerateContentConfig {
	temp := float32(0)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		Temperature:       &temp,
		ResponseMIMEType:  "application/json",
	}
}

func (l *GeminiLocator) Locate(ctx context.Context, screenshot []byte, query string) ([]Candidate, error) {
	result, err := l.models.GenerateContent(ctx, l.model,
		[]*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{Data: screenshot, MIMEType: "image/png"}},
				{Text: userPrompt(query)},
			},
		}},
		buildGeminiConfig(),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini locate: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("gemini returned nil result")
	}
	return ParseCandidates(result.Text())
}
