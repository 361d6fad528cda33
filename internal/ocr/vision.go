package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mj1618/desktop-extract/internal/llm"
	"github.com/mj1618/desktop-extract/internal/model"
)

const visionSystem = "You transcribe text from screenshots of a desktop app. " +
	`Reply with JSON only: {"text": "<all visible text, lines separated by \n>", "confidence": <0..1>}.`

// Vision reads text with a multimodal chat model.
type Vision struct {
	client llm.Client
	model  string
}

// NewVision returns a recognizer using model through client.
func NewVision(client llm.Client, model string) *Vision {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Vision{client: client, model: model}
}

// Recognize sends the crop to the model.
func (v *Vision) Recognize(ctx context.Context, img []byte) (Recognition, error) {
	req := llm.ImageRequest(v.model, visionSystem, "Transcribe the text in this image.", img)
	resp, err := v.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Recognition{}, fmt.Errorf("%w: %w", model.ErrOCRFailure, err)
	}
	content, err := llm.FirstContent(resp)
	if err != nil {
		return Recognition{}, fmt.Errorf("%w: %w", model.ErrOCRFailure, err)
	}
	var out Recognition
	if err := json.Unmarshal([]byte(llm.ExtractJSON(content)), &out); err != nil {
		// Plain-text replies are still usable, with unknown confidence.
		return Recognition{Text: strings.TrimSpace(content), Confidence: 0.5}, nil
	}
	out.Text = strings.TrimSpace(out.Text)
	return out, nil
}
